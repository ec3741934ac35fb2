package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runfromrun/rfr/internal/extraction"
	"github.com/runfromrun/rfr/internal/types"
)

type fakeAnalyzer struct {
	result extraction.Result
	err    error
	calls  atomic.Int32
}

func (f *fakeAnalyzer) AnalyzeReport(_ context.Context, _, _, _ string) (extraction.Result, error) {
	f.calls.Add(1)
	return f.result, f.err
}

type fakeCollector struct {
	data  types.OnChainData
	err   error
	calls atomic.Int32
}

func (f *fakeCollector) Collect(_ context.Context, _ string) (types.OnChainData, error) {
	f.calls.Add(1)
	return f.data, f.err
}

// snapshotRecorder captures persisted snapshots for inspection.
type snapshotRecorder struct {
	snapshots []types.EvaluationSnapshot
	err       error
}

func (r *snapshotRecorder) save(s types.EvaluationSnapshot) (int64, error) {
	r.snapshots = append(r.snapshots, s)
	return int64(len(r.snapshots)), r.err
}

func marketSeries(n int) []types.MarketSample {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]types.MarketSample, n)
	for i := range series {
		series[i] = types.MarketSample{
			Timestamp:    start.AddDate(0, 0, i),
			MarketCapUSD: 1_000_000,
			PriceUSD:     1.0,
		}
	}
	return series
}

func healthyReport() extraction.Result {
	table := types.NewAssetTable(true, "cafebabe", time.Now().UTC().Add(-24*time.Hour))
	table.CashBankDeposits.Amount = 1_000_000
	table.CashBankDeposits.Ratio = 100
	table.Total.Amount = 1_000_000
	table.Total.Ratio = 100
	return extraction.Result{
		Table:    table,
		Document: extraction.Document{Ticker: "USDT", Hash: "cafebabe"},
	}
}

func healthyOnChain() types.OnChainData {
	return types.OnChainData{
		SupplyByChain:       map[string]float64{"ethereum": 1_000_000},
		MarketSeries:        marketSeries(100),
		HolderConcentration: map[string]float64{"ethereum": 15},
		SlippageByChain:     map[string]float64{"ethereum": 0.2},
	}
}

func testThresholds() types.IndexThresholds {
	return types.IndexThresholds{
		FRRS: types.Threshold{Lower: 40},
		OHS:  types.Threshold{Lower: 55},
		TRS:  types.Threshold{Lower: 50, Upper: 65},
	}
}

func validRequest() types.EvalRequest {
	return types.EvalRequest{
		StablecoinTicker: "USDT",
		Provenance: types.Provenance{
			ReportIssuer: "Tether Limited",
			ReportPDFURL: "https://example.com/attestation.pdf",
		},
		ProtocolVersion: "v1.0.0",
	}
}

func newTestEngine(t *testing.T, analyzer ReportAnalyzer, collector OnChainCollector, saver SnapshotSaver) *Engine {
	t.Helper()
	e, err := NewEngine(
		analyzer,
		map[string]OnChainCollector{"USDT": collector},
		nil, // no notifier; Notify is nil-receiver safe
		saver,
		[]string{"USDT"},
		testThresholds(),
	)
	require.NoError(t, err)
	return e
}

func TestNewEngine_RequiresComponents(t *testing.T) {
	collector := &fakeCollector{}
	collectors := map[string]OnChainCollector{"USDT": collector}

	_, err := NewEngine(nil, collectors, nil, nil, []string{"USDT"}, testThresholds())
	require.Error(t, err)
	_, err = NewEngine(&fakeAnalyzer{}, nil, nil, nil, []string{"USDT"}, testThresholds())
	require.Error(t, err)
	_, err = NewEngine(&fakeAnalyzer{}, collectors, nil, nil, nil, testThresholds())
	require.Error(t, err)
}

func TestEvaluate_SuccessPath(t *testing.T) {
	analyzer := &fakeAnalyzer{result: healthyReport()}
	collector := &fakeCollector{data: healthyOnChain()}
	recorder := &snapshotRecorder{}

	e := newTestEngine(t, analyzer, collector, recorder.save)
	resp := e.Evaluate(context.Background(), validRequest())

	require.Empty(t, resp.ErrStatus)
	require.NotNil(t, resp.RiskResult)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "USDT", resp.StablecoinTicker)
	assert.Equal(t, "v1.0.0", resp.ProtocolVersion)

	// A fresh 1:1 cash-backed coin with calm on-chain data scores high on
	// every index.
	assert.Equal(t, 100.0, resp.RiskResult.Indices.FRRS.Value)
	assert.Greater(t, resp.RiskResult.Indices.OHS.Value, 90.0)
	assert.Greater(t, resp.RiskResult.Indices.TRS.Value, 90.0)
	assert.NotEmpty(t, resp.RiskResult.Narrative)

	require.Len(t, recorder.snapshots, 1)
	snap := recorder.snapshots[0]
	assert.Equal(t, resp.ID, snap.EvalID)
	assert.Equal(t, "cafebabe", snap.SourceHash)
	assert.Empty(t, snap.ErrStatus)
	assert.Equal(t, resp.RiskResult.Indices.TRS.Value, snap.TRS)
}

func TestEvaluate_InvalidRequestDoesNoWork(t *testing.T) {
	analyzer := &fakeAnalyzer{result: healthyReport()}
	collector := &fakeCollector{data: healthyOnChain()}
	recorder := &snapshotRecorder{}
	e := newTestEngine(t, analyzer, collector, recorder.save)

	req := validRequest()
	req.Provenance.ReportPDFURL = "not-a-url"
	resp := e.Evaluate(context.Background(), req)

	assert.NotEmpty(t, resp.ErrStatus)
	assert.Nil(t, resp.RiskResult)
	assert.Equal(t, "USDT", resp.StablecoinTicker, "request context is echoed back")
	assert.Zero(t, analyzer.calls.Load())
	assert.Zero(t, collector.calls.Load())

	// Failures still leave an audit record.
	require.Len(t, recorder.snapshots, 1)
	assert.NotEmpty(t, recorder.snapshots[0].ErrStatus)
}

func TestEvaluate_UnsupportedCoin(t *testing.T) {
	e := newTestEngine(t, &fakeAnalyzer{result: healthyReport()}, &fakeCollector{data: healthyOnChain()}, nil)

	req := validRequest()
	req.StablecoinTicker = "DAI"
	resp := e.Evaluate(context.Background(), req)

	assert.Contains(t, resp.ErrStatus, "unsupported stablecoin")
	assert.Nil(t, resp.RiskResult)
}

func TestEvaluate_AnalyzerFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("report host unreachable")}
	e := newTestEngine(t, analyzer, &fakeCollector{data: healthyOnChain()}, nil)

	resp := e.Evaluate(context.Background(), validRequest())
	assert.Contains(t, resp.ErrStatus, "report host unreachable")
	assert.Nil(t, resp.RiskResult)
}

func TestEvaluate_CollectorFailure(t *testing.T) {
	collector := &fakeCollector{err: errors.New("rpc endpoint down")}
	e := newTestEngine(t, &fakeAnalyzer{result: healthyReport()}, collector, nil)

	resp := e.Evaluate(context.Background(), validRequest())
	assert.Contains(t, resp.ErrStatus, "rpc endpoint down")
	assert.Nil(t, resp.RiskResult)
}

func TestEvaluate_ZeroSupplyFailsScoring(t *testing.T) {
	data := healthyOnChain()
	data.SupplyByChain = map[string]float64{"ethereum": 0}
	e := newTestEngine(t, &fakeAnalyzer{result: healthyReport()}, &fakeCollector{data: data}, nil)

	resp := e.Evaluate(context.Background(), validRequest())
	assert.NotEmpty(t, resp.ErrStatus)
	assert.Nil(t, resp.RiskResult)
}

func TestEvaluate_SaverFailureDoesNotFailEvaluation(t *testing.T) {
	recorder := &snapshotRecorder{err: errors.New("db down")}
	e := newTestEngine(t, &fakeAnalyzer{result: healthyReport()}, &fakeCollector{data: healthyOnChain()}, recorder.save)

	resp := e.Evaluate(context.Background(), validRequest())
	assert.Empty(t, resp.ErrStatus)
	require.NotNil(t, resp.RiskResult)
}
