/*

This file contains the evaluation engine. One Evaluate call runs the whole
flow for a single coin: request validation, report analysis and on-chain
collection in parallel, the three index calculations, the threshold
narrative, and the audit snapshot. Fatal errors produce a response carrying
the error status and the echoed request context; the engine never panics a
request away.

*/

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/runfromrun/rfr/internal/config"
	"github.com/runfromrun/rfr/internal/datafetcher"
	"github.com/runfromrun/rfr/internal/extraction"
	"github.com/runfromrun/rfr/internal/indices"
	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/metrics"
	"github.com/runfromrun/rfr/internal/summary"
	"github.com/runfromrun/rfr/internal/types"
)

var engineLogger = logger.GetForComponent("evaluation_engine")

var ErrUnknownCoin = errors.New("no on-chain collector for coin")

// ReportAnalyzer produces the canonical reserve table for a report URL.
// Implemented by the extraction pipeline; faked in tests.
type ReportAnalyzer interface {
	AnalyzeReport(ctx context.Context, evalID, ticker, url string) (extraction.Result, error)
}

// OnChainCollector produces the joined on-chain view for one coin.
type OnChainCollector interface {
	Collect(ctx context.Context, ticker string) (types.OnChainData, error)
}

// SnapshotSaver persists one evaluation audit record. A nil saver disables
// persistence (one-shot CLI runs).
type SnapshotSaver func(types.EvaluationSnapshot) (int64, error)

// Engine evaluates risk for the configured set of stablecoins.
type Engine struct {
	analyzer   ReportAnalyzer
	collectors map[string]OnChainCollector
	notifier   *summary.Notifier
	saver      SnapshotSaver

	supportedCoins []string
	thresholds     types.IndexThresholds
}

func NewEngine(analyzer ReportAnalyzer, collectors map[string]OnChainCollector, notifier *summary.Notifier, saver SnapshotSaver, supportedCoins []string, thresholds types.IndexThresholds) (*Engine, error) {
	if analyzer == nil {
		return nil, errors.New("engine requires a report analyzer")
	}
	if len(collectors) == 0 {
		return nil, errors.New("engine requires at least one on-chain collector")
	}
	if len(supportedCoins) == 0 {
		return nil, errors.New("engine requires a supported coin set")
	}
	return &Engine{
		analyzer:       analyzer,
		collectors:     collectors,
		notifier:       notifier,
		saver:          saver,
		supportedCoins: supportedCoins,
		thresholds:     thresholds,
	}, nil
}

// Evaluate runs one full risk evaluation. It always returns a response; a
// fatal error is reported through ErrStatus with the request context echoed
// back.
func (e *Engine) Evaluate(ctx context.Context, req types.EvalRequest) types.EvalResponse {
	metrics.EvaluationsTotal.Inc()

	evalID := uuid.New().String()
	startedAt := time.Now().UTC()

	engineLogger.Info().
		Str("evalID", evalID).
		Str("ticker", req.StablecoinTicker).
		Str("issuer", req.Provenance.ReportIssuer).
		Msg("Starting risk evaluation")

	if err := req.Validate(e.supportedCoins); err != nil {
		return e.fail(evalID, req, startedAt, extraction.Result{}, err)
	}

	collector, ok := e.collectors[req.StablecoinTicker]
	if !ok {
		return e.fail(evalID, req, startedAt, extraction.Result{}, ErrUnknownCoin)
	}

	// The report analysis and the on-chain collection share no data; run
	// them in parallel and join before scoring.
	var (
		report  extraction.Result
		onchain types.OnChainData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = e.analyzer.AnalyzeReport(gctx, evalID, req.StablecoinTicker, req.Provenance.ReportPDFURL)
		return err
	})
	g.Go(func() error {
		var err error
		onchain, err = collector.Collect(gctx, req.StablecoinTicker)
		return err
	})
	if err := g.Wait(); err != nil {
		return e.fail(evalID, req, startedAt, report, err)
	}

	frrs, err := indices.CalculateFRRS(&report.Table, onchain.OutstandingSupply(), e.thresholds.FRRS)
	if err != nil {
		return e.fail(evalID, req, startedAt, report, err)
	}

	ohs, err := indices.CalculateOHS(&onchain, e.thresholds.OHS)
	if err != nil {
		return e.fail(evalID, req, startedAt, report, err)
	}

	reportAgeDays := time.Since(report.Table.AnalyzedAt).Hours() / 24
	trs, err := indices.CalculateTRS(frrs, ohs, reportAgeDays, e.thresholds.TRS)
	if err != nil {
		return e.fail(evalID, req, startedAt, report, err)
	}

	computed := types.Indices{FRRS: frrs, OHS: ohs, TRS: trs}
	narrative := summary.BuildNarrative(computed)
	e.notifier.Notify(ctx, req.StablecoinTicker, narrative)

	result := &types.RiskResult{
		CoinData: types.CoinData{
			StablecoinTicker: req.StablecoinTicker,
			AssetTable:       report.Table,
			OnChainData:      onchain,
		},
		Indices:   computed,
		Narrative: narrative,
	}

	completedAt := time.Now().UTC()
	e.persist(types.EvaluationSnapshot{
		EvalID:           evalID,
		StablecoinTicker: req.StablecoinTicker,
		SourceHash:       report.Document.Hash,
		CacheHit:         report.CacheHit,
		FRRS:             frrs.Value,
		OHS:              ohs.Value,
		TRS:              trs.Value,
		Narrative:        narrative,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
	})

	engineLogger.Info().
		Str("evalID", evalID).
		Str("ticker", req.StablecoinTicker).
		Float64("frrs", frrs.Value).
		Float64("ohs", ohs.Value).
		Float64("trs", trs.Value).
		Bool("cacheHit", report.CacheHit).
		Dur("elapsed", completedAt.Sub(startedAt)).
		Msg("Risk evaluation complete")

	return types.EvalResponse{
		ID:               evalID,
		EvaluationTime:   completedAt,
		StablecoinTicker: req.StablecoinTicker,
		Provenance:       req.Provenance,
		RiskResult:       result,
		ProtocolVersion:  req.ProtocolVersion,
	}
}

func (e *Engine) fail(evalID string, req types.EvalRequest, startedAt time.Time, report extraction.Result, err error) types.EvalResponse {
	metrics.EvaluationsFailed.Inc()

	engineLogger.Error().
		Str("evalID", evalID).
		Str("ticker", req.StablecoinTicker).
		Err(err).
		Msg("Risk evaluation failed")

	e.persist(types.EvaluationSnapshot{
		EvalID:           evalID,
		StablecoinTicker: req.StablecoinTicker,
		SourceHash:       report.Document.Hash,
		CacheHit:         report.CacheHit,
		ErrStatus:        err.Error(),
		StartedAt:        startedAt,
		CompletedAt:      time.Now().UTC(),
	})

	return types.EvalResponse{
		ID:               evalID,
		ErrStatus:        err.Error(),
		EvaluationTime:   time.Now().UTC(),
		StablecoinTicker: req.StablecoinTicker,
		Provenance:       req.Provenance,
		ProtocolVersion:  req.ProtocolVersion,
	}
}

// persist saves the audit snapshot. Snapshot failures are logged, never
// propagated; the caller already has the evaluation result in hand.
func (e *Engine) persist(snapshot types.EvaluationSnapshot) {
	if e.saver == nil {
		return
	}
	if _, err := e.saver(snapshot); err != nil {
		engineLogger.Error().
			Str("evalID", snapshot.EvalID).
			Err(err).
			Msg("Failed to persist evaluation snapshot")
	}
}

// BuildCollectors constructs one on-chain collector per supported coin from
// the chain configuration.
func BuildCollectors(supportedCoins []string, chainConfig config.ChainConfig, market *datafetcher.MarketDataHTTPClient, pools *datafetcher.PoolServiceClient, params types.EngineParameters) (map[string]OnChainCollector, error) {
	collectors := make(map[string]OnChainCollector, len(supportedCoins))
	for _, coin := range supportedCoins {
		sources, err := datafetcher.BuildChainSources(coin, chainConfig, market, pools)
		if err != nil {
			return nil, err
		}
		collector, err := datafetcher.NewCollector(sources, market, params)
		if err != nil {
			return nil, err
		}
		collectors[coin] = collector
	}
	return collectors, nil
}
