package datafetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runfromrun/rfr/internal/amm"
	"github.com/runfromrun/rfr/internal/types"
)

type fakeSupply struct {
	supply float64
	err    error
}

func (f fakeSupply) TotalSupply(_ context.Context) (float64, error) { return f.supply, f.err }

type fakeHolders struct {
	share float64
	ok    bool
	err   error
}

func (f fakeHolders) TopHolderShare(_ context.Context) (float64, bool, error) {
	return f.share, f.ok, f.err
}

type fakePools struct {
	pools []amm.Pool
	err   error
}

func (f fakePools) Pools(_ context.Context) ([]amm.Pool, error) { return f.pools, f.err }

type fakeMarket struct {
	series []types.MarketSample
	err    error
}

func (f fakeMarket) MarketSeries(_ context.Context, _ string, _ int) ([]types.MarketSample, error) {
	return f.series, f.err
}

func testParams() types.EngineParameters {
	return types.EngineParameters{
		StressSupplyFraction: 0.0001,
		MarketWindowDays:     91,
	}
}

func sampleSeries(n int) []types.MarketSample {
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

func TestNewCollector_RequiresChainsAndMarket(t *testing.T) {
	_, err := NewCollector(nil, fakeMarket{}, testParams())
	require.ErrorIs(t, err, ErrNoChainSources)

	chains := []ChainSource{{Name: "ethereum", Supply: fakeSupply{}, Holders: fakeHolders{}, Pools: fakePools{}}}
	_, err = NewCollector(chains, nil, testParams())
	require.Error(t, err)
}

func TestCollect_JoinsAllChains(t *testing.T) {
	chains := []ChainSource{
		{
			Name:    "ethereum",
			Supply:  fakeSupply{supply: 40_000_000_000},
			Holders: fakeHolders{share: 25, ok: true},
			Pools:   fakePools{pools: []amm.Pool{{ReserveUSD: 500_000_000, PriceUSD: 1.0}}},
		},
		{
			Name:    "base",
			Supply:  fakeSupply{supply: 4_000_000_000},
			Holders: fakeHolders{share: 55, ok: true},
			Pools:   fakePools{pools: []amm.Pool{{ReserveUSD: 50_000_000, PriceUSD: 0.999}}},
		},
	}

	c, err := NewCollector(chains, fakeMarket{series: sampleSeries(91)}, testParams())
	require.NoError(t, err)

	data, err := c.Collect(context.Background(), "USDC")
	require.NoError(t, err)

	assert.Equal(t, 44_000_000_000.0, data.OutstandingSupply())
	assert.Len(t, data.MarketSeries, 91)
	assert.Equal(t, map[string]float64{"ethereum": 25, "base": 55}, data.HolderConcentration)

	require.Contains(t, data.SlippageByChain, "ethereum")
	require.Contains(t, data.SlippageByChain, "base")
	assert.Less(t, data.SlippageByChain["ethereum"], amm.WorstCaseSlippagePercent)
}

func TestCollect_SupplyFailureIsFatal(t *testing.T) {
	chains := []ChainSource{{
		Name:    "ethereum",
		Supply:  fakeSupply{err: errors.New("rpc timeout")},
		Holders: fakeHolders{share: 25, ok: true},
		Pools:   fakePools{},
	}}

	c, err := NewCollector(chains, fakeMarket{series: sampleSeries(91)}, testParams())
	require.NoError(t, err)

	_, err = c.Collect(context.Background(), "USDC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ethereum")
}

func TestCollect_MarketSeriesFailureIsFatal(t *testing.T) {
	chains := []ChainSource{{
		Name:    "ethereum",
		Supply:  fakeSupply{supply: 1_000_000},
		Holders: fakeHolders{share: 25, ok: true},
		Pools:   fakePools{},
	}}

	c, err := NewCollector(chains, fakeMarket{err: errors.New("provider down")}, testParams())
	require.NoError(t, err)

	_, err = c.Collect(context.Background(), "USDC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market series")
}

func TestCollect_HolderFailuresAreTolerated(t *testing.T) {
	chains := []ChainSource{
		{
			Name:    "ethereum",
			Supply:  fakeSupply{supply: 1_000_000},
			Holders: fakeHolders{err: errors.New("info endpoint 500")},
			Pools:   fakePools{pools: []amm.Pool{{ReserveUSD: 1_000_000, PriceUSD: 1.0}}},
		},
		{
			Name:    "base",
			Supply:  fakeSupply{supply: 2_000_000},
			Holders: fakeHolders{ok: false}, // provider does not track the chain
			Pools:   fakePools{pools: []amm.Pool{{ReserveUSD: 1_000_000, PriceUSD: 1.0}}},
		},
	}

	c, err := NewCollector(chains, fakeMarket{series: sampleSeries(91)}, testParams())
	require.NoError(t, err)

	data, err := c.Collect(context.Background(), "USDC")
	require.NoError(t, err)
	assert.Empty(t, data.HolderConcentration)
	assert.Equal(t, 3_000_000.0, data.OutstandingSupply())
}

func TestCollect_PoolFailureScoresWorstCase(t *testing.T) {
	chains := []ChainSource{{
		Name:    "ethereum",
		Supply:  fakeSupply{supply: 1_000_000},
		Holders: fakeHolders{share: 25, ok: true},
		Pools:   fakePools{err: errors.New("pool service down")},
	}}

	c, err := NewCollector(chains, fakeMarket{series: sampleSeries(91)}, testParams())
	require.NoError(t, err)

	data, err := c.Collect(context.Background(), "USDC")
	require.NoError(t, err)
	assert.Equal(t, amm.WorstCaseSlippagePercent, data.SlippageByChain["ethereum"])
}

func TestCollect_ChainWithoutPoolsScoresWorstCase(t *testing.T) {
	chains := []ChainSource{{
		Name:    "ethereum",
		Supply:  fakeSupply{supply: 1_000_000},
		Holders: fakeHolders{share: 25, ok: true},
		Pools:   fakePools{pools: nil},
	}}

	c, err := NewCollector(chains, fakeMarket{series: sampleSeries(91)}, testParams())
	require.NoError(t, err)

	data, err := c.Collect(context.Background(), "USDC")
	require.NoError(t, err)
	assert.Equal(t, amm.WorstCaseSlippagePercent, data.SlippageByChain["ethereum"])
}
