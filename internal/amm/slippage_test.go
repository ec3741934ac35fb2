package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatePools_SkipsUnusablePools(t *testing.T) {
	pools := []Pool{
		{ReserveUSD: 1_000_000, PriceUSD: 1.0},
		{ReserveUSD: 0, PriceUSD: 1.0},
		{ReserveUSD: -500, PriceUSD: 1.0},
		{ReserveUSD: 2_000_000, PriceUSD: 0},
		{ReserveUSD: math.NaN(), PriceUSD: 1.0},
		{ReserveUSD: 3_000_000, PriceUSD: math.Inf(1)},
		{ReserveUSD: 4_000_000, PriceUSD: 0.998},
	}

	agg := AggregatePools(pools)
	assert.Equal(t, 2, agg.EligiblePools)
	assert.Equal(t, 5_000_000.0, agg.TotalLiquidityUSD)
	assert.InDelta(t, (1_000_000*1.0+4_000_000*0.998)/5_000_000, agg.WeightedPriceUSD, 1e-12)
}

func TestAggregatePools_Empty(t *testing.T) {
	agg := AggregatePools(nil)
	assert.Zero(t, agg.TotalLiquidityUSD)
	assert.Zero(t, agg.WeightedPriceUSD)
	assert.Zero(t, agg.EligiblePools)
}

func TestConstantProductSlippage_RejectsBadTradeSize(t *testing.T) {
	pools := []Pool{{ReserveUSD: 1_000_000, PriceUSD: 1.0}}
	for _, size := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := ConstantProductSlippage(pools, size)
		require.ErrorIs(t, err, ErrInvalidTradeSize)
	}
}

func TestConstantProductSlippage_NoLiquidityIsWorstCase(t *testing.T) {
	s, err := ConstantProductSlippage(nil, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, WorstCaseSlippagePercent, s)
}

func TestConstantProductSlippage_MonotonicInTradeSize(t *testing.T) {
	pools := []Pool{{ReserveUSD: 10_000_000, PriceUSD: 1.0}}

	var prev float64
	for _, size := range []float64{10_000, 100_000, 1_000_000, 5_000_000} {
		s, err := ConstantProductSlippage(pools, size)
		require.NoError(t, err)
		assert.Greater(t, s, prev, "slippage must grow with trade size")
		assert.Less(t, s, 100.0)
		prev = s
	}
}

func TestConstantProductSlippage_KnownValue(t *testing.T) {
	// One pool, $10M at par: virtual reserves x = y = $5M. Selling $1M yields
	// 5M*1M/6M out, so slippage = 1 - (5/6) = 16.666..%.
	pools := []Pool{{ReserveUSD: 10_000_000, PriceUSD: 1.0}}
	s, err := ConstantProductSlippage(pools, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/6.0, s, 1e-9)
}

func TestStableSwapSlippage_NoLiquidityIsWorstCase(t *testing.T) {
	s, err := StableSwapSlippage([]Pool{{ReserveUSD: -1, PriceUSD: 1}})
	require.NoError(t, err)
	assert.Equal(t, WorstCaseSlippagePercent, s)
}

func TestStableSwapSlippage_ConvergesForRealisticPools(t *testing.T) {
	for _, liquidity := range []float64{50_000, 1_000_000, 250_000_000, 8_000_000_000} {
		pools := []Pool{{ReserveUSD: liquidity, PriceUSD: 1.0}}
		s, err := StableSwapSlippage(pools)
		require.NoError(t, err, "liquidity %.0f", liquidity)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.Less(t, s, 1.0, "a 1%% probe on a balanced amplified pool stays well under 1%% slippage")
	}
}

func TestStableSwapSlippage_FlatterThanConstantProduct(t *testing.T) {
	pools := []Pool{{ReserveUSD: 100_000_000, PriceUSD: 1.0}}

	ss, err := StableSwapSlippage(pools)
	require.NoError(t, err)

	probe := stableSwapTradeFraction * 100_000_000
	cp, err := ConstantProductSlippage(pools, probe)
	require.NoError(t, err)

	assert.Less(t, ss, cp, "the amplified curve must beat x*y=k on the same trade")
}

func TestStableSwapSlippage_OffPegPriceRaisesSlippage(t *testing.T) {
	atPar := []Pool{{ReserveUSD: 10_000_000, PriceUSD: 1.0}}
	offPeg := []Pool{{ReserveUSD: 10_000_000, PriceUSD: 0.95}}

	sPar, err := StableSwapSlippage(atPar)
	require.NoError(t, err)
	sOff, err := StableSwapSlippage(offPeg)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sPar, sOff,
		"a discounted aggregate price shrinks the ideal output and with it the shortfall")
}
