/*

This file contains the AMM slippage simulator. A stress-test sell is pushed
through an aggregate virtual pool under two swap-curve models: constant
product for diagnostics, and the StableSwap invariant for final scoring of
secondary market liquidity.

*/

package amm

import (
	"errors"
	"math"

	"github.com/runfromrun/rfr/internal/logger"
)

const (
	// AmplificationCoefficient is the fixed StableSwap A parameter.
	AmplificationCoefficient = 50.0

	// stableSwapTradeFraction is the share of total pool liquidity injected
	// when probing the StableSwap curve.
	stableSwapTradeFraction = 0.01

	// maxSolverIterations bounds the Newton-Raphson solver.
	maxSolverIterations = 255

	// solverTolerance stops the solver once successive iterates differ by
	// no more than one unit.
	solverTolerance = 1.0

	// WorstCaseSlippagePercent is reported when no usable market exists.
	WorstCaseSlippagePercent = 100.0
)

var (
	ErrInvalidTradeSize = errors.New("trade size must be positive and finite")
	ErrNoConvergence    = errors.New("stableswap solver did not converge")
)

var slippageLogger = logger.GetForComponent("slippage_simulator")

// Pool is one DEX liquidity pool holding the target stablecoin against a
// reference stablecoin, reduced to its USD reserve size and exchange price.
type Pool struct {
	ReserveUSD float64 `json:"reserve_usd"`
	PriceUSD   float64 `json:"price_usd"`
}

// Aggregate is the virtual one-pool view of a chain's eligible liquidity.
type Aggregate struct {
	TotalLiquidityUSD float64
	WeightedPriceUSD  float64
	EligiblePools     int
}

// AggregatePools folds a pool set into a single virtual pool: total
// liquidity is the reserve sum and the price is liquidity-weighted. Pools
// with missing or non-positive reserve or price data are skipped.
func AggregatePools(pools []Pool) Aggregate {
	var agg Aggregate
	var weightedPrice float64
	for _, p := range pools {
		if p.ReserveUSD <= 0 || p.PriceUSD <= 0 ||
			math.IsNaN(p.ReserveUSD) || math.IsInf(p.ReserveUSD, 0) ||
			math.IsNaN(p.PriceUSD) || math.IsInf(p.PriceUSD, 0) {
			continue
		}
		agg.TotalLiquidityUSD += p.ReserveUSD
		weightedPrice += p.ReserveUSD * p.PriceUSD
		agg.EligiblePools++
	}
	if agg.TotalLiquidityUSD > 0 {
		agg.WeightedPriceUSD = weightedPrice / agg.TotalLiquidityUSD
	}
	return agg
}

// ConstantProductSlippage estimates the percent price impact of selling
// sellSizeUSD of the target token into the aggregate pool under the x*y=k
// curve. The aggregate is treated as one virtual two-sided pool split 50/50
// by value. A chain with zero eligible liquidity reports 100% slippage.
func ConstantProductSlippage(pools []Pool, sellSizeUSD float64) (float64, error) {
	if sellSizeUSD <= 0 || math.IsNaN(sellSizeUSD) || math.IsInf(sellSizeUSD, 0) {
		return 0, ErrInvalidTradeSize
	}

	agg := AggregatePools(pools)
	if agg.TotalLiquidityUSD <= 0 {
		slippageLogger.Debug().Msg("No eligible liquidity, reporting worst-case slippage")
		return WorstCaseSlippagePercent, nil
	}

	// Invert to virtual reserves: the quote side holds half the value, the
	// base side holds the equivalent token amount at the aggregate price.
	y := agg.TotalLiquidityUSD / 2
	x := y / agg.WeightedPriceUSD

	out := y * sellSizeUSD / (x + sellSizeUSD)
	ideal := sellSizeUSD * agg.WeightedPriceUSD
	slippage := (ideal - out) / ideal * 100

	slippageLogger.Debug().
		Float64("totalLiquidityUSD", agg.TotalLiquidityUSD).
		Float64("weightedPriceUSD", agg.WeightedPriceUSD).
		Float64("sellSizeUSD", sellSizeUSD).
		Float64("outputUSD", out).
		Float64("slippagePercent", slippage).
		Msg("Constant-product slippage simulated")

	return slippage, nil
}

// StableSwapSlippage estimates percent price impact under the StableSwap
// invariant with a fixed amplification coefficient, probing the curve with
// a trade of 1% of total liquidity. This is the model the liquidity
// sub-score consumes. A chain with zero eligible liquidity reports 100%.
func StableSwapSlippage(pools []Pool) (float64, error) {
	agg := AggregatePools(pools)
	if agg.TotalLiquidityUSD <= 0 {
		slippageLogger.Debug().Msg("No eligible liquidity, reporting worst-case slippage")
		return WorstCaseSlippagePercent, nil
	}

	// Balanced initial virtual reserves; for two coins the invariant at
	// balance reduces to D = x0 + y0.
	x0 := agg.TotalLiquidityUSD / 2
	y0 := x0
	d := x0 + y0

	dx := stableSwapTradeFraction * agg.TotalLiquidityUSD
	xNew := x0 + dx

	yNew, iterations, err := solveY(xNew, d)
	if err != nil {
		return 0, err
	}

	out := y0 - yNew
	ideal := dx * agg.WeightedPriceUSD
	slippage := (ideal - out) / ideal * 100
	if slippage < 0 {
		slippage = 0
	}

	slippageLogger.Debug().
		Float64("totalLiquidityUSD", agg.TotalLiquidityUSD).
		Float64("tradeSizeUSD", dx).
		Float64("yNew", yNew).
		Int("solverIterations", iterations).
		Float64("slippagePercent", slippage).
		Msg("StableSwap slippage simulated")

	return slippage, nil
}

// solveY runs Newton-Raphson on the two-coin StableSwap invariant to find
// the counter-reserve after the trade: f(y) = y^2 + c - y(2y_prev + b - D)
// with Ann = 4A, c = D^3 / (4 * xNew * Ann), b = xNew + D/Ann. Iteration
// starts at y = D and stops once successive iterates differ by at most one
// unit.
func solveY(xNew, d float64) (float64, int, error) {
	ann := 4 * AmplificationCoefficient
	c := d * d * d / (4 * xNew * ann)
	b := xNew + d/ann

	y := d
	for i := 1; i <= maxSolverIterations; i++ {
		yPrev := y
		y = (y*y + c) / (2*y + b - d)
		if math.Abs(y-yPrev) <= solverTolerance {
			return y, i, nil
		}
	}
	return 0, maxSolverIterations, ErrNoConvergence
}
