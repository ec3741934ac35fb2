/*

This file contains the On-Chain Health Score (OHS) calculator and its three
sub-scores: primary market confidence (supply-shock anomaly detection),
holder concentration risk, and secondary market liquidity.

*/

package indices

import (
	"errors"
	"math"
	"sort"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

var (
	ErrInsufficientMarketData = errors.New("insufficient market samples for supply anomaly detection")
	ErrInvalidMarketSample    = errors.New("market sample has non-positive price or market cap")
	ErrNoHolderData           = errors.New("no chain provides holder concentration data")
	ErrNoSupplyData           = errors.New("no per-chain supply data")
)

var ohsLogger = logger.GetForComponent("ohs_calculator")

const (
	// MinMarketWindowSamples is the smallest trailing window the supply
	// anomaly detector accepts.
	MinMarketWindowSamples = 91

	pmcsWeight = 0.5
	hcrWeight  = 0.3
	smlsWeight = 0.2
)

// CalculateOHS blends the three on-chain sub-scores into one index:
// OHS = 0.5*PMCS + 0.3*HCR + 0.2*SMLS. Sub-scores are clamped into [0,100]
// before blending so the index value stays bounded.
func CalculateOHS(data *types.OnChainData, threshold types.Threshold) (types.Index, error) {
	pmcs, err := CalculatePMCS(data.MarketSeries)
	if err != nil {
		return types.Index{}, errors.Join(errors.New("PMCS calculation failed"), err)
	}

	hcr, err := CalculateHCR(data.SupplyByChain, data.HolderConcentration)
	if err != nil {
		return types.Index{}, errors.Join(errors.New("HCR calculation failed"), err)
	}

	smls, err := CalculateSMLS(data.SupplyByChain, data.SlippageByChain)
	if err != nil {
		return types.Index{}, errors.Join(errors.New("SMLS calculation failed"), err)
	}

	ohs := pmcsWeight*clamp(pmcs, 0, 100) + hcrWeight*clamp(hcr, 0, 100) + smlsWeight*clamp(smls, 0, 100)

	ohsLogger.Info().
		Float64("PMCS", pmcs).
		Float64("HCR", hcr).
		Float64("SMLS", smls).
		Float64("OHS", ohs).
		Msg("OHS calculated")

	return types.Index{
		Name:        "OHS",
		Value:       ohs,
		Threshold:   threshold,
		Description: "On-chain health: primary market confidence, holder concentration, and secondary market liquidity",
	}, nil
}

// CalculatePMCS scores primary market confidence by z-scoring the latest
// day-over-day change of the effective supply series (market cap / price)
// against the trailing window. Only downside supply shocks are penalized:
//
//	Z >= 0 -> 100, else max(0, 100 - 8*|Z|^1.32)
//
// The window must hold at least MinMarketWindowSamples samples.
func CalculatePMCS(series []types.MarketSample) (float64, error) {
	if len(series) < MinMarketWindowSamples {
		ohsLogger.Error().
			Int("samples", len(series)).
			Int("required", MinMarketWindowSamples).
			Msg("Market window too short for anomaly detection")
		return 0, ErrInsufficientMarketData
	}

	ordered := make([]types.MarketSample, len(series))
	copy(ordered, series)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	supplies := make([]float64, len(ordered))
	for i, s := range ordered {
		if s.PriceUSD <= 0 || s.MarketCapUSD <= 0 ||
			math.IsNaN(s.PriceUSD) || math.IsInf(s.PriceUSD, 0) ||
			math.IsNaN(s.MarketCapUSD) || math.IsInf(s.MarketCapUSD, 0) {
			return 0, ErrInvalidMarketSample
		}
		supplies[i] = s.MarketCapUSD / s.PriceUSD
	}

	changes := make([]float64, len(supplies)-1)
	for i := 1; i < len(supplies); i++ {
		changes[i-1] = supplies[i]/supplies[i-1] - 1
	}

	mean := 0.0
	for _, r := range changes {
		mean += r
	}
	mean /= float64(len(changes))

	var sumSqDiff float64
	for _, r := range changes {
		sumSqDiff += (r - mean) * (r - mean)
	}
	// Sample standard deviation (N-1).
	stdDev := math.Sqrt(sumSqDiff / float64(len(changes)-1))

	last := changes[len(changes)-1]
	z := 0.0
	if stdDev > 0 {
		z = (last - mean) / stdDev
	}

	pmcs := 100.0
	if z < 0 {
		pmcs = math.Max(0, 100-8*math.Pow(math.Abs(z), 1.32))
	}

	ohsLogger.Debug().
		Int("samples", len(series)).
		Float64("lastChange", last).
		Float64("mean", mean).
		Float64("stdDev", stdDev).
		Float64("zScore", z).
		Float64("PMCS", pmcs).
		Msg("PMCS calculated")

	return pmcs, nil
}

// CalculateHCR scores holder concentration risk. Chains lacking holder data
// are excluded from both the numerator and the denominator of the supply
// weighting. The piecewise mapping steepens as the weighted top-50
// concentration grows and may go negative at extreme concentration; callers
// needing a bounded output clamp the result.
func CalculateHCR(supplyByChain, holderConcentration map[string]float64) (float64, error) {
	if len(supplyByChain) == 0 {
		return 0, ErrNoSupplyData
	}

	var coveredSupply float64
	for chain, supply := range supplyByChain {
		if _, ok := holderConcentration[chain]; ok {
			coveredSupply += supply
		}
	}
	if coveredSupply <= 0 {
		ohsLogger.Error().Msg("No holder concentration data on any supplied chain")
		return 0, ErrNoHolderData
	}

	var weighted float64
	for chain, supply := range supplyByChain {
		c50, ok := holderConcentration[chain]
		if !ok {
			continue
		}
		if c50 < 0 || math.IsNaN(c50) || math.IsInf(c50, 0) {
			return 0, errors.New("holder concentration must be non-negative and finite: " + chain)
		}
		weighted += c50 * (supply / coveredSupply)
	}

	var score float64
	switch {
	case weighted <= 30:
		score = 100 - weighted/1.5
	case weighted <= 60:
		score = 80 - (weighted-30)/1.5
	default:
		score = 60 - (weighted-60)*1.5
	}

	ohsLogger.Debug().
		Float64("weightedConcentration", weighted).
		Float64("coveredSupply", coveredSupply).
		Float64("HCR", score).
		Msg("HCR calculated")

	return score, nil
}

// CalculateSMLS scores secondary market liquidity from the supply-weighted
// StableSwap slippage across chains. A chain absent from the slippage map
// had no eligible pool and is assigned worst-case 100% slippage.
func CalculateSMLS(supplyByChain, slippageByChain map[string]float64) (float64, error) {
	if len(supplyByChain) == 0 {
		return 0, ErrNoSupplyData
	}

	var totalSupply float64
	for _, supply := range supplyByChain {
		totalSupply += supply
	}
	if totalSupply <= 0 {
		return 0, ErrNoSupplyData
	}

	var weightedSlippage float64
	for chain, supply := range supplyByChain {
		slippage, ok := slippageByChain[chain]
		if !ok {
			slippage = 100
		}
		if slippage < 0 || math.IsNaN(slippage) || math.IsInf(slippage, 0) {
			return 0, errors.New("slippage must be non-negative and finite: " + chain)
		}
		weightedSlippage += slippage * (supply / totalSupply)
	}

	score := slippageScore(weightedSlippage)

	ohsLogger.Debug().
		Float64("weightedSlippagePercent", weightedSlippage).
		Float64("SMLS", score).
		Msg("SMLS calculated")

	return score, nil
}

// slippageScore maps a slippage percentage onto the 0-100 liquidity scale.
// Up to 0.5% the score degrades gently from the 0.2% pivot; beyond 0.5% it
// falls steeply toward zero at 2.5%.
func slippageScore(slippagePercent float64) float64 {
	if slippagePercent <= 0.5 {
		return clamp(100-(slippagePercent-0.2)/(0.5-0.2)*20, 0, 100)
	}
	return clamp(80-(slippagePercent-0.5)/(2.5-0.5)*80, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
