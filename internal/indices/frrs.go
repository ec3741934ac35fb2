/*

This file contains the Fiat Reserve Risk Score (FRRS) calculator: a
quality-weighted reserve composition score adjusted for disclosure
transparency and over-collateralization.

*/

package indices

import (
	"errors"
	"math"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

var (
	// ErrZeroSupply signals a zero outstanding supply, which would divide by
	// zero in the collateralization ratio. It is a fatal input error, never
	// silently handled.
	ErrZeroSupply = errors.New("outstanding supply is zero")

	ErrInvalidAssetTable = errors.New("invalid asset table")
)

var frrsLogger = logger.GetForComponent("frrs_calculator")

const (
	// Transparency adjustment: disclosing instrument codes earns full
	// weight, opaque reports are discounted.
	taScoreWithCusip    = 1.00
	taScoreWithoutCusip = 0.85
)

// CalculateFRRS computes the reserve risk score from the reconciled asset
// table and the outstanding supply across all chains.
//
// RQS is the ratio-weighted sum of category quality scores. The TA factor
// rewards CUSIP disclosure. The SA factor zeroes the score for
// under-collateralized reserves and grants a diminishing logarithmic bonus
// above full collateralization:
//
//	SA = 1.0 + 0.05 * ln((CR-1)*100 + 1)  for CR >= 1, else 0
//
// FRRS = min(100, 100 * RQS * TA * SA).
func CalculateFRRS(table *types.AssetTable, outstandingSupply float64, threshold types.Threshold) (types.Index, error) {
	if outstandingSupply == 0 {
		frrsLogger.Error().Str("sourceHash", table.SourceHash).Msg("Outstanding supply is zero, cannot compute collateralization ratio")
		return types.Index{}, ErrZeroSupply
	}
	if outstandingSupply < 0 || math.IsNaN(outstandingSupply) || math.IsInf(outstandingSupply, 0) {
		return types.Index{}, errors.Join(ErrInvalidAssetTable, errors.New("outstanding supply must be positive and finite"))
	}

	rqs, err := reserveQualityScore(table)
	if err != nil {
		return types.Index{}, err
	}

	taScore := taScoreWithoutCusip
	if table.CusipAppearance {
		taScore = taScoreWithCusip
	}

	collateralizationRatio := table.Total.Amount / outstandingSupply
	saScore := 0.0
	if collateralizationRatio >= 1 {
		saScore = 1.0 + 0.05*math.Log((collateralizationRatio-1)*100+1)
	}

	frrs := math.Min(100, 100*rqs*taScore*saScore)
	if math.IsNaN(frrs) || math.IsInf(frrs, 0) {
		return types.Index{}, errors.New("FRRS calculation resulted in non-finite value")
	}

	frrsLogger.Info().
		Float64("RQS", rqs).
		Float64("TAScore", taScore).
		Float64("collateralizationRatio", collateralizationRatio).
		Float64("SAScore", saScore).
		Float64("FRRS", frrs).
		Msg("FRRS calculated")

	return types.Index{
		Name:        "FRRS",
		Value:       frrs,
		Threshold:   threshold,
		Description: "Fiat reserve risk: reserve quality, transparency, and over-collateralization",
	}, nil
}

// reserveQualityScore sums ratio * quality over the 13 categories. The
// correction entry and the total carry zero quality and are excluded.
func reserveQualityScore(table *types.AssetTable) (float64, error) {
	var rqs float64
	for i, a := range table.Categories() {
		if math.IsNaN(a.Ratio) || math.IsInf(a.Ratio, 0) {
			return 0, errors.Join(ErrInvalidAssetTable, errors.New("category ratio is not finite: "+types.CategoryNames[i]))
		}
		rqs += a.Ratio * a.QLSScore
	}
	return rqs, nil
}
