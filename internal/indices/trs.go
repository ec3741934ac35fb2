/*

This file contains the Total Risk Score (TRS) calculator: a time-decaying
blend of the reserve score and the on-chain health score. Freshly attested
reserves dominate trust initially; as the attestation ages, live on-chain
signals take over entirely by day 180.

*/

package indices

import (
	"errors"
	"math"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

var ErrInvalidReportAge = errors.New("report age must be finite")

var trsLogger = logger.GetForComponent("trs_calculator")

// OfflineWeight returns the FRRS blend weight for a reserve document
// analyzed reportAgeDays ago. The schedule decays linearly in two segments
// and is continuous at the boundaries: 0.7 at day 0, 0.5 at day 30, 0 at
// day 180 and beyond. Negative ages are treated as 0.
func OfflineWeight(reportAgeDays float64) float64 {
	t := math.Max(0, reportAgeDays)
	switch {
	case t <= 30:
		return 0.7 - t/150
	case t <= 180:
		return 0.5 - (t-30)/300
	default:
		return 0
	}
}

// CalculateTRS blends FRRS and OHS with the age-dependent offline weight:
// TRS = W*FRRS + (1-W)*OHS.
func CalculateTRS(frrs, ohs types.Index, reportAgeDays float64, threshold types.Threshold) (types.Index, error) {
	if math.IsNaN(reportAgeDays) || math.IsInf(reportAgeDays, 0) {
		return types.Index{}, ErrInvalidReportAge
	}

	weight := OfflineWeight(reportAgeDays)
	trs := weight*frrs.Value + (1-weight)*ohs.Value
	if math.IsNaN(trs) || math.IsInf(trs, 0) {
		return types.Index{}, errors.New("TRS calculation resulted in non-finite value")
	}

	trsLogger.Info().
		Float64("reportAgeDays", reportAgeDays).
		Float64("offlineWeight", weight).
		Float64("FRRS", frrs.Value).
		Float64("OHS", ohs.Value).
		Float64("TRS", trs).
		Msg("TRS calculated")

	return types.Index{
		Name:        "TRS",
		Value:       trs,
		Threshold:   threshold,
		Description: "Total risk: report-age-weighted blend of reserve and on-chain health scores",
	}, nil
}
