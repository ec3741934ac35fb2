/*

This file contains the threshold check that turns the three computed indices
into a human-readable narrative. The TRS verdict leads, followed by the
per-subindex verdicts; when TRS itself is stable but a subindex breached its
threshold, the narrative says so explicitly.

*/

package summary

import (
	"strings"

	"github.com/runfromrun/rfr/internal/types"
)

const (
	frrsWarning = "[Warning] The value of FRRS is unusual. This indicates that the issuer's asset management practices pose significant risks."
	frrsStable  = "The FRRS value is stable. The issuer's asset management method is judged to be relatively risk-free."

	ohsWarning = "[Warning] The value of OHS is unusual. The chain on which the stablecoin is issued may be experiencing liquidity shortages or a decline in net issuance, potentially leading to a contraction."
	ohsStable  = "The OHS value is stable. It seems that the on-chain integrity is currently secured."

	trsSevere   = "[Warning] The TRS value is severely low!! Strongly recommended to quickly identify risks and make decisions."
	trsCaution  = "[Warning] The TRS value is unusual. Potential risks have been identified for the stablecoin in question."
	trsStable   = "The TRS value is stable. The potential risk of stablecoins is considered to be minimal."
	trsSubIndex = "However, values that imply potential risks were found among the subvariables of the TRS."
)

// BuildNarrative renders the threshold verdicts for one evaluation.
func BuildNarrative(indices types.Indices) string {
	frrsBreached := indices.FRRS.Threshold.Breached(indices.FRRS.Value)
	ohsBreached := indices.OHS.Threshold.Breached(indices.OHS.Value)

	frrsVerdict := frrsStable
	if frrsBreached {
		frrsVerdict = frrsWarning
	}
	ohsVerdict := ohsStable
	if ohsBreached {
		ohsVerdict = ohsWarning
	}

	lines := make([]string, 0, 4)
	switch {
	case indices.TRS.Threshold.Breached(indices.TRS.Value):
		lines = append(lines, trsSevere)
	case indices.TRS.Threshold.InCautionBand(indices.TRS.Value):
		lines = append(lines, trsCaution)
	default:
		lines = append(lines, trsStable)
		if frrsBreached || ohsBreached {
			lines = append(lines, trsSubIndex)
		}
	}
	lines = append(lines, frrsVerdict, ohsVerdict)

	return strings.Join(lines, "\n")
}
