/*

This file contains the extraction reconciler: it merges the independent
per-category dollar estimates produced by several models into one canonical
AssetTable with a conservative, self-correcting total.

*/

package reconcile

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

// ErrNoCandidates is returned when the candidate set is empty. Zero
// surviving candidates is a hard failure: extraction must be retried
// upstream, never silently zeroed into a table.
var ErrNoCandidates = errors.New("no candidate estimates to reconcile")

// ErrInvalidCandidate is returned when a candidate carries a non-finite vote.
var ErrInvalidCandidate = errors.New("candidate estimate contains non-finite value")

var reconcileLogger = logger.GetForComponent("reconciler")

// Reconcile merges the candidate estimates into a canonical AssetTable.
//
// Per category, only explicit votes count: a nil field means the model could
// not judge and must not be treated as zero, while an explicit 0 means
// "present with zero amount". The vote rule is deliberately conservative:
//   - 0 valid votes: the category reconciles to 0.
//   - exactly 1 valid vote: the category reconciles to 0. A single outlier
//     is not trusted enough to use directly.
//   - 2 or more valid votes: the lower median, sorted[(n-1)/2], which for an
//     even vote count selects the smaller of the two middle values.
//
// The canonical total is max(reconciled total vote, category sum): the total
// may never be reported smaller than the sum of its parts. The remainder
// becomes the correction entry.
//
// Reconcile is deterministic and idempotent for a fixed candidate slice.
func Reconcile(candidates []types.CandidateEstimate, cusipAppearance bool, sourceHash string, analyzedAt time.Time) (types.AssetTable, error) {
	if len(candidates) == 0 {
		reconcileLogger.Error().Str("sourceHash", sourceHash).Msg("Empty candidate set, reconciliation aborted")
		return types.AssetTable{}, ErrNoCandidates
	}

	table := types.NewAssetTable(cusipAppearance, sourceHash, analyzedAt)
	categories := table.Categories()

	var categorySum float64
	for i := range categories {
		votes := make([]float64, 0, len(candidates))
		for c := range candidates {
			vote := candidates[c].Amounts()[i]
			if vote == nil {
				continue
			}
			if math.IsNaN(*vote) || math.IsInf(*vote, 0) {
				return types.AssetTable{}, ErrInvalidCandidate
			}
			votes = append(votes, *vote)
		}

		amount := voteAmount(votes)
		reconcileLogger.Debug().
			Str("category", types.CategoryNames[i]).
			Int("validVotes", len(votes)).
			Floats64("votes", votes).
			Float64("reconciledAmount", amount).
			Msg("Category votes reconciled")

		categories[i].Amount = amount
		categorySum += amount
	}

	totalVotes := make([]float64, 0, len(candidates))
	for c := range candidates {
		if candidates[c].Total == nil {
			continue
		}
		if math.IsNaN(*candidates[c].Total) || math.IsInf(*candidates[c].Total, 0) {
			return types.AssetTable{}, ErrInvalidCandidate
		}
		totalVotes = append(totalVotes, *candidates[c].Total)
	}
	totalVote := voteAmount(totalVotes)

	// The total never under-reports its parts; any unattributed remainder
	// lands in the correction entry, which is non-negative by construction.
	table.Total.Amount = math.Max(totalVote, categorySum)
	table.CorrectionValue.Amount = table.Total.Amount - categorySum

	if table.Total.Amount > 0 {
		for _, a := range categories {
			a.Ratio = a.Amount / table.Total.Amount * 100
		}
		table.CorrectionValue.Ratio = table.CorrectionValue.Amount / table.Total.Amount * 100
		table.Total.Ratio = 100
	}

	reconcileLogger.Info().
		Str("sourceHash", sourceHash).
		Int("candidates", len(candidates)).
		Float64("categorySum", categorySum).
		Float64("totalAmount", table.Total.Amount).
		Float64("correctionAmount", table.CorrectionValue.Amount).
		Float64("correctionRatio", table.CorrectionValue.Ratio).
		Bool("cusipAppearance", cusipAppearance).
		Msg("Reconciliation completed")

	return table, nil
}

// voteAmount applies the conservative vote rule to one category's collected
// votes, including the single-vote zeroing and the downward-biased median.
func voteAmount(votes []float64) float64 {
	if len(votes) < 2 {
		return 0
	}
	sort.Float64s(votes)
	return votes[(len(votes)-1)/2]
}
