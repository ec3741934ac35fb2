// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/runfromrun/rfr/internal/types"
)

// SaveEvaluationSnapshot saves the audit record of one evaluation run.
func SaveEvaluationSnapshot(snapshot types.EvaluationSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO evaluation_snapshots (
			eval_id, stablecoin_ticker, source_hash, cache_hit,
			frrs, ohs, trs, narrative, err_status,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err := DB.QueryRow(
		query,
		snapshot.EvalID, snapshot.StablecoinTicker, snapshot.SourceHash, snapshot.CacheHit,
		snapshot.FRRS, snapshot.OHS, snapshot.TRS, snapshot.Narrative, nullableString(snapshot.ErrStatus),
		snapshot.StartedAt, snapshot.CompletedAt,
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save evaluation snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Str("eval_id", snapshot.EvalID).
		Str("ticker", snapshot.StablecoinTicker).
		Float64("trs", snapshot.TRS).
		Msg("Evaluation snapshot saved to database")

	return snapshotID, nil
}

// GetRecentEvaluations returns the most recent evaluation snapshots, newest
// first. A ticker narrows the history to one coin; an empty ticker returns
// all coins.
func GetRecentEvaluations(ticker string, limit int) ([]types.EvaluationSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT snapshot_id, eval_id, stablecoin_ticker, source_hash, cache_hit,
		       COALESCE(frrs, 0), COALESCE(ohs, 0), COALESCE(trs, 0),
		       COALESCE(narrative, ''), COALESCE(err_status, ''),
		       started_at, completed_at
		FROM evaluation_snapshots
		WHERE ($1 = '' OR stablecoin_ticker = $1)
		ORDER BY completed_at DESC
		LIMIT $2;
	`

	rows, err := DB.Query(query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.EvaluationSnapshot
	for rows.Next() {
		var s types.EvaluationSnapshot
		if err := rows.Scan(
			&s.SnapshotID, &s.EvalID, &s.StablecoinTicker, &s.SourceHash, &s.CacheHit,
			&s.FRRS, &s.OHS, &s.TRS, &s.Narrative, &s.ErrStatus,
			&s.StartedAt, &s.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluation snapshots: %w", err)
	}

	return snapshots, nil
}

// nullableString maps an empty string to SQL NULL so a clean run does not
// persist an empty error status.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
