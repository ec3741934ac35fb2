package types

import "time"

// EvaluationSnapshot is the persisted audit record of one evaluation run,
// stored by the state package and served by the web API history endpoint.
type EvaluationSnapshot struct {
	SnapshotID       int64     `json:"snapshot_id"`
	EvalID           string    `json:"eval_id"`
	StablecoinTicker string    `json:"stablecoin_ticker"`
	SourceHash       string    `json:"source_hash"`
	CacheHit         bool      `json:"cache_hit"`
	FRRS             float64   `json:"frrs"`
	OHS              float64   `json:"ohs"`
	TRS              float64   `json:"trs"`
	Narrative        string    `json:"narrative"`
	ErrStatus        string    `json:"err_status,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}
