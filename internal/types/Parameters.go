/*

This file contains the tunable engine parameters for one evaluation run.
They are constructed once at startup and passed by reference into the
pipeline and calculators so the scoring functions stay pure and testable.

*/

package types

import "time"

// EngineParameters holds the evaluation policy knobs.
type EngineParameters struct {
	// StressSupplyFraction is the share of total cross-chain supply sold in
	// the stress-test swap (e.g., 0.0001 for 0.01%).
	StressSupplyFraction float64 `json:"stress_supply_fraction"`

	// MarketWindowDays is the trailing daily market window requested for
	// supply anomaly detection.
	MarketWindowDays int `json:"market_window_days"`

	// ModelCallTimeout bounds each individual reserve-estimator call. A
	// call that times out is dropped from the candidate set rather than
	// aborting reconciliation.
	ModelCallTimeout time.Duration `json:"model_call_timeout"`

	// DocumentFetchTimeout bounds the attestation document download.
	DocumentFetchTimeout time.Duration `json:"document_fetch_timeout"`
}
