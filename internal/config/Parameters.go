/*

This file contains the default engine parameters and index thresholds.

These defaults trade responsiveness for conservatism: the stress-test size
and alert boundaries were chosen so that a healthy, fully-backed stablecoin
sits comfortably above every threshold, while thin liquidity or a stale,
under-collateralized attestation degrades visibly.

*/

package config

import (
	"time"

	"github.com/runfromrun/rfr/internal/types"
)

// DefaultEngineParameters provides the baseline evaluation policy.
var DefaultEngineParameters = types.EngineParameters{
	// Sell 0.01% of the outstanding cross-chain supply in the stress test.
	// Large enough to move thin pools, small enough to stay realistic for
	// an actual redemption wave's first minutes.
	StressSupplyFraction: 0.0001,

	// 91 daily samples give the anomaly detector a full quarter of history.
	MarketWindowDays: 91,

	// Individual model calls that exceed this are dropped from the vote.
	ModelCallTimeout: 120 * time.Second,

	DocumentFetchTimeout: 60 * time.Second,
}

// DefaultThresholds provides the alert boundaries for the three indices.
// TRS carries a caution band: below Lower is high risk, between Lower and
// Upper is caution, above Upper is stable.
var DefaultThresholds = types.IndexThresholds{
	FRRS: types.Threshold{Lower: 70},
	OHS:  types.Threshold{Lower: 60},
	TRS:  types.Threshold{Lower: 40, Upper: 70},
}
