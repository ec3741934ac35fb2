package types

// Threshold is the alert boundary of an index. Values below Lower are
// considered risky; indices with a caution band also set Upper.
type Threshold struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper,omitempty"`
}

// Breached reports whether the value is below the warning boundary.
func (t Threshold) Breached(value float64) bool {
	return value < t.Lower
}

// InCautionBand reports whether the value clears the warning boundary but
// sits inside the caution band. Indices without an Upper bound never report
// caution.
func (t Threshold) InCautionBand(value float64) bool {
	return t.Upper > 0 && value >= t.Lower && value < t.Upper
}

// Index is one computed risk index on the 0-100 scale. Values are derived
// once and never mutated afterwards.
type Index struct {
	Name        string    `json:"name"`
	Value       float64   `json:"value"`
	Threshold   Threshold `json:"threshold"`
	Description string    `json:"description,omitempty"`
}

// IndexThresholds carries the alert boundaries for the three indices.
type IndexThresholds struct {
	FRRS Threshold `json:"frrs"`
	OHS  Threshold `json:"ohs"`
	TRS  Threshold `json:"trs"`
}

// Indices bundles exactly the three indices one evaluation produces.
type Indices struct {
	FRRS Index `json:"frrs"`
	OHS  Index `json:"ohs"`
	TRS  Index `json:"trs"`
}

// CoinData is the full evaluated view of one stablecoin: the reconciled
// reserve table and the on-chain market data it was scored against.
type CoinData struct {
	StablecoinTicker string      `json:"stablecoin_ticker"`
	AssetTable       AssetTable  `json:"asset_table"`
	OnChainData      OnChainData `json:"onchain_data"`
}

// RiskResult is the terminal artifact of one evaluation. It is immutable
// once built and is returned to the caller and optionally cached.
type RiskResult struct {
	CoinData  CoinData `json:"coin_data"`
	Indices   Indices  `json:"indices"`
	Narrative string   `json:"narrative"`
}
