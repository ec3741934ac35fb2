/*

This is a custom type for on-chain market data which contains all the state
needed for the on-chain health calculators. It is rebuilt per evaluation and
never cached.

*/

package types

import "time"

// MarketSample is one daily observation of the coin's aggregate market.
// Effective supply is derived as MarketCapUSD / PriceUSD.
type MarketSample struct {
	Timestamp    time.Time `json:"timestamp"`
	MarketCapUSD float64   `json:"market_cap_usd"`
	PriceUSD     float64   `json:"price_usd"`
}

// OnChainData bundles everything the on-chain health score needs for one
// evaluation: outstanding supply per chain, the trailing market series, the
// per-chain top-holder concentration where available, and the simulated
// StableSwap slippage per chain at the stress-test size.
type OnChainData struct {
	// SupplyByChain maps chain name to outstanding token supply.
	SupplyByChain map[string]float64 `json:"supply_by_chain"`
	// MarketSeries is the trailing daily (market cap, price) window.
	MarketSeries []MarketSample `json:"market_series"`
	// HolderConcentration maps chain name to the top-50 holder share in
	// percent. Chains without holder data are simply absent.
	HolderConcentration map[string]float64 `json:"holder_concentration"`
	// SlippageByChain maps chain name to the simulated StableSwap slippage
	// in percent. A chain with no eligible liquidity pool carries 100.
	SlippageByChain map[string]float64 `json:"slippage_by_chain"`
}

// OutstandingSupply returns the total supply across all chains.
func (d *OnChainData) OutstandingSupply() float64 {
	var total float64
	for _, supply := range d.SupplyByChain {
		total += supply
	}
	return total
}
