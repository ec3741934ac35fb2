/*

This file contains the per-chain fetcher contracts and the wiring that turns
the chain configuration into concrete fetchers. Each supported chain exposes
three independent lookups (outstanding supply, top-holder concentration,
liquidity pools); the collector fans them out per evaluation.

*/

package datafetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/runfromrun/rfr/internal/amm"
	"github.com/runfromrun/rfr/internal/config"
)

// SupplyFetcher returns the outstanding token supply on one chain, already
// scaled by token decimals.
type SupplyFetcher interface {
	TotalSupply(ctx context.Context) (float64, error)
}

// HolderFetcher returns the top-holder share on one chain in percent. The
// bool is false when the chain has no holder data source; that is not an
// error, the chain is simply absent from the concentration map.
type HolderFetcher interface {
	TopHolderShare(ctx context.Context) (float64, bool, error)
}

// PoolFetcher returns the eligible liquidity pools for the coin on one
// chain, reduced to USD reserves and price.
type PoolFetcher interface {
	Pools(ctx context.Context) ([]amm.Pool, error)
}

// ChainSource bundles the three fetchers for one chain.
type ChainSource struct {
	Name    string
	Supply  SupplyFetcher
	Holders HolderFetcher
	Pools   PoolFetcher
}

const chainCallTimeout = 30 * time.Second

// BuildChainSources constructs one ChainSource per configured chain for the
// given coin. Holder and pool lookups go through the shared market data and
// pool service clients; supply lookups go straight to the chain's RPC
// endpoint.
func BuildChainSources(ticker string, chainConfig config.ChainConfig, market *MarketDataHTTPClient, pools *PoolServiceClient) ([]ChainSource, error) {
	coinChains, ok := chainConfig[ticker]
	if !ok {
		return nil, fmt.Errorf("no chain configuration for coin %s", ticker)
	}

	sources := make([]ChainSource, 0, len(coinChains))
	for chainName, entry := range coinChains {
		var supply SupplyFetcher
		switch entry.Type {
		case "evm":
			supply = NewEVMSupplyFetcher(entry.RPCEndpoint, entry.ContractAddress, entry.Decimals)
		default:
			return nil, fmt.Errorf("unsupported chain type %q for chain %s", entry.Type, chainName)
		}

		sources = append(sources, ChainSource{
			Name:    chainName,
			Supply:  supply,
			Holders: market.HolderFetcher(chainName, entry.ContractAddress),
			Pools:   pools.PoolFetcher(chainName, entry.ContractAddress),
		})
	}
	return sources, nil
}
