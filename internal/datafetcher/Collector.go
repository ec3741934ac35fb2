/*

This file contains the on-chain data collector. All chain-supply, holder,
and pool lookups for one evaluation are independent per chain, so the
collector fans them out concurrently and joins the results into one
OnChainData value. Both health calculators block on the full join.

*/

package datafetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/runfromrun/rfr/internal/amm"
	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

var collectorLogger = logger.GetForComponent("onchain_collector")

var ErrNoChainSources = errors.New("no chain sources configured")

// Collector gathers everything the on-chain health score consumes.
type Collector struct {
	chains []ChainSource
	market MarketDataClient
	params types.EngineParameters
}

func NewCollector(chains []ChainSource, market MarketDataClient, params types.EngineParameters) (*Collector, error) {
	if len(chains) == 0 {
		return nil, ErrNoChainSources
	}
	if market == nil {
		return nil, errors.New("collector requires a market data client")
	}
	return &Collector{chains: chains, market: market, params: params}, nil
}

// Collect fans out the market series lookup plus, per chain, the supply,
// holder, and pool lookups; the joined result feeds PMCS, HCR, and SMLS.
// A failed supply lookup fails the whole collection: SMLS and HCR weight
// their chains by supply, so a missing chain would silently skew both. A
// failed holder lookup only drops the chain from the concentration map, and
// a failed pool lookup scores the chain at worst-case slippage.
func (c *Collector) Collect(ctx context.Context, ticker string) (types.OnChainData, error) {
	var (
		mu   sync.Mutex
		data = types.OnChainData{
			SupplyByChain:       make(map[string]float64, len(c.chains)),
			HolderConcentration: make(map[string]float64, len(c.chains)),
			SlippageByChain:     make(map[string]float64, len(c.chains)),
		}
		poolsByChain = make(map[string][]amm.Pool, len(c.chains))
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		series, err := c.market.MarketSeries(gctx, ticker, c.params.MarketWindowDays)
		if err != nil {
			return fmt.Errorf("market series lookup failed: %w", err)
		}
		mu.Lock()
		data.MarketSeries = series
		mu.Unlock()
		return nil
	})

	for _, chain := range c.chains {
		chain := chain
		g.Go(func() error {
			supply, err := chain.Supply.TotalSupply(gctx)
			if err != nil {
				return fmt.Errorf("supply lookup failed for chain %s: %w", chain.Name, err)
			}
			mu.Lock()
			data.SupplyByChain[chain.Name] = supply
			mu.Unlock()
			return nil
		})

		g.Go(func() error {
			share, ok, err := chain.Holders.TopHolderShare(gctx)
			if err != nil {
				collectorLogger.Warn().
					Str("chain", chain.Name).
					Err(err).
					Msg("Holder lookup failed, chain dropped from concentration map")
				return nil
			}
			if !ok {
				return nil
			}
			mu.Lock()
			data.HolderConcentration[chain.Name] = share
			mu.Unlock()
			return nil
		})

		g.Go(func() error {
			pools, err := chain.Pools.Pools(gctx)
			if err != nil {
				collectorLogger.Warn().
					Str("chain", chain.Name).
					Err(err).
					Msg("Pool lookup failed, chain scores worst-case slippage")
				return nil
			}
			mu.Lock()
			poolsByChain[chain.Name] = pools
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return types.OnChainData{}, err
	}

	c.simulateSlippage(ticker, &data, poolsByChain)

	collectorLogger.Info().
		Str("ticker", ticker).
		Int("chains", len(c.chains)).
		Float64("outstandingSupply", data.OutstandingSupply()).
		Int("marketSamples", len(data.MarketSeries)).
		Int("chainsWithHolderData", len(data.HolderConcentration)).
		Msg("On-chain data collection complete")

	return data, nil
}

// simulateSlippage runs the StableSwap model per chain and records the
// constant-product model at the stress-test sell size alongside it for
// comparison. Only the StableSwap number feeds the market liquidity score.
func (c *Collector) simulateSlippage(ticker string, data *types.OnChainData, poolsByChain map[string][]amm.Pool) {
	stressSellUSD := data.OutstandingSupply() * c.params.StressSupplyFraction

	for _, chain := range c.chains {
		pools := poolsByChain[chain.Name]

		slippage, err := amm.StableSwapSlippage(pools)
		if err != nil {
			collectorLogger.Warn().
				Str("chain", chain.Name).
				Err(err).
				Msg("StableSwap simulation failed, chain scores worst-case slippage")
			slippage = amm.WorstCaseSlippagePercent
		}
		data.SlippageByChain[chain.Name] = slippage

		if stressSellUSD > 0 {
			cpSlippage, err := amm.ConstantProductSlippage(pools, stressSellUSD)
			if err == nil {
				collectorLogger.Debug().
					Str("ticker", ticker).
					Str("chain", chain.Name).
					Float64("stressSellUSD", stressSellUSD).
					Float64("stableSwapSlippage", slippage).
					Float64("constantProductSlippage", cpSlippage).
					Msg("Per-chain slippage simulation")
			}
		}
	}
}
