/*

This file contains the liquidity pool discovery client. Pools are looked up
per chain through a DEX aggregator API and reduced to the USD reserve and
price shape the slippage simulator consumes. A chain the aggregator does not
cover simply yields no pools, which the simulator treats as worst-case
liquidity.

*/

package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/runfromrun/rfr/internal/amm"
	"github.com/runfromrun/rfr/internal/logger"
)

var poolLogger = logger.GetForComponent("pool_discovery")

var ErrPoolAPIError = errors.New("pool service API call failed")

// PoolServiceClient talks to the DEX aggregator's pool discovery endpoint.
type PoolServiceClient struct {
	client  *http.Client
	baseURL string
}

func NewPoolServiceClient(baseURL string) *PoolServiceClient {
	return &PoolServiceClient{
		client:  &http.Client{Timeout: chainCallTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PoolFetcher returns a per-chain pool fetcher for one token contract.
func (c *PoolServiceClient) PoolFetcher(chain, contract string) PoolFetcher {
	return &servicePoolFetcher{client: c, chain: chain, contract: contract}
}

type servicePoolFetcher struct {
	client   *PoolServiceClient
	chain    string
	contract string
}

type poolListResponse struct {
	Pools []amm.Pool `json:"pools"`
}

func (f *servicePoolFetcher) Pools(ctx context.Context) ([]amm.Pool, error) {
	url := fmt.Sprintf("%s/pools?chain=%s&token=%s", f.client.baseURL, f.chain, f.contract)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pool request: %w", err)
	}

	resp, err := f.client.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrPoolAPIError, err)
	}
	defer resp.Body.Close()

	// An uncovered chain is not an error; it scores worst-case slippage.
	if resp.StatusCode == http.StatusNotFound {
		poolLogger.Warn().
			Str("chain", f.chain).
			Msg("Pool service does not cover chain, no eligible pools")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrPoolAPIError, resp.StatusCode, string(snippet))
	}

	var decoded poolListResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode pool response: %w", err)
	}

	poolLogger.Debug().
		Str("chain", f.chain).
		Int("pools", len(decoded.Pools)).
		Msg("Discovered liquidity pools")

	return decoded.Pools, nil
}
