/*

This file contains the market data client. It serves two lookups from the
same provider: the trailing daily market-cap/price series used by the
peg-market change score, and the per-chain top-holder concentration used by
the holder concentration ratio.

*/

package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

var marketLogger = logger.GetForComponent("market_data")

var (
	ErrMarketAPIError  = errors.New("market data API call failed")
	ErrMalformedSeries = errors.New("malformed market series in API response")
	ErrNoHolderDataAPI = errors.New("market data API has no holder data for chain")
)

// coinIDByTicker maps supported tickers to the market data provider's coin
// identifiers.
var coinIDByTicker = map[string]string{
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"FDUSD": "first-digital-usd",
	"PYUSD": "paypal-usd",
	"TUSD":  "true-usd",
	"USDP":  "paxos-standard",
}

// MarketDataClient serves the trailing daily market series for one coin.
type MarketDataClient interface {
	MarketSeries(ctx context.Context, ticker string, days int) ([]types.MarketSample, error)
}

// MarketDataHTTPClient talks to a CoinGecko-compatible market data API.
type MarketDataHTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewMarketDataHTTPClient(baseURL, apiKey string) *MarketDataHTTPClient {
	return &MarketDataHTTPClient{
		client:  &http.Client{Timeout: chainCallTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type marketChartResponse struct {
	Prices     [][2]float64 `json:"prices"`
	MarketCaps [][2]float64 `json:"market_caps"`
}

// MarketSeries fetches the trailing daily (market cap, price) window. The
// provider returns prices and market caps as separate timestamped arrays;
// they are joined on timestamp and sorted ascending.
func (c *MarketDataHTTPClient) MarketSeries(ctx context.Context, ticker string, days int) ([]types.MarketSample, error) {
	coinID, ok := coinIDByTicker[ticker]
	if !ok {
		return nil, fmt.Errorf("no market data coin ID for ticker %s", ticker)
	}

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily&precision=full",
		c.baseURL, coinID, days)

	var decoded marketChartResponse
	if err := c.getJSON(ctx, url, &decoded); err != nil {
		return nil, err
	}

	if len(decoded.Prices) == 0 || len(decoded.Prices) != len(decoded.MarketCaps) {
		return nil, fmt.Errorf("%w: %d prices, %d market caps",
			ErrMalformedSeries, len(decoded.Prices), len(decoded.MarketCaps))
	}

	capByTimestamp := make(map[int64]float64, len(decoded.MarketCaps))
	for _, point := range decoded.MarketCaps {
		capByTimestamp[int64(point[0])] = point[1]
	}

	series := make([]types.MarketSample, 0, len(decoded.Prices))
	for _, point := range decoded.Prices {
		ts := int64(point[0])
		marketCap, ok := capByTimestamp[ts]
		if !ok {
			return nil, fmt.Errorf("%w: price point at %d has no market cap", ErrMalformedSeries, ts)
		}
		series = append(series, types.MarketSample{
			Timestamp:    time.UnixMilli(ts).UTC(),
			MarketCapUSD: marketCap,
			PriceUSD:     point[1],
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	marketLogger.Debug().
		Str("ticker", ticker).
		Int("samples", len(series)).
		Time("oldest", series[0].Timestamp).
		Time("newest", series[len(series)-1].Timestamp).
		Msg("Fetched market series")

	return series, nil
}

// HolderFetcher returns a per-chain holder concentration fetcher backed by
// the provider's on-chain token info endpoint.
func (c *MarketDataHTTPClient) HolderFetcher(chain, contract string) HolderFetcher {
	return &apiHolderFetcher{client: c, chain: chain, contract: contract}
}

type apiHolderFetcher struct {
	client   *MarketDataHTTPClient
	chain    string
	contract string
}

type tokenInfoResponse struct {
	Data struct {
		Attributes struct {
			Holders struct {
				Count                  int `json:"count"`
				DistributionPercentage struct {
					Top10   string `json:"top_10"`
					Range30 string `json:"11_30"`
					Range50 string `json:"31_50"`
					Rest    string `json:"rest"`
				} `json:"distribution_percentage"`
			} `json:"holders"`
		} `json:"attributes"`
	} `json:"data"`
}

// TopHolderShare returns the share of supply held by the 50 largest
// addresses on this chain, in percent. A provider that does not track the
// chain yields ok=false rather than an error.
func (f *apiHolderFetcher) TopHolderShare(ctx context.Context) (float64, bool, error) {
	url := fmt.Sprintf("%s/onchain/networks/%s/tokens/%s/info", f.client.baseURL, f.chain, f.contract)

	var decoded tokenInfoResponse
	if err := f.client.getJSON(ctx, url, &decoded); err != nil {
		if errors.Is(err, ErrNoHolderDataAPI) {
			return 0, false, nil
		}
		return 0, false, err
	}

	dist := decoded.Data.Attributes.Holders.DistributionPercentage
	var share float64
	for _, part := range []string{dist.Top10, dist.Range30, dist.Range50} {
		if part == "" {
			continue
		}
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid holder distribution value %q for chain %s: %w", part, f.chain, err)
		}
		share += value
	}

	if share <= 0 {
		return 0, false, nil
	}
	return share, true, nil
}

func (c *MarketDataHTTPClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build market data request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Join(ErrMarketAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoHolderDataAPI
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrMarketAPIError, resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode market data response: %w", err)
	}
	return nil
}
