package datafetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runfromrun/rfr/internal/amm"
)

func TestPools_DecodesPoolList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ethereum", r.URL.Query().Get("chain"))
		assert.Equal(t, "0xdead", r.URL.Query().Get("token"))
		resp := poolListResponse{Pools: []amm.Pool{
			{ReserveUSD: 500_000_000, PriceUSD: 1.0001},
			{ReserveUSD: 20_000_000, PriceUSD: 0.9998},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	fetcher := NewPoolServiceClient(server.URL).PoolFetcher("ethereum", "0xdead")
	pools, err := fetcher.Pools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, 500_000_000.0, pools[0].ReserveUSD)
}

func TestPools_UncoveredChainYieldsNoPools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewPoolServiceClient(server.URL).PoolFetcher("obscurechain", "0xdead")
	pools, err := fetcher.Pools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pools)
}

func TestPools_ServerErrorIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream timeout", http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewPoolServiceClient(server.URL).PoolFetcher("ethereum", "0xdead")
	_, err := fetcher.Pools(context.Background())
	require.ErrorIs(t, err, ErrPoolAPIError)
}
