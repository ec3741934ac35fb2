/*

This file contains the EVM supply fetcher. It issues a raw eth_call for
totalSupply() against the coin's token contract and scales the big-integer
result by the configured token decimals.

*/

package datafetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/utils"
)

var supplyLogger = logger.GetForComponent("evm_supply")

var (
	ErrRPCError       = errors.New("JSON-RPC call failed")
	ErrInvalidRPCData = errors.New("invalid JSON-RPC response data")
)

// totalSupplySelector is the 4-byte function selector of ERC-20
// totalSupply().
const totalSupplySelector = "0x18160ddd"

// EVMSupplyFetcher reads the outstanding token supply from an EVM chain via
// a raw eth_call, avoiding any contract ABI machinery.
type EVMSupplyFetcher struct {
	client   *http.Client
	rpcURL   string
	contract string
	decimals int
}

func NewEVMSupplyFetcher(rpcURL, contract string, decimals int) *EVMSupplyFetcher {
	return &EVMSupplyFetcher{
		client:   &http.Client{Timeout: chainCallTimeout},
		rpcURL:   rpcURL,
		contract: contract,
		decimals: decimals,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *EVMSupplyFetcher) TotalSupply(ctx context.Context) (float64, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_call",
		Params: []any{
			map[string]string{"to": f.contract, "data": totalSupplySelector},
			"latest",
		},
		ID: 1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.rpcURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build RPC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, errors.Join(ErrRPCError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: HTTP %d: %s", ErrRPCError, resp.StatusCode, string(snippet))
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if decoded.Error != nil {
		return 0, fmt.Errorf("%w: code %d: %s", ErrRPCError, decoded.Error.Code, decoded.Error.Message)
	}

	raw := strings.TrimPrefix(decoded.Result, "0x")
	if raw == "" {
		return 0, fmt.Errorf("%w: empty eth_call result from %s", ErrInvalidRPCData, f.rpcURL)
	}

	rawSupply, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return 0, fmt.Errorf("%w: non-hex eth_call result %q", ErrInvalidRPCData, decoded.Result)
	}

	supply, err := utils.RawSupplyToFloat64(sdkmath.NewIntFromBigInt(rawSupply), f.decimals)
	if err != nil {
		return 0, fmt.Errorf("failed to scale raw supply: %w", err)
	}

	supplyLogger.Debug().
		Str("contract", f.contract).
		Str("rawSupply", rawSupply.String()).
		Int("decimals", f.decimals).
		Float64("supply", supply).
		Msg("Fetched total supply via eth_call")

	return supply, nil
}
