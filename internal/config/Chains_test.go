package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChainConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadChainConfig_Valid(t *testing.T) {
	path := writeChainConfig(t, `
USDC:
  ethereum:
    type: evm
    rpc_endpoint: https://eth.llamarpc.com
    contract_address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
    decimals: 6
  base:
    type: evm
    rpc_endpoint: https://mainnet.base.org
    contract_address: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
    decimals: 6
`)

	cfg, err := LoadChainConfig(path)
	require.NoError(t, err)
	require.Contains(t, cfg, "USDC")
	require.Len(t, cfg["USDC"], 2)

	eth := cfg["USDC"]["ethereum"]
	assert.Equal(t, "evm", eth.Type)
	assert.Equal(t, 6, eth.Decimals)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", eth.ContractAddress)
}

func TestLoadChainConfig_MissingFile(t *testing.T) {
	_, err := LoadChainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadChainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no chains for ticker",
			yaml: "USDC: {}\n",
		},
		{
			name: "missing type",
			yaml: `
USDC:
  ethereum:
    rpc_endpoint: https://eth.llamarpc.com
    contract_address: "0xa0b8"
    decimals: 6
`,
		},
		{
			name: "missing rpc endpoint",
			yaml: `
USDC:
  ethereum:
    type: evm
    contract_address: "0xa0b8"
    decimals: 6
`,
		},
		{
			name: "missing contract address",
			yaml: `
USDC:
  ethereum:
    type: evm
    rpc_endpoint: https://eth.llamarpc.com
    decimals: 6
`,
		},
		{
			name: "decimals out of range",
			yaml: `
USDC:
  ethereum:
    type: evm
    rpc_endpoint: https://eth.llamarpc.com
    contract_address: "0xa0b8"
    decimals: 19
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadChainConfig(writeChainConfig(t, tc.yaml))
			require.ErrorIs(t, err, ErrInvalidChainConfig)
		})
	}
}

func TestLoadChainConfig_MalformedYAML(t *testing.T) {
	_, err := LoadChainConfig(writeChainConfig(t, "USDC: [not: a: map\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidChainConfig)
}
