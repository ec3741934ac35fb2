/*

This file loads the per-coin chain configuration: which chains a stablecoin
is issued on, the RPC endpoint and contract address per chain, and the token
decimals needed to scale raw supply figures.

*/

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidChainConfig = errors.New("invalid chain configuration")

// ChainEntry describes one deployment of a stablecoin on one chain.
type ChainEntry struct {
	// Type selects the client implementation ("evm" is the only built-in;
	// other types require an injected client).
	Type string `yaml:"type"`
	// RPCEndpoint is the JSON-RPC endpoint for the chain.
	RPCEndpoint string `yaml:"rpc_endpoint"`
	// ContractAddress is the token contract on that chain.
	ContractAddress string `yaml:"contract_address"`
	// Decimals is the token's on-contract decimal precision.
	Decimals int `yaml:"decimals"`
}

// ChainConfig maps ticker -> chain name -> deployment entry.
type ChainConfig map[string]map[string]ChainEntry

// LoadChainConfig reads and validates the chain configuration YAML.
func LoadChainConfig(path string) (ChainConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain config %s: %w", path, err)
	}

	var cfg ChainConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse chain config %s: %w", path, err)
	}

	for ticker, chains := range cfg {
		if len(chains) == 0 {
			return nil, fmt.Errorf("%w: ticker %s has no chains", ErrInvalidChainConfig, ticker)
		}
		for chain, entry := range chains {
			if entry.Type == "" {
				return nil, fmt.Errorf("%w: %s/%s is missing a type", ErrInvalidChainConfig, ticker, chain)
			}
			if entry.RPCEndpoint == "" {
				return nil, fmt.Errorf("%w: %s/%s is missing an RPC endpoint", ErrInvalidChainConfig, ticker, chain)
			}
			if entry.ContractAddress == "" {
				return nil, fmt.Errorf("%w: %s/%s is missing a contract address", ErrInvalidChainConfig, ticker, chain)
			}
			if entry.Decimals < 0 || entry.Decimals > 18 {
				return nil, fmt.Errorf("%w: %s/%s decimals must be between 0 and 18", ErrInvalidChainConfig, ticker, chain)
			}
		}
	}

	return cfg, nil
}
