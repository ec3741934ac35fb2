package config

import (
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// HTTPPort is the port the web server listens on.
	HTTPPort string

	// CacheDir is the root of the content-addressed result cache (hash log
	// plus one serialized asset table per document hash).
	CacheDir string

	// DocumentDir is where downloaded attestation documents are stored.
	DocumentDir string

	// ChainsFile is the path to the per-coin chain configuration YAML.
	ChainsFile string

	// SupportedCoins is the set of stablecoin tickers this instance serves.
	SupportedCoins []string

	// EstimatorURL is the endpoint of the model service used for reserve
	// extraction.
	EstimatorURL string

	// EstimatorModels lists the model names queried per document. Each model
	// contributes one candidate estimate to reconciliation.
	EstimatorModels []string

	// TableServiceURL is the endpoint of the external PDF table extraction
	// service.
	TableServiceURL string

	// MarketDataURL is the base URL of the market data API serving the
	// trailing daily market-cap/price series and holder concentration.
	MarketDataURL string

	// MarketDataAPIKey authenticates requests to the market data API.
	MarketDataAPIKey string

	// PoolServiceURL is the base URL of the DEX aggregator used to discover
	// liquidity pools per chain.
	PoolServiceURL string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	HTTPPort, err = getEnv("RFR_HTTP_PORT")
	if err != nil {
		return err
	}

	CacheDir, err = getEnv("RFR_CACHE_DIR")
	if err != nil {
		return err
	}

	DocumentDir, err = getEnv("RFR_DOCUMENT_DIR")
	if err != nil {
		return err
	}

	ChainsFile, err = getEnv("RFR_CHAINS_FILE")
	if err != nil {
		return err
	}

	SupportedCoins, err = getEnvAsList("RFR_SUPPORTED_COINS")
	if err != nil {
		return err
	}

	EstimatorURL, err = getEnv("RFR_ESTIMATOR_URL")
	if err != nil {
		return err
	}

	EstimatorModels, err = getEnvAsList("RFR_ESTIMATOR_MODELS")
	if err != nil {
		return err
	}

	TableServiceURL, err = getEnv("RFR_TABLE_SERVICE_URL")
	if err != nil {
		return err
	}

	MarketDataURL, err = getEnv("RFR_MARKET_DATA_URL")
	if err != nil {
		return err
	}

	MarketDataAPIKey, err = getEnv("RFR_MARKET_DATA_API_KEY")
	if err != nil {
		return err
	}

	PoolServiceURL, err = getEnv("RFR_POOL_SERVICE_URL")
	if err != nil {
		return err
	}

	log.Debug().
		Str("HTTPPort", HTTPPort).
		Str("CacheDir", CacheDir).
		Str("ChainsFile", ChainsFile).
		Strs("SupportedCoins", SupportedCoins).
		Strs("EstimatorModels", EstimatorModels).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsList retrieves a comma-separated environment variable as a slice.
// Returns error if not set or empty.
func getEnvAsList(key string) ([]string, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil, errors.New("environment variable " + key + " must contain at least one entry")
	}
	return result, nil
}
