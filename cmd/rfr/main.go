/*

This is the entry point for the risk scoring engine. The serve command runs
the HTTP API with Postgres-backed evaluation history; the evaluate command
runs one evaluation from the command line and prints the response as JSON.

*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/runfromrun/rfr/internal/cache"
	"github.com/runfromrun/rfr/internal/config"
	"github.com/runfromrun/rfr/internal/datafetcher"
	"github.com/runfromrun/rfr/internal/engine"
	"github.com/runfromrun/rfr/internal/extraction"
	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/state"
	"github.com/runfromrun/rfr/internal/summary"
	"github.com/runfromrun/rfr/internal/types"
	"github.com/runfromrun/rfr/internal/web"
)

var rootCmd = &cobra.Command{
	Use:   "rfr",
	Short: "Stablecoin risk scoring and reconciliation engine",
	Long: "rfr evaluates fiat-backed stablecoins by reconciling LLM-extracted reserve " +
		"attestation tables with live on-chain market health signals into a single " +
		"time-decaying risk index.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP evaluation API",
	RunE:  runServe,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one evaluation and print the response as JSON",
	RunE:  runEvaluate,
}

var (
	flagTicker   string
	flagIssuer   string
	flagURL      string
	flagProtocol string
)

func init() {
	evaluateCmd.Flags().StringVar(&flagTicker, "ticker", "", "stablecoin ticker (e.g. USDC)")
	evaluateCmd.Flags().StringVar(&flagIssuer, "issuer", "", "report issuer name")
	evaluateCmd.Flags().StringVar(&flagURL, "url", "", "attestation report PDF URL")
	evaluateCmd.Flags().StringVar(&flagProtocol, "protocol", "v1.0.0", "protocol version")
	_ = evaluateCmd.MarkFlagRequired("ticker")
	_ = evaluateCmd.MarkFlagRequired("issuer")
	_ = evaluateCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildEngine performs the shared initialization: environment, config,
// logging, and the full evaluation stack. The saver decides whether
// snapshots are persisted.
func buildEngine(saver engine.SnapshotSaver) (*engine.Engine, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	log.Info().Msg("RFR risk scoring engine starting...")

	params := config.DefaultEngineParameters
	thresholds := config.DefaultThresholds

	chainConfig, err := config.LoadChainConfig(config.ChainsFile)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(config.CacheDir)
	if err != nil {
		return nil, err
	}

	fetcher, err := extraction.NewDocumentFetcher(config.DocumentDir, params.DocumentFetchTimeout)
	if err != nil {
		return nil, err
	}

	extractor := extraction.NewHTTPTableExtractor(config.TableServiceURL, params.ModelCallTimeout)
	estimators := extraction.NewOllamaEstimators(config.EstimatorURL, config.EstimatorModels)

	pipeline, err := extraction.NewPipeline(fetcher, extractor, estimators, store, params.ModelCallTimeout)
	if err != nil {
		return nil, err
	}

	market := datafetcher.NewMarketDataHTTPClient(config.MarketDataURL, config.MarketDataAPIKey)
	pools := datafetcher.NewPoolServiceClient(config.PoolServiceURL)

	collectors, err := engine.BuildCollectors(config.SupportedCoins, chainConfig, market, pools, params)
	if err != nil {
		return nil, err
	}

	notifier := summary.NewNotifier(os.Getenv("RFR_SLACK_WEBHOOK_URL"))

	return engine.NewEngine(pipeline, collectors, notifier, saver, config.SupportedCoins, thresholds)
}

func runServe(cmd *cobra.Command, args []string) error {
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}

	evalEngine, err := buildEngine(state.SaveEvaluationSnapshot)
	if err != nil {
		return err
	}

	if err := state.InitDB(dbCfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

	server := web.NewWebServer(config.HTTPPort, evalEngine)
	return server.Start()
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	// One-shot runs skip snapshot persistence; the JSON response is the
	// whole output.
	evalEngine, err := buildEngine(nil)
	if err != nil {
		return err
	}

	req := types.EvalRequest{
		StablecoinTicker: flagTicker,
		Provenance: types.Provenance{
			ReportIssuer: flagIssuer,
			ReportPDFURL: flagURL,
		},
		ProtocolVersion: flagProtocol,
	}

	response := evalEngine.Evaluate(context.Background(), req)

	encoded, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation response: %w", err)
	}
	fmt.Println(string(encoded))

	if response.ErrStatus != "" {
		return fmt.Errorf("evaluation failed: %s", response.ErrStatus)
	}
	return nil
}

func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
