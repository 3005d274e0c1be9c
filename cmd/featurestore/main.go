package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/seelander09/home-marketing-sub001/internal/catalog"
	"github.com/seelander09/home-marketing-sub001/internal/features"
	"github.com/seelander09/home-marketing-sub001/internal/ingest"
	"github.com/seelander09/home-marketing-sub001/pkg/clients/marketdata"
	"github.com/seelander09/home-marketing-sub001/pkg/config"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
)

// Nightly/on-demand feature store build job. Same pipeline as the API's
// rebuild endpoint, runnable from cron without the HTTP server.
func main() {
	logger := logging.NewLoggerWithService("sellerscope-featurestore")
	config.LoadEnv(logger)

	logger.Info("Starting feature store build")

	dataDir := config.GetEnv("PREDICTIONS_DATA_DIR", "predictions-data")
	catalogPath := config.GetEnv("CATALOG_PATH", filepath.Join(dataDir, "property-catalog.json"))
	featureStoreDir := filepath.Join(dataDir, "feature-store", "seller")

	var market features.MarketDataProvider
	if marketDataURL := config.GetEnv("MARKET_DATA_BASE_URL", ""); marketDataURL != "" {
		market = marketdata.NewClient(marketdata.Config{
			BaseURL: marketDataURL,
			Timeout: 10 * time.Second,
			Logger:  logger,
		})
	} else {
		logger.Warn("MARKET_DATA_BASE_URL not set, macro summaries will be empty")
	}

	pipeline := &features.Pipeline{
		Loader: ingest.NewLoader(logger),
		Paths: ingest.Paths{
			Transactions: config.GetEnv("TRANSACTIONS_PATH", filepath.Join(dataDir, "events", "transactions.json")),
			Listings:     config.GetEnv("LISTINGS_PATH", filepath.Join(dataDir, "events", "listings.json")),
			Engagement:   config.GetEnv("ENGAGEMENT_PATH", filepath.Join(dataDir, "events", "engagement.json")),
		},
		Catalog: catalog.New(catalogPath),
		Builder: features.NewBuilder(features.BuilderConfig{Market: market, Logger: logger}),
		Store:   features.NewStore(featureStoreDir, logger),
		Logger:  logger,
	}

	timeout := time.Duration(config.GetEnvInt("BUILD_TIMEOUT_MINUTES", 10)) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	snapshot, err := pipeline.Rebuild(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Feature store build failed")
	}

	logger.WithFields(logging.Fields{
		"records":              snapshot.RecordCount,
		"average_completeness": snapshot.Stats.AverageCompleteness,
		"generated_at":         snapshot.GeneratedAt,
	}).Info("Feature store build complete")
}
