package main

import (
	"path/filepath"
	"time"

	"github.com/seelander09/home-marketing-sub001/internal/catalog"
	"github.com/seelander09/home-marketing-sub001/internal/features"
	"github.com/seelander09/home-marketing-sub001/internal/handlers"
	"github.com/seelander09/home-marketing-sub001/internal/ingest"
	"github.com/seelander09/home-marketing-sub001/internal/metrics"
	"github.com/seelander09/home-marketing-sub001/internal/modelregistry"
	"github.com/seelander09/home-marketing-sub001/internal/runlog"
	"github.com/seelander09/home-marketing-sub001/internal/scoring"
	"github.com/seelander09/home-marketing-sub001/pkg/clients/crm"
	"github.com/seelander09/home-marketing-sub001/pkg/clients/marketdata"
	"github.com/seelander09/home-marketing-sub001/pkg/config"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/monitoring"
	"github.com/seelander09/home-marketing-sub001/pkg/server"
	"github.com/seelander09/home-marketing-sub001/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("sellerscope")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Sellerscope (Seller Propensity API)")

	dataDir := config.GetEnv("PREDICTIONS_DATA_DIR", "predictions-data")
	catalogPath := config.GetEnv("CATALOG_PATH", filepath.Join(dataDir, "property-catalog.json"))
	transactionsPath := config.GetEnv("TRANSACTIONS_PATH", filepath.Join(dataDir, "events", "transactions.json"))
	listingsPath := config.GetEnv("LISTINGS_PATH", filepath.Join(dataDir, "events", "listings.json"))
	engagementPath := config.GetEnv("ENGAGEMENT_PATH", filepath.Join(dataDir, "events", "engagement.json"))
	featureStoreDir := filepath.Join(dataDir, "feature-store", "seller")
	runLogPath := filepath.Join(dataDir, "seller-propensity-run-log.json")
	registryDir := filepath.Join(dataDir, "models", "seller-propensity")

	marketDataURL := config.GetEnv("MARKET_DATA_BASE_URL", "")
	crmWebhookURL := config.GetEnv("CRM_WEBHOOK_URL", "")
	crmAuthToken := config.GetEnv("CRM_AUTH_TOKEN", "")

	// Feature store collaborators
	store := features.NewStore(featureStoreDir, logger)
	reader := features.NewCachedReader(store.LatestPath())
	propertyCatalog := catalog.New(catalogPath)
	registry := modelregistry.NewRegistry(registryDir, logger)
	runLog := runlog.New(runLogPath, logger)

	var market features.MarketDataProvider
	if marketDataURL != "" {
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
			Transactions: transactionsPath,
			Listings:     listingsPath,
			Engagement:   engagementPath,
		},
		Catalog: propertyCatalog,
		Builder: features.NewBuilder(features.BuilderConfig{Market: market, Logger: logger}),
		Store:   store,
		Logger:  logger,
	}

	scorer := scoring.NewScorer(scoring.Config{
		Catalog:  propertyCatalog,
		Features: reader,
		Models:   registry,
		Weights:  scoring.ComponentWeightsFromEnv(),
		Logger:   logger,
	})

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("sellerscope", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("sellerscope", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"CATALOG_PATH":         catalogPath,
		"PREDICTIONS_DATA_DIR": dataDir,
	}))
	healthChecker.AddCheck("catalogue", monitoring.FileHealthCheck(catalogPath))
	healthChecker.AddCheck("feature_store", monitoring.FileHealthCheck(store.LatestPath()))

	// Create custom scoring metrics
	serviceMetrics := &metrics.Metrics{
		ScoringRuns:        metricsCollector.NewCounter("scoring_runs_total", "Scoring runs executed", []string{"endpoint", "status"}),
		ScoringDuration:    metricsCollector.NewHistogram("scoring_run_duration_seconds", "Scoring run duration", []string{"endpoint"}, nil),
		PropertiesScored:   metricsCollector.NewCounter("properties_scored_total", "Properties scored", []string{"endpoint"}),
		FeatureStoreBuilds: metricsCollector.NewCounter("feature_store_builds_total", "Feature store builds", []string{"status"}),
		CRMPushes:          metricsCollector.NewCounter("crm_pushes_total", "CRM push attempts", []string{"status"}),
		ModelRegistrations: metricsCollector.NewCounter("model_registrations_total", "Models registered", []string{"algorithm"}),
	}

	handlers.Init(handlers.Config{
		Scorer:   scorer,
		RunLog:   runLog,
		Registry: registry,
		Catalog:  propertyCatalog,
		CRM:      crm.NewClient(crmWebhookURL, crmAuthToken),
		Pipeline: pipeline,
		Logger:   logger,
		Metrics:  serviceMetrics,
	})

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "sellerscope", healthChecker, metricsCollector)
	handlers.RegisterRoutes(router)

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("sellerscope", "18080")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
