package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seelander09/home-marketing-sub001/internal/catalog"
	"github.com/seelander09/home-marketing-sub001/internal/metrics"
	"github.com/seelander09/home-marketing-sub001/internal/modelregistry"
	"github.com/seelander09/home-marketing-sub001/internal/runlog"
	"github.com/seelander09/home-marketing-sub001/internal/scoring"
	"github.com/seelander09/home-marketing-sub001/pkg/api/propensity"
	"github.com/seelander09/home-marketing-sub001/pkg/clients/crm"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/middleware"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// CRMSender delivers matched properties to the CRM webhook.
type CRMSender interface {
	SendToCRM(ctx context.Context, payload crm.Payload) error
}

// FeaturePipeline runs one feature-store build end to end.
type FeaturePipeline interface {
	Rebuild(ctx context.Context) (*models.SellerFeatureSnapshot, error)
}

var (
	scorer         *scoring.Scorer
	runLog         *runlog.Log
	registry       *modelregistry.Registry
	propertyCat    *catalog.Catalog
	crmClient      CRMSender
	pipeline       FeaturePipeline
	logger         logging.Logger
	serviceMetrics *metrics.Metrics
)

// Config carries the handlers package dependencies.
type Config struct {
	Scorer   *scoring.Scorer
	RunLog   *runlog.Log
	Registry *modelregistry.Registry
	Catalog  *catalog.Catalog
	CRM      CRMSender
	Pipeline FeaturePipeline
	Logger   logging.Logger
	Metrics  *metrics.Metrics
}

// Init initializes the handlers package with its collaborators and metrics
func Init(cfg Config) {
	scorer = cfg.Scorer
	runLog = cfg.RunLog
	registry = cfg.Registry
	propertyCat = cfg.Catalog
	crmClient = cfg.CRM
	pipeline = cfg.Pipeline
	logger = cfg.Logger
	serviceMetrics = cfg.Metrics
}

// RegisterRoutes mounts all API routes on the router.
func RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/predictions/seller", GetSellerPredictions)
		api.GET("/predictions/seller/export", ExportSellerPredictions)
		api.POST("/predictions/seller/push", PushSellerPredictions)
		api.POST("/feature-store/rebuild", RebuildFeatureStore)
		api.GET("/models/seller-propensity", GetModelRegistry)
		api.POST("/models/seller-propensity", RegisterModel)
	}
}

// parseScoreOptions reads filters, limit and persist from the query string.
func parseScoreOptions(c *gin.Context) (scoring.Options, bool, string) {
	opts := scoring.Options{
		Filters: models.ScoreFilters{
			Query: c.Query("query"),
			City:  c.Query("city"),
			State: c.Query("state"),
			Zip:   c.Query("zip"),
		},
	}

	parseFloat := func(name string) (*float64, string) {
		raw := c.Query(name)
		if raw == "" {
			return nil, ""
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, "Invalid " + name + " parameter"
		}
		return &value, ""
	}

	var errMsg string
	if opts.Filters.MinScore, errMsg = parseFloat("minScore"); errMsg != "" {
		return opts, true, errMsg
	}
	if opts.Filters.MinEquity, errMsg = parseFloat("minEquity"); errMsg != "" {
		return opts, true, errMsg
	}
	if opts.Filters.MinYears, errMsg = parseFloat("minYears"); errMsg != "" {
		return opts, true, errMsg
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, true, "Invalid limit parameter"
		}
		opts.Limit = limit
	}

	persist := true
	if raw := c.Query("persist"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, true, "Invalid persist parameter"
		}
		persist = value
	}
	return opts, persist, ""
}

// GetSellerPredictions scores the catalogue and returns the full analysis.
// The run is appended to the run log unless persist=false; a failed append
// degrades to a metadata warning, never a failed response.
func GetSellerPredictions(c *gin.Context) {
	start := time.Now()
	defer func() {
		if serviceMetrics != nil {
			serviceMetrics.ScoringDuration.WithLabelValues("predictions").Observe(time.Since(start).Seconds())
		}
	}()

	opts, persist, errMsg := parseScoreOptions(c)
	if errMsg != "" {
		c.JSON(http.StatusUnprocessableEntity, propensity.ErrorResponse{Error: errMsg})
		return
	}

	analysis, err := scorer.ScoreAll(c.Request.Context(), opts)
	if err != nil {
		if serviceMetrics != nil {
			serviceMetrics.ScoringRuns.WithLabelValues("predictions", "error").Inc()
		}
		middleware.GetContextLogger(c, logger).WithError(err).Error("Scoring run failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Scoring failed"})
		return
	}

	metadata := propensity.ResponseMetadata{
		RequestID:   middleware.GetRequestID(c),
		GeneratedAt: analysis.GeneratedAt,
	}
	if persist {
		if err := runLog.Append(analysis); err != nil {
			middleware.GetContextLogger(c, logger).WithError(err).Warn("Run log append failed")
			metadata.Warning = "run history could not be persisted"
		} else {
			metadata.Persisted = true
		}
	}

	if serviceMetrics != nil {
		serviceMetrics.ScoringRuns.WithLabelValues("predictions", "success").Inc()
		serviceMetrics.PropertiesScored.WithLabelValues("predictions").Add(float64(analysis.SampleSize))
	}

	c.JSON(http.StatusOK, propensity.AnalysisResponse{
		Analysis: *analysis,
		Metadata: metadata,
	})
}

// RebuildFeatureStore runs the full ingest-aggregate-persist pipeline on
// demand, the same code path the nightly job uses.
func RebuildFeatureStore(c *gin.Context) {
	snapshot, err := pipeline.Rebuild(c.Request.Context())
	if err != nil {
		if serviceMetrics != nil {
			serviceMetrics.FeatureStoreBuilds.WithLabelValues("error").Inc()
		}
		middleware.GetContextLogger(c, logger).WithError(err).Error("Feature store rebuild failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Feature store rebuild failed"})
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.FeatureStoreBuilds.WithLabelValues("success").Inc()
	}
	c.JSON(http.StatusOK, propensity.RebuildResponse{
		GeneratedAt: snapshot.GeneratedAt,
		RecordCount: snapshot.RecordCount,
		Stats:       snapshot.Stats,
	})
}

// GetModelRegistry lists registered models, newest-trained first.
func GetModelRegistry(c *gin.Context) {
	entries, err := registry.Entries()
	if err != nil {
		middleware.GetContextLogger(c, logger).WithError(err).Error("Model registry read failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Model registry unavailable"})
		return
	}
	if entries == nil {
		entries = []models.ModelRegistryEntry{}
	}
	c.JSON(http.StatusOK, propensity.RegistryResponse{Models: entries})
}

// RegisterModel persists trained weights delivered by the external trainer.
func RegisterModel(c *gin.Context) {
	var req propensity.RegisterModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, propensity.ErrorResponse{Error: "Invalid model payload: " + err.Error()})
		return
	}

	entry, err := registry.SaveWeights(modelregistry.Weights{
		Algorithm:    req.Algorithm,
		Version:      req.Version,
		TrainedAt:    req.TrainedAt,
		Intercept:    req.Intercept,
		Coefficients: req.Coefficients,
	}, req.Metrics, req.Hyperparameters)
	if err != nil {
		middleware.GetContextLogger(c, logger).WithError(err).Error("Model registration failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Model registration failed"})
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.ModelRegistrations.WithLabelValues(entry.Algorithm).Inc()
	}
	c.JSON(http.StatusCreated, entry)
}
