package propensity

import (
	"time"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// ErrorResponse is the single-field error body every endpoint returns on
// failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ResponseMetadata accompanies a successful analysis response.
type ResponseMetadata struct {
	RequestID   string    `json:"requestId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Persisted   bool      `json:"persisted"`
	Warning     string    `json:"warning,omitempty"`
}

// AnalysisResponse is the body of GET /api/predictions/seller.
type AnalysisResponse struct {
	Analysis models.SellerPropensityAnalysis `json:"analysis"`
	Metadata ResponseMetadata                `json:"metadata"`
}

// PushRequest is the body of POST /api/predictions/seller/push.
type PushRequest struct {
	PropertyIDs []string `json:"propertyIds" binding:"required,min=1"`
	Campaign    string   `json:"campaign,omitempty"`
}

// PushResponse summarizes a CRM forwarding attempt.
type PushResponse struct {
	Requested int      `json:"requested"`
	Matched   int      `json:"matched"`
	Delivered int      `json:"delivered"`
	Campaign  string   `json:"campaign,omitempty"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// RebuildResponse is the body of POST /api/feature-store/rebuild.
type RebuildResponse struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	RecordCount int                  `json:"recordCount"`
	Stats       models.SnapshotStats `json:"stats"`
}

// RegisterModelRequest delivers a trained model's weights and metadata.
type RegisterModelRequest struct {
	Algorithm       string              `json:"algorithm" binding:"required"`
	Version         string              `json:"version,omitempty"`
	TrainedAt       time.Time           `json:"trainedAt" binding:"required"`
	Intercept       float64             `json:"intercept"`
	Coefficients    map[string]float64  `json:"coefficients" binding:"required"`
	Metrics         models.ModelMetrics `json:"metrics"`
	Hyperparameters map[string]float64  `json:"hyperparameters,omitempty"`
}

// RegistryResponse lists trained models, newest first.
type RegistryResponse struct {
	Models []models.ModelRegistryEntry `json:"models"`
}
