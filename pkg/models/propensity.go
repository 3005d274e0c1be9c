package models

import "time"

// PropertyOpportunity is one row of the owner-outreach catalogue, supplied by
// the upstream property data pipeline as plain JSON.
type PropertyOpportunity struct {
	PropertyID     string  `json:"propertyId"`
	Address        string  `json:"address"`
	Owner          string  `json:"owner"`
	Priority       string  `json:"priority"`
	OwnerType      string  `json:"ownerType"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Zip            string  `json:"zip"`
	EstimatedValue float64 `json:"estimatedValue"`
	LoanBalance    float64 `json:"loanBalance"`
	YearsInHome    float64 `json:"yearsInHome"`
}

// Equity returns the owner's estimated equity position.
func (p PropertyOpportunity) Equity() float64 {
	return p.EstimatedValue - p.LoanBalance
}

// PropertyDetails is the catalogue snapshot carried on each score.
type PropertyDetails struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	Priority string `json:"priority"`
}

// Geography locates a property for filtering and market-data lookups.
type Geography struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// ModelPrediction is the trained model's probability estimate, present only
// when a persisted model was available at scoring time.
type ModelPrediction struct {
	Probability float64 `json:"probability"`
	ModelID     string  `json:"modelId"`
}

// Attribution is the blend ratio between heuristic and model scores.
// Weights sum to 1; without a model HeuristicWeight is exactly 1.
type Attribution struct {
	HeuristicWeight float64 `json:"heuristicWeight"`
	ModelWeight     float64 `json:"modelWeight"`
}

// SellerPropensityScore is the scored output for one property.
type SellerPropensityScore struct {
	PropertyID          string            `json:"propertyId"`
	PropertyDetails     PropertyDetails   `json:"propertyDetails"`
	Geography           Geography         `json:"geography"`
	Cohorts             map[string]string `json:"cohorts"`
	OverallScore        int               `json:"overallScore"`
	HeuristicScore      float64           `json:"heuristicScore"`
	Confidence          float64           `json:"confidence"`
	ModelPrediction     *ModelPrediction  `json:"modelPrediction,omitempty"`
	Attribution         Attribution       `json:"attribution"`
	FeatureCompleteness float64           `json:"featureCompleteness"`
	Drivers             []string          `json:"drivers"`
	RiskFlags           []string          `json:"riskFlags"`
}

// ScoreFilters are the conjunctive catalogue filters. MinScore applies to the
// computed overall score; the rest are attribute filters.
type ScoreFilters struct {
	Query     string   `json:"query,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	Zip       string   `json:"zip,omitempty"`
	MinScore  *float64 `json:"minScore,omitempty"`
	MinEquity *float64 `json:"minEquity,omitempty"`
	MinYears  *float64 `json:"minYears,omitempty"`
}

// AnalysisInputs echoes the filters and limit a run was invoked with.
type AnalysisInputs struct {
	Filters ScoreFilters `json:"filters"`
	Limit   int          `json:"limit,omitempty"`
}

// AnalysisSummary aggregates a run's score distribution.
type AnalysisSummary struct {
	AverageScore      float64 `json:"averageScore"`
	MedianScore       float64 `json:"medianScore"`
	MinScore          int     `json:"minScore"`
	MaxScore          int     `json:"maxScore"`
	AverageConfidence float64 `json:"averageConfidence"`
}

// ComponentWeights is the heuristic sub-signal weighting, normalized to sum
// to 1 and echoed in every analysis for auditability.
type ComponentWeights struct {
	EquityUpside   float64 `json:"equityUpside"`
	Tenure         float64 `json:"tenure"`
	Engagement     float64 `json:"engagement"`
	MarketVelocity float64 `json:"marketVelocity"`
	Affordability  float64 `json:"affordability"`
}

// ModelMetadata identifies the trained model used by a run.
type ModelMetadata struct {
	ModelID   string    `json:"modelId"`
	Algorithm string    `json:"algorithm"`
	Version   string    `json:"version,omitempty"`
	TrainedAt time.Time `json:"trainedAt"`
}

// SellerPropensityAnalysis is the immutable batch scoring output.
type SellerPropensityAnalysis struct {
	GeneratedAt      time.Time               `json:"generatedAt"`
	SampleSize       int                     `json:"sampleSize"`
	Inputs           AnalysisInputs          `json:"inputs"`
	Summary          AnalysisSummary         `json:"summary"`
	ComponentWeights ComponentWeights        `json:"componentWeights"`
	ModelMetadata    *ModelMetadata          `json:"modelMetadata,omitempty"`
	Scores           []SellerPropensityScore `json:"scores"`
}

// ModelMetrics are the trainer-reported evaluation metrics.
type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	LogLoss   float64 `json:"logLoss"`
	AUC       float64 `json:"auc"`
}

// ModelRegistryEntry records one trained model, newest-trained first in the
// registry file.
type ModelRegistryEntry struct {
	ID              string             `json:"id"`
	Algorithm       string             `json:"algorithm"`
	TrainedAt       time.Time          `json:"trainedAt"`
	FileName        string             `json:"fileName"`
	Metrics         ModelMetrics       `json:"metrics"`
	Hyperparameters map[string]float64 `json:"hyperparameters,omitempty"`
}

// RunLogEntry is the compact persisted record of one scoring run.
type RunLogEntry struct {
	GeneratedAt      time.Time        `json:"generatedAt"`
	SampleSize       int              `json:"sampleSize"`
	PropertyIDs      []string         `json:"propertyIds"`
	Inputs           AnalysisInputs   `json:"inputs"`
	Summary          AnalysisSummary  `json:"summary"`
	ComponentWeights ComponentWeights `json:"componentWeights"`
	ModelMetadata    *ModelMetadata   `json:"modelMetadata,omitempty"`
}
