package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus metrics for the seller propensity service
type Metrics struct {
	ScoringRuns        *prometheus.CounterVec
	ScoringDuration    *prometheus.HistogramVec
	PropertiesScored   *prometheus.CounterVec
	FeatureStoreBuilds *prometheus.CounterVec
	CRMPushes          *prometheus.CounterVec
	ModelRegistrations *prometheus.CounterVec
}
