package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seelander09/home-marketing-sub001/internal/modelregistry"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// CatalogSource supplies the property opportunity catalogue.
type CatalogSource interface {
	ListAllPropertyOpportunities(ctx context.Context) ([]models.PropertyOpportunity, error)
}

// FeatureSource supplies per-property feature records. A nil record means no
// features exist for the property; scoring still proceeds.
type FeatureSource interface {
	Record(propertyID string) (*models.SellerFeatureRecord, error)
}

// ModelSource supplies the active trained model, nil when none is available.
type ModelSource interface {
	ActiveModel() (*modelregistry.Weights, error)
}

// Options parameterizes one scoring run.
type Options struct {
	Filters models.ScoreFilters
	Limit   int
}

// Config wires a Scorer. Weights of zero value fall back to the defaults.
type Config struct {
	Catalog  CatalogSource
	Features FeatureSource
	Models   ModelSource
	Weights  models.ComponentWeights
	Clock    func() time.Time
	Logger   logging.Logger
}

// Scorer ranks property owners by likelihood-to-sell, blending heuristic
// sub-signals with an optional trained model.
type Scorer struct {
	catalog  CatalogSource
	features FeatureSource
	models   ModelSource
	weights  models.ComponentWeights
	clock    func() time.Time
	logger   logging.Logger
}

// NewScorer constructs a Scorer.
func NewScorer(cfg Config) *Scorer {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Scorer{
		catalog:  cfg.Catalog,
		features: cfg.Features,
		models:   cfg.Models,
		weights:  normalizeWeights(cfg.Weights),
		clock:    clock,
		logger:   cfg.Logger,
	}
}

// Materiality threshold on the normalized signal below which a positive
// sub-signal is not reported as a driver.
const driverThreshold = 0.6

// ScoreAll runs the full pipeline: catalogue, attribute filters, limit,
// per-property scoring, minScore, deterministic ordering, summary stats.
// An empty catalogue or filters matching nothing yield SampleSize 0, not an
// error.
func (s *Scorer) ScoreAll(ctx context.Context, opts Options) (*models.SellerPropensityAnalysis, error) {
	opportunities, err := s.catalog.ListAllPropertyOpportunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	opportunities = applyAttributeFilters(opportunities, opts.Filters)
	if opts.Limit > 0 && len(opportunities) > opts.Limit {
		opportunities = opportunities[:opts.Limit]
	}

	var model *modelregistry.Weights
	if s.models != nil {
		model, err = s.models.ActiveModel()
		if err != nil {
			if s.logger != nil {
				s.logger.WithError(err).Warn("Model registry unavailable, scoring heuristic-only")
			}
			model = nil
		}
	}

	scores := make([]models.SellerPropensityScore, 0, len(opportunities))
	for _, opp := range opportunities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var record *models.SellerFeatureRecord
		if s.features != nil {
			record, err = s.features.Record(opp.PropertyID)
			if err != nil {
				return nil, fmt.Errorf("feature record %s: %w", opp.PropertyID, err)
			}
		}

		score := s.scoreProperty(opp, record, model)
		if opts.Filters.MinScore != nil && float64(score.OverallScore) < *opts.Filters.MinScore {
			continue
		}
		scores = append(scores, score)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].OverallScore != scores[j].OverallScore {
			return scores[i].OverallScore > scores[j].OverallScore
		}
		if scores[i].Confidence != scores[j].Confidence {
			return scores[i].Confidence > scores[j].Confidence
		}
		return scores[i].PropertyID < scores[j].PropertyID
	})

	analysis := &models.SellerPropensityAnalysis{
		GeneratedAt: s.clock().UTC(),
		SampleSize:  len(scores),
		Inputs: models.AnalysisInputs{
			Filters: opts.Filters,
			Limit:   opts.Limit,
		},
		Summary:          summarize(scores),
		ComponentWeights: s.weights,
		Scores:           scores,
	}
	if model != nil {
		analysis.ModelMetadata = &models.ModelMetadata{
			ModelID:   model.ModelID,
			Algorithm: model.Algorithm,
			Version:   model.Version,
			TrainedAt: model.TrainedAt,
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"sample_size":   analysis.SampleSize,
			"average_score": analysis.Summary.AverageScore,
			"model_used":    model != nil,
		}).Info("Scored property opportunities")
	}
	return analysis, nil
}

func (s *Scorer) scoreProperty(opp models.PropertyOpportunity, record *models.SellerFeatureRecord, model *modelregistry.Weights) models.SellerPropensityScore {
	sig := computeSignals(opp, record)
	heuristic := sig.heuristicScore(s.weights)

	attribution := models.Attribution{HeuristicWeight: 1}
	var prediction *models.ModelPrediction
	blended := heuristic
	if model != nil {
		probability := model.Predict(sig.modelFeatures())
		prediction = &models.ModelPrediction{
			Probability: probability,
			ModelID:     model.ModelID,
		}
		// Trust the model in proportion to how complete its inputs are.
		attribution.ModelWeight = 0.6 * sig.Completeness
		attribution.HeuristicWeight = 1 - attribution.ModelWeight
		blended = attribution.HeuristicWeight*heuristic + attribution.ModelWeight*probability
	}

	confidence := 0.3 + 0.5*sig.Completeness
	if prediction != nil {
		// Decisiveness of the probability stands in for model confidence.
		confidence += 0.2 * math.Abs(prediction.Probability-0.5) * 2
	}
	confidence = clamp01(confidence)

	return models.SellerPropensityScore{
		PropertyID: opp.PropertyID,
		PropertyDetails: models.PropertyDetails{
			Address:  opp.Address,
			Owner:    opp.Owner,
			Priority: opp.Priority,
		},
		Geography: models.Geography{
			City:  opp.City,
			State: opp.State,
			Zip:   opp.Zip,
		},
		Cohorts: map[string]string{
			"ownerType": opp.OwnerType,
			"priority":  opp.Priority,
		},
		OverallScore:        int(math.Round(blended * 100)),
		HeuristicScore:      heuristic,
		Confidence:          confidence,
		ModelPrediction:     prediction,
		Attribution:         attribution,
		FeatureCompleteness: sig.Completeness,
		Drivers:             s.drivers(sig),
		RiskFlags:           riskFlags(sig, record),
	}
}

type driverCandidate struct {
	label        string
	signal       float64
	contribution float64
}

// drivers reports the material positive sub-signals, strongest contribution
// first.
func (s *Scorer) drivers(sig signals) []string {
	candidates := []driverCandidate{
		{"High equity upside", sig.EquityUpside, sig.EquityUpside * s.weights.EquityUpside},
		{"Long ownership tenure", sig.Tenure, sig.Tenure * s.weights.Tenure},
		{"Recent high-intent engagement", sig.Engagement, sig.Engagement * s.weights.Engagement},
		{"Strong market velocity", sig.MarketVelocity, sig.MarketVelocity * s.weights.MarketVelocity},
		{"Favorable affordability conditions", sig.Affordability, sig.Affordability * s.weights.Affordability},
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].contribution > candidates[j].contribution
	})

	drivers := []string{}
	for _, c := range candidates {
		if c.signal >= driverThreshold {
			drivers = append(drivers, c.label)
		}
	}
	return drivers
}

func riskFlags(sig signals, record *models.SellerFeatureRecord) []string {
	flags := []string{}
	if record == nil || record.EngagementSummary.EventsLast90Days == 0 {
		flags = append(flags, "No engagement in 90+ days")
	}
	if sig.Completeness < 0.5 {
		flags = append(flags, "Low data completeness")
	}
	if sig.EquityUpside < 0.2 {
		flags = append(flags, "Limited equity headroom")
	}
	if record != nil && record.ListingSummary.ActiveListings > 0 {
		flags = append(flags, "Property already actively listed")
	}
	return flags
}

func summarize(scores []models.SellerPropensityScore) models.AnalysisSummary {
	if len(scores) == 0 {
		return models.AnalysisSummary{}
	}

	var summary models.AnalysisSummary
	summary.MinScore = scores[0].OverallScore
	summary.MaxScore = scores[0].OverallScore

	var scoreSum, confidenceSum float64
	sorted := make([]int, 0, len(scores))
	for _, score := range scores {
		scoreSum += float64(score.OverallScore)
		confidenceSum += score.Confidence
		if score.OverallScore < summary.MinScore {
			summary.MinScore = score.OverallScore
		}
		if score.OverallScore > summary.MaxScore {
			summary.MaxScore = score.OverallScore
		}
		sorted = append(sorted, score.OverallScore)
	}
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 1 {
		summary.MedianScore = float64(sorted[n/2])
	} else {
		summary.MedianScore = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}
	summary.AverageScore = scoreSum / float64(n)
	summary.AverageConfidence = confidenceSum / float64(n)
	return summary
}
