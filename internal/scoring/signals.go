package scoring

import (
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// tenureHorizonYears is where the tenure signal saturates.
const tenureHorizonYears = 15.0

// signals are the normalized heuristic sub-signals, each in [0,1]. The same
// values feed the heuristic blend, the logistic model features and the
// driver attribution.
type signals struct {
	EquityUpside   float64
	Tenure         float64
	Engagement     float64
	MarketVelocity float64
	Affordability  float64
	Completeness   float64
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func computeSignals(opp models.PropertyOpportunity, record *models.SellerFeatureRecord) signals {
	var s signals

	if opp.EstimatedValue > 0 {
		s.EquityUpside = clamp01(opp.Equity() / opp.EstimatedValue)
	}

	years := opp.YearsInHome
	if record != nil && record.TransactionSummary.OwnershipYears != nil {
		years = float64(*record.TransactionSummary.OwnershipYears)
	}
	s.Tenure = clamp01(years / tenureHorizonYears)

	if record != nil {
		eng := record.EngagementSummary
		s.Engagement = clamp01(
			0.4*clamp01(float64(eng.EventsLast90Days)/5) +
				0.4*clamp01(float64(eng.HighIntentLast30Days)/2) +
				0.2*clamp01(eng.MultiChannelScore))

		macro := record.MacroSummary
		if macro.MarketVelocity != nil {
			s.MarketVelocity = clamp01(*macro.MarketVelocity / 100)
		}
		if macro.AffordabilityScore != nil {
			s.Affordability = clamp01(*macro.AffordabilityScore / 100)
		}
		s.Completeness = clamp01(record.Quality.Completeness)
	}

	return s
}

// modelFeatures exposes the signals under stable names for trained models.
func (s signals) modelFeatures() map[string]float64 {
	return map[string]float64{
		"equityUpside":   s.EquityUpside,
		"tenure":         s.Tenure,
		"engagement":     s.Engagement,
		"marketVelocity": s.MarketVelocity,
		"affordability":  s.Affordability,
		"completeness":   s.Completeness,
	}
}

func (s signals) heuristicScore(w models.ComponentWeights) float64 {
	return clamp01(s.EquityUpside*w.EquityUpside +
		s.Tenure*w.Tenure +
		s.Engagement*w.Engagement +
		s.MarketVelocity*w.MarketVelocity +
		s.Affordability*w.Affordability)
}
