package scoring

import (
	"github.com/seelander09/home-marketing-sub001/pkg/config"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// DefaultComponentWeights is the stock heuristic weighting. The exact values
// are tuning, not contract; they are always echoed in the analysis output.
func DefaultComponentWeights() models.ComponentWeights {
	return models.ComponentWeights{
		EquityUpside:   0.30,
		Tenure:         0.20,
		Engagement:     0.25,
		MarketVelocity: 0.15,
		Affordability:  0.10,
	}
}

// ComponentWeightsFromEnv reads weight overrides from the environment,
// falling back to the defaults per component.
func ComponentWeightsFromEnv() models.ComponentWeights {
	defaults := DefaultComponentWeights()
	return models.ComponentWeights{
		EquityUpside:   config.GetEnvFloat("SCORE_WEIGHT_EQUITY_UPSIDE", defaults.EquityUpside),
		Tenure:         config.GetEnvFloat("SCORE_WEIGHT_TENURE", defaults.Tenure),
		Engagement:     config.GetEnvFloat("SCORE_WEIGHT_ENGAGEMENT", defaults.Engagement),
		MarketVelocity: config.GetEnvFloat("SCORE_WEIGHT_MARKET_VELOCITY", defaults.MarketVelocity),
		Affordability:  config.GetEnvFloat("SCORE_WEIGHT_AFFORDABILITY", defaults.Affordability),
	}
}

// normalizeWeights scales weights to sum to 1 so the blend stays in [0,1]
// even with ad-hoc overrides. Non-positive totals fall back to defaults.
func normalizeWeights(w models.ComponentWeights) models.ComponentWeights {
	sum := w.EquityUpside + w.Tenure + w.Engagement + w.MarketVelocity + w.Affordability
	if sum <= 0 {
		return DefaultComponentWeights()
	}
	return models.ComponentWeights{
		EquityUpside:   w.EquityUpside / sum,
		Tenure:         w.Tenure / sum,
		Engagement:     w.Engagement / sum,
		MarketVelocity: w.MarketVelocity / sum,
		Affordability:  w.Affordability / sum,
	}
}
