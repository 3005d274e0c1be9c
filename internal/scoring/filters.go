package scoring

import (
	"strings"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// applyAttributeFilters applies the conjunctive catalogue filters. MinScore
// is not handled here: it targets the computed overall score and is applied
// after scoring.
func applyAttributeFilters(opportunities []models.PropertyOpportunity, f models.ScoreFilters) []models.PropertyOpportunity {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var out []models.PropertyOpportunity
	for _, opp := range opportunities {
		if query != "" &&
			!strings.Contains(strings.ToLower(opp.Address), query) &&
			!strings.Contains(strings.ToLower(opp.Owner), query) {
			continue
		}
		if f.City != "" && !strings.EqualFold(opp.City, f.City) {
			continue
		}
		if f.State != "" && !strings.EqualFold(opp.State, f.State) {
			continue
		}
		if f.Zip != "" && !strings.HasPrefix(opp.Zip, f.Zip) {
			continue
		}
		if f.MinEquity != nil && opp.Equity() < *f.MinEquity {
			continue
		}
		if f.MinYears != nil && opp.YearsInHome < *f.MinYears {
			continue
		}
		out = append(out, opp)
	}
	return out
}
