package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
	"github.com/seelander09/home-marketing-sub001/pkg/validation"
)

// MarketDataProvider supplies macro market conditions for a geography.
// Implementations degrade missing regions to null fields rather than failing.
type MarketDataProvider interface {
	MacroSummary(ctx context.Context, geo models.Geography) (models.MacroSummary, error)
}

// Clock abstracts "now" so recency windows are testable.
type Clock func() time.Time

// BuildInput is everything one snapshot build consumes.
type BuildInput struct {
	PropertyIDs []string
	Bundle      *validation.IngestionBundle
	Sources     models.FeatureStoreSourceVersions
	Geographies map[string]models.Geography
}

// Builder aggregates raw event bundles into per-property feature records.
type Builder struct {
	market MarketDataProvider
	clock  Clock
	logger logging.Logger
}

// BuilderConfig configures a Builder. Market and Clock are optional; a nil
// Clock means wall time and a nil Market leaves macro summaries empty.
type BuilderConfig struct {
	Market MarketDataProvider
	Clock  Clock
	Logger logging.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Builder{
		market: cfg.Market,
		clock:  clock,
		logger: cfg.Logger,
	}
}

// Engagement labels that signal selling intent even on low-intent channels.
var highIntentKeywords = []string{
	"valuation", "appraisal", "cash-offer", "sell", "listing-consult", "cma",
}

// BuildSnapshot builds one feature record per input property id, in input
// order, then rolls up snapshot-level stats and quality metrics. A property
// with no events in any collection still yields a record with completeness 0.
func (b *Builder) BuildSnapshot(ctx context.Context, input BuildInput) (*models.SellerFeatureSnapshot, error) {
	if input.Bundle == nil {
		input.Bundle = &validation.IngestionBundle{}
	}
	now := b.clock().UTC()

	records := make([]models.SellerFeatureRecord, 0, len(input.PropertyIDs))
	for _, propertyID := range input.PropertyIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := models.SellerFeatureRecord{PropertyID: propertyID}
		var err error

		record.TransactionSummary, err = b.buildTransactionSummary(filterTransactions(input.Bundle.Transactions, propertyID), now)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", propertyID, err)
		}
		record.ListingSummary, err = b.buildListingSummary(filterListings(input.Bundle.Listings, propertyID), now)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", propertyID, err)
		}
		record.EngagementSummary, err = b.buildEngagementSummary(filterEngagement(input.Bundle.Engagement, propertyID), now)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", propertyID, err)
		}

		if b.market != nil {
			if geo, ok := input.Geographies[propertyID]; ok {
				record.MacroSummary, err = b.market.MacroSummary(ctx, geo)
				if err != nil {
					return nil, fmt.Errorf("property %s: macro summary: %w", propertyID, err)
				}
			}
		}

		record.Quality = buildQuality(record)
		records = append(records, record)
	}

	snapshot := &models.SellerFeatureSnapshot{
		GeneratedAt:    now,
		RecordCount:    len(records),
		Stats:          buildStats(records),
		SourceVersions: input.Sources,
		Records:        records,
	}
	snapshot.QualityMetrics = buildQualityMetrics(snapshot)

	if b.logger != nil {
		b.logger.WithFields(logging.Fields{
			"records":              snapshot.RecordCount,
			"average_completeness": snapshot.Stats.AverageCompleteness,
		}).Info("Built seller feature snapshot")
	}
	return snapshot, nil
}

func filterTransactions(events []validation.TransactionEvent, propertyID string) []validation.TransactionEvent {
	var out []validation.TransactionEvent
	for _, e := range events {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out
}

func filterListings(events []validation.ListingEvent, propertyID string) []validation.ListingEvent {
	var out []validation.ListingEvent
	for _, e := range events {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out
}

func filterEngagement(events []validation.EngagementEvent, propertyID string) []validation.EngagementEvent {
	var out []validation.EngagementEvent
	for _, e := range events {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out
}

func (b *Builder) buildTransactionSummary(events []validation.TransactionEvent, now time.Time) (models.TransactionSummary, error) {
	var summary models.TransactionSummary

	var lastSale *validation.TransactionEvent
	var lastSaleDate time.Time
	refinanceCutoff := now.AddDate(0, -36, 0)

	for i := range events {
		event := events[i]
		closed, err := validation.ParseDate(event.ClosedDate)
		if err != nil {
			return summary, err
		}

		if event.EventType == "sale" && (lastSale == nil || closed.After(lastSaleDate)) {
			lastSale = &events[i]
			lastSaleDate = closed
		}
		if event.EventType == "refinance" && !closed.Before(refinanceCutoff) {
			summary.RefinanceCount36M++
		}
	}

	if lastSale != nil {
		date := lastSale.ClosedDate
		summary.LastSaleDate = &date
		summary.LastSalePrice = lastSale.Price
		years := wholeYearsBetween(lastSaleDate, now)
		months := wholeMonthsBetween(lastSaleDate, now)
		summary.OwnershipYears = &years
		summary.MonthsSinceSale = &months
	}
	return summary, nil
}

func (b *Builder) buildListingSummary(events []validation.ListingEvent, now time.Time) (models.ListingSummary, error) {
	var summary models.ListingSummary

	var lastListed *validation.ListingEvent
	var lastListedDate time.Time
	twelveMonthsAgo := now.AddDate(0, -12, 0)

	var domSum float64
	var domCount int

	for i := range events {
		event := events[i]
		listed, err := validation.ParseDate(event.ListedDate)
		if err != nil {
			return summary, err
		}

		if lastListed == nil || listed.After(lastListedDate) {
			lastListed = &events[i]
			lastListedDate = listed
		}
		if !listed.Before(twelveMonthsAgo) {
			summary.ListingsPast12M++
		}
		switch event.Status {
		case "active", "pending", "coming-soon":
			summary.ActiveListings++
		}
		if event.DaysOnMarket != nil {
			domSum += float64(*event.DaysOnMarket)
			domCount++
		}
	}

	if lastListed != nil {
		date := lastListed.ListedDate
		status := lastListed.Status
		summary.LastListedDate = &date
		summary.LastStatus = &status
	}
	if domCount > 0 {
		avg := domSum / float64(domCount)
		summary.AvgDaysOnMarket = &avg
	}
	return summary, nil
}

func (b *Builder) buildEngagementSummary(events []validation.EngagementEvent, now time.Time) (models.EngagementSummary, error) {
	summary := models.EngagementSummary{ChannelCounts: map[string]int{}}

	var lastEngaged *validation.EngagementEvent
	var lastEngagedDate time.Time
	ninetyDaysAgo := now.AddDate(0, 0, -90)
	thirtyDaysAgo := now.AddDate(0, 0, -30)

	for i := range events {
		event := events[i]
		occurred, err := validation.ParseDate(event.OccurredAt)
		if err != nil {
			return summary, err
		}

		if lastEngaged == nil || occurred.After(lastEngagedDate) {
			lastEngaged = &events[i]
			lastEngagedDate = occurred
		}
		if !occurred.Before(ninetyDaysAgo) {
			summary.EventsLast90Days++
		}
		if !occurred.Before(thirtyDaysAgo) && isHighIntent(event) {
			summary.HighIntentLast30Days++
		}
		summary.ChannelCounts[event.Channel]++
	}

	if lastEngaged != nil {
		date := lastEngaged.OccurredAt
		summary.LastEngagedAt = &date
	}
	summary.MultiChannelScore = float64(len(summary.ChannelCounts)) / float64(validation.TotalChannels)
	return summary, nil
}

func isHighIntent(event validation.EngagementEvent) bool {
	if event.Channel == validation.ChannelCall || event.Channel == validation.ChannelApp {
		return true
	}
	label := strings.ToLower(event.Event)
	for _, keyword := range highIntentKeywords {
		if strings.Contains(label, keyword) {
			return true
		}
	}
	return false
}

func buildQuality(record models.SellerFeatureRecord) models.FeatureQuality {
	var sources []string
	if record.TransactionSummary.LastSaleDate != nil || record.TransactionSummary.RefinanceCount36M > 0 {
		sources = append(sources, models.SourceTransactions)
	}
	if record.ListingSummary.LastListedDate != nil {
		sources = append(sources, models.SourceListings)
	}
	if record.EngagementSummary.LastEngagedAt != nil {
		sources = append(sources, models.SourceEngagement)
	}
	macro := record.MacroSummary
	if macro.AffordabilityScore != nil || macro.MortgageRatePct != nil || macro.MarketVelocity != nil || macro.MarketHealth != nil {
		sources = append(sources, models.SourceMacro)
	}
	if sources == nil {
		sources = []string{}
	}
	return models.FeatureQuality{
		Sources:      sources,
		Completeness: float64(len(sources)) / float64(models.TotalFeatureSources),
	}
}

func buildStats(records []models.SellerFeatureRecord) models.SnapshotStats {
	var stats models.SnapshotStats
	var completenessSum float64
	for _, record := range records {
		for _, source := range record.Quality.Sources {
			switch source {
			case models.SourceTransactions:
				stats.PropertiesWithTransactions++
			case models.SourceListings:
				stats.PropertiesWithListings++
			case models.SourceEngagement:
				stats.PropertiesWithEngagement++
			}
		}
		completenessSum += record.Quality.Completeness
	}
	if len(records) > 0 {
		stats.AverageCompleteness = completenessSum / float64(len(records))
	}
	return stats
}

func buildQualityMetrics(snapshot *models.SellerFeatureSnapshot) []models.QualityMetric {
	total := snapshot.RecordCount
	pct := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return float64(n) / float64(total) * 100
	}
	return []models.QualityMetric{
		{ID: "transaction-coverage", Label: "Properties with transaction history", Value: pct(snapshot.Stats.PropertiesWithTransactions), Unit: "%", Target: 80},
		{ID: "listing-coverage", Label: "Properties with listing history", Value: pct(snapshot.Stats.PropertiesWithListings), Unit: "%", Target: 40},
		{ID: "engagement-coverage", Label: "Properties with engagement touches", Value: pct(snapshot.Stats.PropertiesWithEngagement), Unit: "%", Target: 60},
		{ID: "average-completeness", Label: "Average feature completeness", Value: snapshot.Stats.AverageCompleteness, Unit: "ratio", Target: 0.75},
	}
}

// wholeYearsBetween counts completed years from earlier to later.
func wholeYearsBetween(earlier, later time.Time) int {
	years := later.Year() - earlier.Year()
	anniversary := earlier.AddDate(years, 0, 0)
	if anniversary.After(later) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// wholeMonthsBetween counts completed months from earlier to later.
func wholeMonthsBetween(earlier, later time.Time) int {
	months := (later.Year()-earlier.Year())*12 + int(later.Month()) - int(earlier.Month())
	if later.Day() < earlier.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
