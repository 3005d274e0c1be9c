package models

import "time"

// Feature store source group names. Quality.Sources lists the groups with at
// least one contributing event or value; Completeness is |sources| / 4.
const (
	SourceTransactions = "transactions"
	SourceListings     = "listings"
	SourceEngagement   = "engagement"
	SourceMacro        = "macro"

	TotalFeatureSources = 4
)

// TransactionSummary condenses a property's deed and loan history.
type TransactionSummary struct {
	LastSaleDate      *string  `json:"lastSaleDate,omitempty"`
	LastSalePrice     *float64 `json:"lastSalePrice,omitempty"`
	OwnershipYears    *int     `json:"ownershipYears,omitempty"`
	MonthsSinceSale   *int     `json:"monthsSinceSale,omitempty"`
	RefinanceCount36M int      `json:"refinanceCount36m"`
}

// ListingSummary condenses a property's MLS listing history.
type ListingSummary struct {
	LastListedDate  *string  `json:"lastListedDate,omitempty"`
	LastStatus      *string  `json:"lastStatus,omitempty"`
	ActiveListings  int      `json:"activeListings"`
	ListingsPast12M int      `json:"listingsPast12m"`
	AvgDaysOnMarket *float64 `json:"avgDaysOnMarket,omitempty"`
}

// EngagementSummary condenses marketing touches on the property owner.
type EngagementSummary struct {
	LastEngagedAt        *string        `json:"lastEngagedAt,omitempty"`
	EventsLast90Days     int            `json:"eventsLast90Days"`
	HighIntentLast30Days int            `json:"highIntentLast30Days"`
	MultiChannelScore    float64        `json:"multiChannelScore"`
	ChannelCounts        map[string]int `json:"channelCounts"`
}

// MacroSummary carries market conditions for the property's geography.
// All fields are nullable; missing market data never blocks a build.
type MacroSummary struct {
	AffordabilityScore *float64 `json:"affordabilityScore,omitempty"`
	MortgageRatePct    *float64 `json:"mortgageRatePct,omitempty"`
	MarketVelocity     *float64 `json:"marketVelocity,omitempty"`
	MarketHealth       *string  `json:"marketHealth,omitempty"`
}

// FeatureQuality tracks which source groups contributed to a record.
type FeatureQuality struct {
	Sources      []string `json:"sources"`
	Completeness float64  `json:"completeness"`
}

// SellerFeatureRecord is the derived per-property feature row. Rebuilds
// overwrite records wholesale.
type SellerFeatureRecord struct {
	PropertyID         string             `json:"propertyId"`
	TransactionSummary TransactionSummary `json:"transactionSummary"`
	ListingSummary     ListingSummary     `json:"listingSummary"`
	EngagementSummary  EngagementSummary  `json:"engagementSummary"`
	MacroSummary       MacroSummary       `json:"macroSummary"`
	Quality            FeatureQuality     `json:"quality"`
}

// FeatureStoreSourceVersions fingerprints the inputs a snapshot was built
// from, for downstream cache invalidation.
type FeatureStoreSourceVersions map[string]string

// SnapshotStats aggregates coverage across a snapshot's records.
type SnapshotStats struct {
	PropertiesWithTransactions int     `json:"propertiesWithTransactions"`
	PropertiesWithListings     int     `json:"propertiesWithListings"`
	PropertiesWithEngagement   int     `json:"propertiesWithEngagement"`
	AverageCompleteness        float64 `json:"averageCompleteness"`
}

// QualityMetric is a reporting-friendly roll-up of one snapshot statistic.
type QualityMetric struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Target float64 `json:"target"`
}

// SellerFeatureSnapshot is the versioned output of one feature store build.
type SellerFeatureSnapshot struct {
	GeneratedAt    time.Time                  `json:"generatedAt"`
	RecordCount    int                        `json:"recordCount"`
	Stats          SnapshotStats              `json:"stats"`
	SourceVersions FeatureStoreSourceVersions `json:"sourceVersions,omitempty"`
	Records        []SellerFeatureRecord      `json:"records"`
	QualityMetrics []QualityMetric            `json:"qualityMetrics"`
}
