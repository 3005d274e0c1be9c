package validation

import (
	"strings"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestValidateTransactions_TableDriven(t *testing.T) {
	cases := []struct {
		name string
		evt  TransactionEvent
		ok   bool
	}{
		{"sale ok", TransactionEvent{PropertyID: "p1", EventType: "sale", ClosedDate: "2022-01-01", Price: floatPtr(450000)}, true},
		{"refinance without price ok", TransactionEvent{PropertyID: "p1", EventType: "refinance", ClosedDate: "2023-06-15"}, true},
		{"missing property id", TransactionEvent{EventType: "sale", ClosedDate: "2022-01-01"}, false},
		{"unknown event type", TransactionEvent{PropertyID: "p1", EventType: "foreclosure", ClosedDate: "2022-01-01"}, false},
		{"negative price", TransactionEvent{PropertyID: "p1", EventType: "sale", ClosedDate: "2022-01-01", Price: floatPtr(-1)}, false},
		{"impossible calendar date", TransactionEvent{PropertyID: "p1", EventType: "sale", ClosedDate: "2024-02-31"}, false},
		{"non-ISO date", TransactionEvent{PropertyID: "p1", EventType: "sale", ClosedDate: "01/02/2022"}, false},
	}

	v := NewEventValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateTransactions([]TransactionEvent{tc.evt})
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateListings_TableDriven(t *testing.T) {
	cases := []struct {
		name string
		evt  ListingEvent
		ok   bool
	}{
		{"active ok", ListingEvent{PropertyID: "p1", ListingID: "l1", ListedDate: "2024-03-01", Status: "active", ListPrice: 500000, DaysOnMarket: intPtr(12)}, true},
		{"nullable days on market", ListingEvent{PropertyID: "p1", ListingID: "l2", ListedDate: "2024-03-01", Status: "sold", ListPrice: 510000}, true},
		{"missing listing id", ListingEvent{PropertyID: "p1", ListedDate: "2024-03-01", Status: "active", ListPrice: 500000}, false},
		{"bad status", ListingEvent{PropertyID: "p1", ListingID: "l1", ListedDate: "2024-03-01", Status: "paused", ListPrice: 500000}, false},
		{"negative days on market", ListingEvent{PropertyID: "p1", ListingID: "l1", ListedDate: "2024-03-01", Status: "active", ListPrice: 500000, DaysOnMarket: intPtr(-3)}, false},
		{"invalid date", ListingEvent{PropertyID: "p1", ListingID: "l1", ListedDate: "2024-13-01", Status: "active", ListPrice: 500000}, false},
	}

	v := NewEventValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateListings([]ListingEvent{tc.evt})
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateEngagementEvents_TableDriven(t *testing.T) {
	cases := []struct {
		name string
		evt  EngagementEvent
		ok   bool
	}{
		{"email ok", EngagementEvent{PropertyID: "p1", Channel: "email", Event: "newsletter-open", OccurredAt: "2024-06-01"}, true},
		{"call with metadata ok", EngagementEvent{PropertyID: "p1", Channel: "call", Event: "valuation-request", OccurredAt: "2024-06-02", Campaign: "q2-outreach", Metadata: map[string]interface{}{"durationSeconds": 240}}, true},
		{"unknown channel", EngagementEvent{PropertyID: "p1", Channel: "fax", Event: "x", OccurredAt: "2024-06-01"}, false},
		{"missing event label", EngagementEvent{PropertyID: "p1", Channel: "web", OccurredAt: "2024-06-01"}, false},
		{"invalid date", EngagementEvent{PropertyID: "p1", Channel: "web", Event: "visit", OccurredAt: "yesterday"}, false},
	}

	v := NewEventValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateEngagementEvents([]EngagementEvent{tc.evt})
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestBatchValidationFailsWholeBatchAndNamesOffender(t *testing.T) {
	v := NewEventValidator()
	events := []TransactionEvent{
		{PropertyID: "austin-elm-001", EventType: "sale", ClosedDate: "2022-01-01"},
		{PropertyID: "austin-oak-002", EventType: "sale", ClosedDate: "not-a-date"},
		{PropertyID: "austin-elm-003", EventType: "sale", ClosedDate: "2022-03-01"},
	}

	err := v.ValidateTransactions(events)
	if err == nil {
		t.Fatalf("expected batch rejection")
	}
	if !strings.Contains(err.Error(), "austin-oak-002") || !strings.Contains(err.Error(), "event 1") {
		t.Fatalf("expected error to identify the offending record, got %v", err)
	}
}
