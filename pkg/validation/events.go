package validation

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Channel is the engagement channel vocabulary. TotalChannels is the fixed
// denominator for the multi-channel score.
const (
	ChannelEmail  = "email"
	ChannelSMS    = "sms"
	ChannelWeb    = "web"
	ChannelCall   = "call"
	ChannelApp    = "app"
	ChannelSocial = "social"

	TotalChannels = 6
)

// DateLayout is the wire format for all event dates.
const DateLayout = "2006-01-02"

// TransactionEvent is a recorded deed or loan event for a property.
type TransactionEvent struct {
	PropertyID    string   `json:"propertyId" validate:"required"`
	EventType     string   `json:"eventType" validate:"required,oneof=sale refinance listing-transfer other"`
	ClosedDate    string   `json:"closedDate" validate:"required"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	LoanBalance   *float64 `json:"loanBalance,omitempty"`
	OccupancyType string   `json:"occupancyType,omitempty"`
}

// ListingEvent is an MLS listing observation for a property.
type ListingEvent struct {
	PropertyID   string  `json:"propertyId" validate:"required"`
	ListingID    string  `json:"listingId" validate:"required"`
	ListedDate   string  `json:"listedDate" validate:"required"`
	Status       string  `json:"status" validate:"required,oneof=active pending coming-soon sold expired withdrawn"`
	ListPrice    float64 `json:"listPrice" validate:"gte=0"`
	DaysOnMarket *int    `json:"daysOnMarket,omitempty"`
}

// EngagementEvent is a marketing touch on a property owner.
type EngagementEvent struct {
	PropertyID string                 `json:"propertyId" validate:"required"`
	Channel    string                 `json:"channel" validate:"required,oneof=email sms web call app social"`
	Event      string                 `json:"event" validate:"required"`
	OccurredAt string                 `json:"occurredAt" validate:"required"`
	Campaign   string                 `json:"campaign,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// IngestionBundle groups the three raw event collections. The only
// cross-collection relation is the shared propertyId key.
type IngestionBundle struct {
	Transactions []TransactionEvent `json:"transactions"`
	Listings     []ListingEvent     `json:"listings"`
	Engagement   []EngagementEvent  `json:"engagement"`
}

// EventValidator performs structural and date validation for raw event
// records before they enter the feature pipeline.
type EventValidator struct {
	validator *validator.Validate
}

// NewEventValidator constructs an EventValidator with standard struct validation.
func NewEventValidator() *EventValidator {
	return &EventValidator{
		validator: validator.New(),
	}
}

// ParseDate parses an event date and rejects strings that survive layout
// parsing but are not real calendar dates (e.g. 2024-02-31).
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return parsed, nil
}

// ValidateTransactions checks every record and fails the whole batch on the
// first invalid one, identifying the offending record.
func (v *EventValidator) ValidateTransactions(events []TransactionEvent) error {
	for i, event := range events {
		if err := v.validator.Struct(event); err != nil {
			return fmt.Errorf("transaction event %d (property %q): %w", i, event.PropertyID, err)
		}
		if _, err := ParseDate(event.ClosedDate); err != nil {
			return fmt.Errorf("transaction event %d (property %q): %w", i, event.PropertyID, err)
		}
	}
	return nil
}

// ValidateListings checks every record and fails the whole batch on the first
// invalid one.
func (v *EventValidator) ValidateListings(events []ListingEvent) error {
	for i, event := range events {
		if err := v.validator.Struct(event); err != nil {
			return fmt.Errorf("listing event %d (property %q): %w", i, event.PropertyID, err)
		}
		if _, err := ParseDate(event.ListedDate); err != nil {
			return fmt.Errorf("listing event %d (property %q): %w", i, event.PropertyID, err)
		}
		if event.DaysOnMarket != nil && *event.DaysOnMarket < 0 {
			return fmt.Errorf("listing event %d (property %q): daysOnMarket must be >= 0", i, event.PropertyID)
		}
	}
	return nil
}

// ValidateEngagementEvents checks every record and fails the whole batch on
// the first invalid one.
func (v *EventValidator) ValidateEngagementEvents(events []EngagementEvent) error {
	for i, event := range events {
		if err := v.validator.Struct(event); err != nil {
			return fmt.Errorf("engagement event %d (property %q): %w", i, event.PropertyID, err)
		}
		if _, err := ParseDate(event.OccurredAt); err != nil {
			return fmt.Errorf("engagement event %d (property %q): %w", i, event.PropertyID, err)
		}
	}
	return nil
}

// ValidateBundle applies all three batch validators.
func (v *EventValidator) ValidateBundle(bundle *IngestionBundle) error {
	if err := v.ValidateTransactions(bundle.Transactions); err != nil {
		return err
	}
	if err := v.ValidateListings(bundle.Listings); err != nil {
		return err
	}
	return v.ValidateEngagementEvents(bundle.Engagement)
}
