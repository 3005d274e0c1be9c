package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/validation"
)

// Paths locates the three raw event files for one load.
type Paths struct {
	Transactions string
	Listings     string
	Engagement   string
}

// Loader reads raw event files and validates every record before any of them
// enter the feature pipeline. A single invalid record fails the whole batch.
type Loader struct {
	validator *validation.EventValidator
	logger    logging.Logger
}

// NewLoader constructs a Loader.
func NewLoader(logger logging.Logger) *Loader {
	return &Loader{
		validator: validation.NewEventValidator(),
		logger:    logger,
	}
}

func readJSONFile(ctx context.Context, path string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// LoadTransactions reads and validates a transaction event file.
func (l *Loader) LoadTransactions(ctx context.Context, path string) ([]validation.TransactionEvent, error) {
	var events []validation.TransactionEvent
	if err := readJSONFile(ctx, path, &events); err != nil {
		return nil, err
	}
	if err := l.validator.ValidateTransactions(events); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// LoadListings reads and validates a listing event file.
func (l *Loader) LoadListings(ctx context.Context, path string) ([]validation.ListingEvent, error) {
	var events []validation.ListingEvent
	if err := readJSONFile(ctx, path, &events); err != nil {
		return nil, err
	}
	if err := l.validator.ValidateListings(events); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// LoadEngagementEvents reads and validates an engagement event file.
func (l *Loader) LoadEngagementEvents(ctx context.Context, path string) ([]validation.EngagementEvent, error) {
	var events []validation.EngagementEvent
	if err := readJSONFile(ctx, path, &events); err != nil {
		return nil, err
	}
	if err := l.validator.ValidateEngagementEvents(events); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// LoadBundle loads all three event files concurrently. Any load failure fails
// the bundle; ingestion correctness is a precondition for feature building.
func (l *Loader) LoadBundle(ctx context.Context, paths Paths) (*validation.IngestionBundle, error) {
	bundle := &validation.IngestionBundle{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := l.LoadTransactions(ctx, paths.Transactions)
		if err != nil {
			return err
		}
		bundle.Transactions = events
		return nil
	})
	g.Go(func() error {
		events, err := l.LoadListings(ctx, paths.Listings)
		if err != nil {
			return err
		}
		bundle.Listings = events
		return nil
	})
	g.Go(func() error {
		events, err := l.LoadEngagementEvents(ctx, paths.Engagement)
		if err != nil {
			return err
		}
		bundle.Engagement = events
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.WithFields(logging.Fields{
			"transactions": len(bundle.Transactions),
			"listings":     len(bundle.Listings),
			"engagement":   len(bundle.Engagement),
		}).Info("Loaded ingestion bundle")
	}
	return bundle, nil
}
