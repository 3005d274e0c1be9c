package features

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/seelander09/home-marketing-sub001/internal/ingest"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// CatalogSource lists the property opportunity catalogue the pipeline builds
// features for.
type CatalogSource interface {
	ListAllPropertyOpportunities(ctx context.Context) ([]models.PropertyOpportunity, error)
}

// Pipeline is the end-to-end snapshot build: ingest raw events, aggregate
// features for every catalogue property, persist the snapshot. It backs both
// the featurestore job binary and the on-demand rebuild endpoint.
type Pipeline struct {
	Loader  *ingest.Loader
	Paths   ingest.Paths
	Catalog CatalogSource
	Builder *Builder
	Store   *Store
	Logger  logging.Logger
}

// Rebuild runs one full build and returns the written snapshot.
func (p *Pipeline) Rebuild(ctx context.Context) (*models.SellerFeatureSnapshot, error) {
	opportunities, err := p.Catalog.ListAllPropertyOpportunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	bundle, err := p.Loader.LoadBundle(ctx, p.Paths)
	if err != nil {
		return nil, fmt.Errorf("load event bundle: %w", err)
	}

	propertyIDs := make([]string, 0, len(opportunities))
	geographies := make(map[string]models.Geography, len(opportunities))
	for _, opp := range opportunities {
		propertyIDs = append(propertyIDs, opp.PropertyID)
		geographies[opp.PropertyID] = models.Geography{
			City:  opp.City,
			State: opp.State,
			Zip:   opp.Zip,
		}
	}

	snapshot, err := p.Builder.BuildSnapshot(ctx, BuildInput{
		PropertyIDs: propertyIDs,
		Bundle:      bundle,
		Sources:     p.sourceVersions(),
		Geographies: geographies,
	})
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	if err := p.Store.WriteSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return snapshot, nil
}

// sourceVersions fingerprints the input files so cached readers downstream
// can tell which inputs a snapshot was built from.
func (p *Pipeline) sourceVersions() models.FeatureStoreSourceVersions {
	versions := models.FeatureStoreSourceVersions{}
	for name, path := range map[string]string{
		models.SourceTransactions: p.Paths.Transactions,
		models.SourceListings:     p.Paths.Listings,
		models.SourceEngagement:   p.Paths.Engagement,
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		sum := sha256.Sum256(data)
		versions[name] = hex.EncodeToString(sum[:])[:12]
	}
	if len(versions) == 0 {
		return nil
	}
	return versions
}
