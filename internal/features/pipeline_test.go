package features

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seelander09/home-marketing-sub001/internal/catalog"
	"github.com/seelander09/home-marketing-sub001/internal/ingest"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

func TestPipelineRebuildEndToEnd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	catalogPath := write("catalog.json", `[
		{"propertyId": "austin-elm-001", "address": "900 Elm St", "owner": "R. Alvarez", "city": "Austin", "state": "TX", "zip": "78701", "estimatedValue": 650000, "loanBalance": 130000, "yearsInHome": 9},
		{"propertyId": "dallas-oak-002", "address": "12 Oak Ave", "owner": "T. Nguyen", "city": "Dallas", "state": "TX", "zip": "75201", "estimatedValue": 480000, "loanBalance": 430000, "yearsInHome": 2}
	]`)

	pipeline := &Pipeline{
		Loader: ingest.NewLoader(nil),
		Paths: ingest.Paths{
			Transactions: write("transactions.json", `[{"propertyId": "austin-elm-001", "eventType": "sale", "closedDate": "2022-01-01", "price": 450000}]`),
			Listings:     write("listings.json", `[]`),
			Engagement:   write("engagement.json", `[{"propertyId": "austin-elm-001", "channel": "email", "event": "newsletter-open", "occurredAt": "2024-06-01"}]`),
		},
		Catalog: catalog.New(catalogPath),
		Builder: NewBuilder(BuilderConfig{
			Clock: fixedClock(t, "2024-07-01"),
			Market: &stubMarket{summaries: map[string]models.MacroSummary{
				"78701": {MarketVelocity: floatPtr(72)},
			}},
		}),
		Store: NewStore(filepath.Join(dir, "feature-store"), nil),
	}

	snapshot, err := pipeline.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, snapshot.RecordCount)
	assert.Len(t, snapshot.SourceVersions, 3)

	// Snapshot is readable through the cached read path.
	reader := NewCachedReader(pipeline.Store.LatestPath())
	record, err := reader.Record("austin-elm-001")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "2022-01-01", *record.TransactionSummary.LastSaleDate)
	assert.Contains(t, record.Quality.Sources, models.SourceMacro)

	empty, err := reader.Record("dallas-oak-002")
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Zero(t, empty.Quality.Completeness)
}

func TestPipelineFailsOnInvalidEvents(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	pipeline := &Pipeline{
		Loader: ingest.NewLoader(nil),
		Paths: ingest.Paths{
			Transactions: write("transactions.json", `[{"propertyId": "p1", "eventType": "sale", "closedDate": "not-a-date"}]`),
			Listings:     write("listings.json", `[]`),
			Engagement:   write("engagement.json", `[]`),
		},
		Catalog: catalog.New(write("catalog.json", `[{"propertyId": "p1", "address": "a", "owner": "o", "city": "c", "state": "s", "zip": "z", "estimatedValue": 1, "loanBalance": 0, "yearsInHome": 1}]`)),
		Builder: NewBuilder(BuilderConfig{Clock: fixedClock(t, "2024-07-01")}),
		Store:   NewStore(filepath.Join(dir, "feature-store"), nil),
	}

	_, err := pipeline.Rebuild(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p1")
}
