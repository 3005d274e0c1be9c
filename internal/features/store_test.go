package features

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

func sampleSnapshot(generatedAt time.Time, propertyIDs ...string) *models.SellerFeatureSnapshot {
	records := make([]models.SellerFeatureRecord, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		records = append(records, models.SellerFeatureRecord{
			PropertyID: id,
			Quality:    models.FeatureQuality{Sources: []string{models.SourceTransactions}, Completeness: 0.25},
		})
	}
	snapshot := &models.SellerFeatureSnapshot{
		GeneratedAt: generatedAt,
		RecordCount: len(records),
		Records:     records,
	}
	snapshot.QualityMetrics = buildQualityMetrics(snapshot)
	return snapshot
}

func TestStoreWritesThreeFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	generatedAt := time.Date(2024, 7, 1, 3, 30, 0, 0, time.UTC)
	require.NoError(t, store.WriteSnapshot(sampleSnapshot(generatedAt, "p1", "p2")))

	for _, name := range []string{"latest.json", "snapshot-20240701T033000Z.json", "quality.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "latest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ", "snapshot should be pretty-printed")

	var metrics []models.QualityMetric
	qualityData, err := os.ReadFile(filepath.Join(dir, "quality.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(qualityData, &metrics))
	assert.NotEmpty(t, metrics)
}

func TestCachedReaderColdStartReturnsNil(t *testing.T) {
	reader := NewCachedReader(filepath.Join(t.TempDir(), "latest.json"))

	snapshot, err := reader.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	record, err := reader.Record("p1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCachedReaderLoadsAndIndexes(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	require.NoError(t, store.WriteSnapshot(sampleSnapshot(time.Now().UTC(), "p1", "p2")))

	reader := NewCachedReader(store.LatestPath())

	snapshot, err := reader.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 2, snapshot.RecordCount)

	record, err := reader.Record("p2")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "p2", record.PropertyID)

	missing, err := reader.Record("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCachedReaderInvalidatesOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	require.NoError(t, store.WriteSnapshot(sampleSnapshot(time.Now().UTC(), "p1")))

	reader := NewCachedReader(store.LatestPath())
	first, err := reader.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 1, first.RecordCount)

	require.NoError(t, store.WriteSnapshot(sampleSnapshot(time.Now().UTC(), "p1", "p2", "p3")))
	// Force a distinct mtime; some filesystems have coarse resolution.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(store.LatestPath(), future, future))

	second, err := reader.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, second.RecordCount)
}

func TestCachedReaderMemoizesWhileUnchanged(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	require.NoError(t, store.WriteSnapshot(sampleSnapshot(time.Now().UTC(), "p1")))

	reader := NewCachedReader(store.LatestPath())
	first, err := reader.Snapshot()
	require.NoError(t, err)
	second, err := reader.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
