package runlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

func analysisWithSample(generatedAt time.Time, sampleSize int) *models.SellerPropensityAnalysis {
	scores := make([]models.SellerPropensityScore, 0, sampleSize)
	for i := 0; i < sampleSize; i++ {
		scores = append(scores, models.SellerPropensityScore{PropertyID: "p1"})
	}
	return &models.SellerPropensityAnalysis{
		GeneratedAt: generatedAt,
		SampleSize:  sampleSize,
		Summary:     models.AnalysisSummary{AverageScore: 72.5},
		Scores:      scores,
	}
}

func TestAppendAndRead(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "seller-propensity-run-log.json"), nil)

	generatedAt := time.Date(2024, 7, 1, 2, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(analysisWithSample(generatedAt, 2)))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].SampleSize)
	assert.Equal(t, []string{"p1", "p1"}, entries[0].PropertyIDs)
	assert.Equal(t, 72.5, entries[0].Summary.AverageScore)
	assert.True(t, entries[0].GeneratedAt.Equal(generatedAt))
}

func TestMissingFileIsEmptyLog(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "missing.json"), nil)

	entries, err := log.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCapEvictsOldestFirst(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "run-log.json"), nil)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		require.NoError(t, log.Append(analysisWithSample(base.Add(time.Duration(i)*time.Minute), i)))
	}

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 50)
	assert.Equal(t, 5, entries[0].SampleSize)
	assert.Equal(t, 54, entries[49].SampleSize)
}
