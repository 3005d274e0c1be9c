package modelregistry

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

func TestSaveWeightsAndActiveModel(t *testing.T) {
	registry := NewRegistry(t.TempDir(), nil)

	entry, err := registry.SaveWeights(Weights{
		Algorithm: "logistic-regression",
		Version:   "1.0.0",
		TrainedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Intercept: -1.2,
		Coefficients: map[string]float64{
			"equityUpside": 2.1,
			"engagement":   1.4,
		},
	}, models.ModelMetrics{Accuracy: 0.81, AUC: 0.86}, map[string]float64{"l2": 0.01})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "logistic-regression", entry.Algorithm)

	active, err := registry.ActiveModel()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, entry.ID, active.ModelID)
	assert.Equal(t, -1.2, active.Intercept)
}

func TestActiveModelPrefersNewestTrained(t *testing.T) {
	registry := NewRegistry(t.TempDir(), nil)

	_, err := registry.SaveWeights(Weights{
		Algorithm: "logistic-regression",
		TrainedAt: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Intercept: 0.5,
	}, models.ModelMetrics{}, nil)
	require.NoError(t, err)

	// Delivered later but trained earlier; must not become active.
	_, err = registry.SaveWeights(Weights{
		Algorithm: "logistic-regression",
		TrainedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Intercept: 99,
	}, models.ModelMetrics{}, nil)
	require.NoError(t, err)

	active, err := registry.ActiveModel()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 0.5, active.Intercept)
}

func TestRegistryCapKeepsNewestFifty(t *testing.T) {
	registry := NewRegistry(t.TempDir(), nil)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		_, err := registry.SaveWeights(Weights{
			ModelID:   fmt.Sprintf("model-%03d", i),
			Algorithm: "logistic-regression",
			TrainedAt: base.Add(time.Duration(i) * time.Hour),
		}, models.ModelMetrics{}, nil)
		require.NoError(t, err)
	}

	entries, err := registry.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 50)
	assert.Equal(t, "model-054", entries[0].ID)
	assert.Equal(t, "model-005", entries[49].ID)
}

func TestEmptyRegistryHasNoActiveModel(t *testing.T) {
	registry := NewRegistry(t.TempDir(), nil)

	active, err := registry.ActiveModel()
	require.NoError(t, err)
	assert.Nil(t, active)

	entries, err := registry.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnreadableWeightsDegradeToNoModel(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(dir, nil)

	entry, err := registry.SaveWeights(Weights{
		Algorithm: "logistic-regression",
		TrainedAt: time.Now().UTC(),
	}, models.ModelMetrics{}, nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, entry.FileName)))

	active, err := registry.ActiveModel()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestPredictIsBounded(t *testing.T) {
	weights := Weights{
		Intercept: -0.5,
		Coefficients: map[string]float64{
			"equityUpside": 2.0,
			"tenure":       1.0,
		},
	}

	low := weights.Predict(map[string]float64{})
	high := weights.Predict(map[string]float64{"equityUpside": 1, "tenure": 1})
	assert.Greater(t, high, low)
	assert.GreaterOrEqual(t, low, 0.0)
	assert.LessOrEqual(t, high, 1.0)
}
