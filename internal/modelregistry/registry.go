package modelregistry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

const (
	registryFileName = "registry.json"

	// Oldest-trained entries beyond this are evicted.
	maxEntries = 50
)

// Weights is a persisted logistic model: probability =
// sigmoid(intercept + sum(coefficients[f] * feature[f])).
type Weights struct {
	ModelID      string             `json:"modelId"`
	Algorithm    string             `json:"algorithm"`
	Version      string             `json:"version,omitempty"`
	TrainedAt    time.Time          `json:"trainedAt"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// Predict evaluates the model over normalized features. Features without a
// coefficient and coefficients without a feature contribute nothing.
func (w *Weights) Predict(features map[string]float64) float64 {
	z := w.Intercept
	for name, coef := range w.Coefficients {
		z += coef * features[name]
	}
	return 1 / (1 + math.Exp(-z))
}

// Registry persists trained model weights plus a capped metadata log, both
// as JSON files under one directory. Read-modify-write with no locking; the
// single-writer usage pattern (an external trainer delivering models) is a
// documented assumption.
type Registry struct {
	dir    string
	logger logging.Logger
}

// NewRegistry constructs a Registry rooted at dir.
func NewRegistry(dir string, logger logging.Logger) *Registry {
	return &Registry{dir: dir, logger: logger}
}

func (r *Registry) registryPath() string {
	return filepath.Join(r.dir, registryFileName)
}

// Entries returns the registry log, newest-trained first. A missing registry
// file is an empty registry.
func (r *Registry) Entries() ([]models.ModelRegistryEntry, error) {
	data, err := os.ReadFile(r.registryPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model registry: %w", err)
	}
	var entries []models.ModelRegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse model registry: %w", err)
	}
	return entries, nil
}

// SaveWeights persists a trained model's weights file and appends its
// registry entry, keeping the newest-trained entries within the cap.
func (r *Registry) SaveWeights(weights Weights, metrics models.ModelMetrics, hyperparameters map[string]float64) (models.ModelRegistryEntry, error) {
	if weights.ModelID == "" {
		weights.ModelID = uuid.New().String()
	}
	if weights.TrainedAt.IsZero() {
		weights.TrainedAt = time.Now().UTC()
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return models.ModelRegistryEntry{}, fmt.Errorf("create model registry dir: %w", err)
	}

	fileName := fmt.Sprintf("model-%s.json", weights.ModelID)
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return models.ModelRegistryEntry{}, fmt.Errorf("marshal model weights: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, fileName), data, 0o644); err != nil {
		return models.ModelRegistryEntry{}, fmt.Errorf("write model weights: %w", err)
	}

	entry := models.ModelRegistryEntry{
		ID:              weights.ModelID,
		Algorithm:       weights.Algorithm,
		TrainedAt:       weights.TrainedAt,
		FileName:        fileName,
		Metrics:         metrics,
		Hyperparameters: hyperparameters,
	}

	entries, err := r.Entries()
	if err != nil {
		return models.ModelRegistryEntry{}, err
	}
	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TrainedAt.After(entries[j].TrainedAt)
	})
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	registryData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return models.ModelRegistryEntry{}, fmt.Errorf("marshal model registry: %w", err)
	}
	if err := os.WriteFile(r.registryPath(), registryData, 0o644); err != nil {
		return models.ModelRegistryEntry{}, fmt.Errorf("write model registry: %w", err)
	}

	if r.logger != nil {
		r.logger.WithFields(logging.Fields{
			"model_id":  entry.ID,
			"algorithm": entry.Algorithm,
			"file":      fileName,
		}).Info("Registered trained model")
	}
	return entry, nil
}

// ActiveModel loads the newest-trained model's weights. Returns nil when the
// registry is empty or the weights file cannot be read; scoring proceeds
// heuristic-only in that case.
func (r *Registry) ActiveModel() (*Weights, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	newest := entries[0]
	data, err := os.ReadFile(filepath.Join(r.dir, newest.FileName))
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logging.Fields{
				"model_id": newest.ID,
				"file":     newest.FileName,
				"error":    err.Error(),
			}).Warn("Model weights unreadable, scoring without model")
		}
		return nil, nil
	}
	var weights Weights
	if err := json.Unmarshal(data, &weights); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logging.Fields{
				"model_id": newest.ID,
				"error":    err.Error(),
			}).Warn("Model weights malformed, scoring without model")
		}
		return nil, nil
	}
	return &weights, nil
}
