package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// Entries beyond this are evicted oldest-first.
const maxEntries = 50

// Log is the capped scoring run history, one JSON array file with the newest
// entry appended last. Read-modify-write with no locking; concurrent writers
// may lose updates, acceptable for the nightly-job usage pattern.
type Log struct {
	path   string
	logger logging.Logger
}

// New constructs a Log over the given file path.
func New(path string, logger logging.Logger) *Log {
	return &Log{path: path, logger: logger}
}

// Path returns the run-log file path.
func (l *Log) Path() string {
	return l.path
}

// Entries returns the history, oldest first. A missing file is an empty log.
func (l *Log) Entries() ([]models.RunLogEntry, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read run log: %w", err)
	}
	var entries []models.RunLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse run log: %w", err)
	}
	return entries, nil
}

// Append derives a compact entry from the analysis and appends it, trimming
// oldest entries past the cap.
func (l *Log) Append(analysis *models.SellerPropensityAnalysis) error {
	entries, err := l.Entries()
	if err != nil {
		return err
	}

	propertyIDs := make([]string, 0, len(analysis.Scores))
	for _, score := range analysis.Scores {
		propertyIDs = append(propertyIDs, score.PropertyID)
	}

	entries = append(entries, models.RunLogEntry{
		GeneratedAt:      analysis.GeneratedAt,
		SampleSize:       analysis.SampleSize,
		PropertyIDs:      propertyIDs,
		Inputs:           analysis.Inputs,
		Summary:          analysis.Summary,
		ComponentWeights: analysis.ComponentWeights,
		ModelMetadata:    analysis.ModelMetadata,
	})
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create run log dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}

	if l.logger != nil {
		l.logger.WithFields(logging.Fields{
			"entries":     len(entries),
			"sample_size": analysis.SampleSize,
		}).Info("Appended scoring run to log")
	}
	return nil
}
