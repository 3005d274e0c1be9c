package features

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

const (
	latestFileName  = "latest.json"
	qualityFileName = "quality.json"

	snapshotTimestampLayout = "20060102T150405Z"
)

// Store persists feature snapshots. Each write produces a timestamped
// history file, overwrites latest.json, and refreshes quality.json.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore constructs a Store rooted at dir.
func NewStore(dir string, logger logging.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// LatestPath returns the path of the current snapshot pointer file.
func (s *Store) LatestPath() string {
	return filepath.Join(s.dir, latestFileName)
}

func writeJSONFile(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteSnapshot writes the snapshot's three files. The timestamped history
// file is written first so a crash mid-write never leaves latest.json
// pointing at data with no history copy.
func (s *Store) WriteSnapshot(snapshot *models.SellerFeatureSnapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create feature store dir: %w", err)
	}

	historyName := fmt.Sprintf("snapshot-%s.json", snapshot.GeneratedAt.UTC().Format(snapshotTimestampLayout))
	if err := writeJSONFile(filepath.Join(s.dir, historyName), snapshot); err != nil {
		return err
	}
	if err := writeJSONFile(s.LatestPath(), snapshot); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(s.dir, qualityFileName), snapshot.QualityMetrics); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"dir":     s.dir,
			"records": snapshot.RecordCount,
			"history": historyName,
		}).Info("Wrote feature store snapshot")
	}
	return nil
}
