package features

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// CachedReader is the server-side read path of the feature store. It lazily
// loads latest.json, memoizes the parsed snapshot keyed by the file's mtime,
// and keeps an O(1) per-property index. A missing snapshot file is a cold
// start, reported as nil rather than an error.
type CachedReader struct {
	path string

	mu       sync.Mutex
	modTime  time.Time
	snapshot *models.SellerFeatureSnapshot
	index    map[string]*models.SellerFeatureRecord
}

// NewCachedReader constructs a reader over the given latest.json path.
func NewCachedReader(path string) *CachedReader {
	return &CachedReader{path: path}
}

// Snapshot returns the current snapshot, or nil when none has been built yet.
func (r *CachedReader) Snapshot() (*models.SellerFeatureSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refreshLocked(); err != nil {
		return nil, err
	}
	return r.snapshot, nil
}

// Record returns one property's feature record, or nil when the snapshot is
// missing or does not contain the property.
func (r *CachedReader) Record(propertyID string) (*models.SellerFeatureRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refreshLocked(); err != nil {
		return nil, err
	}
	if r.index == nil {
		return nil, nil
	}
	return r.index[propertyID], nil
}

// refreshLocked reloads the snapshot when the file's mtime differs from the
// memoized one. Rebuilds overwrite the file wholesale, so a changed mtime is
// the only invalidation signal needed.
func (r *CachedReader) refreshLocked() error {
	info, err := os.Stat(r.path)
	if os.IsNotExist(err) {
		r.modTime = time.Time{}
		r.snapshot = nil
		r.index = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat feature snapshot: %w", err)
	}
	if r.snapshot != nil && info.ModTime().Equal(r.modTime) {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read feature snapshot: %w", err)
	}
	var snapshot models.SellerFeatureSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parse feature snapshot: %w", err)
	}

	index := make(map[string]*models.SellerFeatureRecord, len(snapshot.Records))
	for i := range snapshot.Records {
		index[snapshot.Records[i].PropertyID] = &snapshot.Records[i]
	}

	r.modTime = info.ModTime()
	r.snapshot = &snapshot
	r.index = index
	return nil
}
