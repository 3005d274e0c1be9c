package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

// Catalog reads the property opportunity catalogue supplied by the upstream
// property data pipeline as a plain JSON array. A missing file is an empty
// catalogue, not an error.
type Catalog struct {
	path string
}

// New constructs a Catalog over the given file path.
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the catalogue file path.
func (c *Catalog) Path() string {
	return c.path
}

// ListAllPropertyOpportunities returns every catalogue entry.
func (c *Catalog) ListAllPropertyOpportunities(ctx context.Context) ([]models.PropertyOpportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalogue %s: %w", c.path, err)
	}

	var opportunities []models.PropertyOpportunity
	if err := json.Unmarshal(data, &opportunities); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", c.path, err)
	}
	return opportunities, nil
}
