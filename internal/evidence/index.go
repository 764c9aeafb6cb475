// Package evidence provides keyword search over normalized items so analysts
// can look up evidence by content after a run.
package evidence

import (
	"context"

	"github.com/takibi/seiri/internal/models"
)

// Hit is a single search result.
type Hit struct {
	ItemID     string  `json:"item_id"`
	Score      float64 `json:"score"`
	Category   string  `json:"category"`
	SourcePath string  `json:"source_path"`
	Text       string  `json:"text"`
}

// Index defines evidence search operations.
type Index interface {
	// IndexItems adds items to the index in one batch.
	IndexItems(ctx context.Context, items []models.Item) error
	// Search runs a match query over item text and source paths. A non-empty
	// category restricts results to that category.
	Search(ctx context.Context, query string, category string, limit int) ([]*Hit, error)
	// Count returns the number of indexed items.
	Count() (uint64, error)
	Close() error
}
