package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/takibi/seiri/internal/export"
)

// DocWriter writes document-store batch files for the downstream loader.
// Batching mirrors the store's bulk-insert contract: at most batchSize
// documents per file.
type DocWriter struct {
	dir       string
	batchSize int
}

// NewDocWriter creates a writer. A non-positive batchSize means 1000.
func NewDocWriter(dir string, batchSize int) (*DocWriter, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document batch directory: %w", err)
	}
	return &DocWriter{dir: dir, batchSize: batchSize}, nil
}

// WriteMetaBatches writes metadata documents in batch files named
// items_batch_<n>.json. Returns the written file paths in order.
func (w *DocWriter) WriteMetaBatches(docs []export.MetaDocument) ([]string, error) {
	var paths []string
	for i := 0; i < len(docs); i += w.batchSize {
		end := i + w.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		path := filepath.Join(w.dir, fmt.Sprintf("items_batch_%d.json", len(paths)))
		if err := writeJSON(path, docs[i:end]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteCategoryDocuments writes one file per category-chunk document, named
// <category>_batch_<batch_id>.json.
func (w *DocWriter) WriteCategoryDocuments(docs []export.CategoryDocument) ([]string, error) {
	var paths []string
	for _, doc := range docs {
		path := filepath.Join(w.dir, fmt.Sprintf("%s_batch_%d.json", doc.Category, doc.BatchID))
		if err := writeJSON(path, doc); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
