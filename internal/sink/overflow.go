package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/takibi/seiri/internal/models"
)

// ManifestName is the overflow manifest file written next to the large
// objects.
const ManifestName = "overflow_manifest.json"

// OverflowStore is the large-object escape hatch for items that cannot be
// reduced below the sink limit. Items land here whole, never truncated,
// and are recorded in a manifest for audit.
type OverflowStore struct {
	dir string
}

// NewOverflowStore creates the store directory if needed.
func NewOverflowStore(dir string) (*OverflowStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create overflow directory: %w", err)
	}
	return &OverflowStore{dir: dir}, nil
}

// Put writes the full item for an overflow entry and fills in its store path.
func (s *OverflowStore) Put(entry models.OverflowEntry, item models.Item) (models.OverflowEntry, error) {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return entry, fmt.Errorf("failed to serialize overflow item %s: %w", item.ID, err)
	}
	path := filepath.Join(s.dir, item.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return entry, fmt.Errorf("failed to write overflow item %s: %w", item.ID, err)
	}
	entry.StorePath = path
	return entry, nil
}

// WriteManifest persists the overflow manifest. An empty run still gets a
// manifest with an empty entry list: no evidence lost is an explicit record,
// not a missing file.
func (s *OverflowStore) WriteManifest(entries []models.OverflowEntry) error {
	if entries == nil {
		entries = []models.OverflowEntry{}
	}
	data, err := json.MarshalIndent(map[string]interface{}{"entries": entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal overflow manifest: %w", err)
	}
	path := filepath.Join(s.dir, ManifestName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write overflow manifest: %w", err)
	}
	return nil
}

// Dir returns the store directory.
func (s *OverflowStore) Dir() string {
	return s.dir
}
