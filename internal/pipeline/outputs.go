package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/takibi/seiri/internal/export"
	"github.com/takibi/seiri/internal/models"
	"github.com/takibi/seiri/internal/sink"
)

// writeOutputs lays the run down on disk: per-category partitions, the two
// reports, the push payload, document batches, and the overflow store.
func (p *Pipeline) writeOutputs(result *models.RunResult, spills []export.Spill) error {
	outDir := filepath.Join(p.cfg.Storage.OutputDir, result.RunID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	result.OutputDir = outDir

	grouped := make(map[models.Category][]models.Item)
	for _, item := range result.Items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	for _, category := range models.Categories() {
		group := grouped[category]
		if len(group) == 0 {
			continue
		}
		if err := writeJSON(filepath.Join(outDir, string(category)+".json"), group); err != nil {
			return err
		}
	}

	if err := writeJSON(filepath.Join(outDir, "priorities.json"), result.Priorities); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "mitre_mapping.json"), result.Techniques); err != nil {
		return err
	}

	flat := FlattenChunks(result.Chunks)
	if len(flat) > 0 {
		payload, err := export.BuildLokiPayload(flat, result.Timestamp)
		if err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(outDir, "loki_payload.json"), payload); err != nil {
			return err
		}
	}

	docWriter, err := sink.NewDocWriter(filepath.Join(outDir, "docs"), p.cfg.Sinks.DocStore.BatchSize)
	if err != nil {
		return err
	}
	metaDocs := export.BuildMetaDocuments(result.Items, result.Priorities.Records, result.Timestamp)
	if _, err := docWriter.WriteMetaBatches(metaDocs); err != nil {
		return err
	}
	categoryDocs := export.BuildCategoryDocuments(result.CaseID, flat, result.Timestamp)
	if _, err := docWriter.WriteCategoryDocuments(categoryDocs); err != nil {
		return err
	}

	overflowStore, err := sink.NewOverflowStore(p.cfg.Storage.OverflowDir)
	if err != nil {
		return err
	}
	entries := make([]models.OverflowEntry, 0, len(spills))
	for _, spill := range spills {
		entry, err := overflowStore.Put(spill.Entry, spill.Item)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if err := overflowStore.WriteManifest(entries); err != nil {
		return err
	}
	result.Overflow = entries

	if err := writeJSON(filepath.Join(outDir, "run.json"), result); err != nil {
		return err
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
