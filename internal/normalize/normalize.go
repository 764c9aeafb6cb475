// Package normalize flattens raw artifacts into the pipeline's item stream.
// One logical entry in, one item out: text blobs produce an item per
// non-empty line, listings an item per entry, structured snapshots an item
// per key, and unavailable sources exactly one placeholder. Nothing is ever
// dropped silently; entries that cannot be normalized become error items.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/takibi/seiri/internal/itemid"
	"github.com/takibi/seiri/internal/models"
)

// Normalize converts one raw artifact into items. The category has already
// been resolved by the categorizer; it participates in every item's ID so
// identical input always yields identical IDs.
func Normalize(artifact models.RawArtifact, category models.Category) []models.Item {
	switch artifact.Content.Kind {
	case models.ContentText:
		return normalizeText(artifact, category)
	case models.ContentListing:
		return normalizeListing(artifact, category)
	case models.ContentStructured:
		return normalizeStructured(artifact, category)
	case models.ContentUnavailable:
		return []models.Item{unavailableItem(artifact, category)}
	default:
		reason := fmt.Sprintf("unrecognized content kind %q", artifact.Content.Kind)
		return []models.Item{errorItem(artifact, category, reason)}
	}
}

func normalizeText(artifact models.RawArtifact, category models.Category) []models.Item {
	var items []models.Item
	for _, line := range strings.Split(artifact.Content.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, models.Item{
			ID:         itemid.ItemID(category, artifact.SourcePath, line),
			Kind:       models.ItemLog,
			Category:   category,
			SourcePath: artifact.SourcePath,
			Text:       line,
		})
	}
	return items
}

func normalizeListing(artifact models.RawArtifact, category models.Category) []models.Item {
	items := make([]models.Item, 0, len(artifact.Content.Listing))
	for _, entry := range artifact.Content.Listing {
		items = append(items, models.Item{
			ID:         itemid.ItemID(category, artifact.SourcePath, entry),
			Kind:       models.ItemLog,
			Category:   category,
			SourcePath: artifact.SourcePath,
			Text:       entry,
			RawMeta:    map[string]string{"entry_of": artifact.SourcePath},
		})
	}
	return items
}

func normalizeStructured(artifact models.RawArtifact, category models.Category) []models.Item {
	items := make([]models.Item, 0, len(artifact.Content.Structured))
	for _, field := range artifact.Content.Structured {
		items = append(items, models.Item{
			ID:         itemid.ItemID(category, artifact.SourcePath, field.Value),
			Kind:       models.ItemLog,
			Category:   category,
			SourcePath: artifact.SourcePath,
			Text:       field.Value,
			RawMeta:    map[string]string{"key": field.Key},
		})
	}
	return items
}

// unavailableItem emits the deterministic placeholder for a source that could
// not be read. The prioritizer recognizes the kind and assigns the category
// base score without content boosts.
func unavailableItem(artifact models.RawArtifact, category models.Category) models.Item {
	return models.Item{
		ID:         itemid.ItemID(category, artifact.SourcePath, artifact.Content.Reason),
		Kind:       models.ItemUnavailable,
		Category:   category,
		SourcePath: artifact.SourcePath,
		Text:       artifact.Content.Reason,
		RawMeta: map[string]string{
			"observed_at": artifact.Content.ObservedAt.UTC().Format(time.RFC3339),
		},
	}
}

func errorItem(artifact models.RawArtifact, category models.Category, reason string) models.Item {
	return models.Item{
		ID:         itemid.ErrorID(category, artifact.SourcePath, reason),
		Kind:       models.ItemError,
		Category:   category,
		SourcePath: artifact.SourcePath,
		Text:       reason,
	}
}
