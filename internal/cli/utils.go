// Package cli provides CLI output utilities for Seiri.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/takibi/seiri/internal/evidence"
	"github.com/takibi/seiri/internal/export"
	"github.com/takibi/seiri/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteRunResult writes a run summary to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteRunResult(w io.Writer, result *models.RunResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, result)
	default:
		writeRunResultText(w, result)
		return nil
	}
}

func writeRunResultText(w io.Writer, result *models.RunResult) {
	fmt.Fprintf(w, "\nRun %s (case %s)\n", result.RunID, result.CaseID)
	fmt.Fprintf(w, "  artifacts:   %d\n", result.Counts.Artifacts)
	fmt.Fprintf(w, "  items:       %d (%d unavailable, %d errors)\n",
		result.Counts.Items, result.Counts.UnavailableItems, result.Counts.ErrorItems)
	fmt.Fprintf(w, "  chunks:      %d\n", result.Counts.Chunks)
	fmt.Fprintf(w, "  overflow:    %d\n", result.Counts.OverflowItems)
	if result.OutputDir != "" {
		fmt.Fprintf(w, "  output:      %s\n", result.OutputDir)
	}
	fmt.Fprintln(w)
}

// WritePriorities writes a priority report to w in the given format. limit
// bounds the text listing; 0 means all records.
func WritePriorities(w io.Writer, report *models.PriorityReport, limit int, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, report)
	default:
		writePrioritiesText(w, report, limit)
		return nil
	}
}

func writePrioritiesText(w io.Writer, report *models.PriorityReport, limit int) {
	records := report.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	fmt.Fprintf(w, "\n%d prioritized items (case %s, showing %d)\n\n",
		len(report.Records), report.CaseID, len(records))
	for i, rec := range records {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %d | Category: %s\n", i+1, rec.Score, rec.Category)
		fmt.Fprintf(w, "ID: %s\n", rec.ItemID)
		fmt.Fprintf(w, "Source: %s\n", rec.SourcePath)
		if len(rec.Reasons) > 0 {
			fmt.Fprintf(w, "Reasons: %s\n", strings.Join(rec.Reasons, ", "))
		}
	}
	fmt.Fprintln(w)
}

// WriteTechniques writes a technique report to w in the given format.
func WriteTechniques(w io.Writer, report *models.TechniqueReport, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, report)
	default:
		writeTechniquesText(w, report)
		return nil
	}
}

func writeTechniquesText(w io.Writer, report *models.TechniqueReport) {
	fmt.Fprintf(w, "\nScanned %d items: %d matched, %d hit instances, %d unmapped (case %s)\n\n",
		report.TotalItemsScanned, report.ItemsMatched, report.HitInstances, report.UnmappedCount, report.CaseID)
	techniques := make([]string, 0, len(report.ByTechnique))
	for id := range report.ByTechnique {
		techniques = append(techniques, id)
	}
	sort.Strings(techniques)
	for _, id := range techniques {
		stat := report.ByTechnique[id]
		fmt.Fprintf(w, "%-10s %-22s %4d hits\n", id, stat.Tactic, stat.Count)
		for _, sample := range stat.Samples {
			fmt.Fprintf(w, "    %s (%s)\n", sample.ItemID, sample.SourceFile)
		}
	}
	fmt.Fprintln(w)
}

// WriteSearchHits writes evidence search hits to w in the given format.
func WriteSearchHits(w io.Writer, hits []*evidence.Hit, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, map[string]interface{}{"hits": hits, "count": len(hits)})
	default:
		writeSearchHitsText(w, hits)
		return nil
	}
}

func writeSearchHitsText(w io.Writer, hits []*evidence.Hit) {
	fmt.Fprintf(w, "\nFound %d results\n\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Category: %s\n", i+1, hit.Score, hit.Category)
		fmt.Fprintf(w, "ID: %s\n", hit.ItemID)
		fmt.Fprintf(w, "Source: %s\n", hit.SourcePath)
		fmt.Fprintf(w, "\n%s\n", Truncate(hit.Text, 200))
		fmt.Fprintln(w)
	}
}

// WriteTree writes the category tree to w in the given format.
func WriteTree(w io.Writer, root *export.TreeNode, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, root)
	default:
		writeTreeText(w, root, 0)
		return nil
	}
}

func writeTreeText(w io.Writer, node *export.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	label := node.Name
	if len(node.Meta) > 0 {
		keys := make([]string, 0, len(node.Meta))
		for k := range node.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + node.Meta[k]
		}
		label += " [" + strings.Join(parts, " ") + "]"
	}
	fmt.Fprintf(w, "%s%s\n", indent, label)
	for _, child := range node.Children {
		writeTreeText(w, child, depth+1)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
