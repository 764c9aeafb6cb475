// Package capture loads collector output documents and resolves every raw
// content value into exactly one ContentValue variant. All shape inspection
// happens here, once; downstream stages only ever see the tagged union.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/takibi/seiri/internal/models"
)

// MalformedInputError reports a capture document that fails shape validation.
// It is the only condition that aborts a run; everything else flows through
// the pipeline as data.
type MalformedInputError struct {
	Path string
	Msg  string
}

func (e *MalformedInputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed capture: %s", e.Msg)
	}
	return fmt.Sprintf("malformed capture at %q: %s", e.Path, e.Msg)
}

// reserved top-level keys that are not category groups.
const (
	keyCaseID    = "case_id"
	keyTimestamp = "timestamp"
	keyArtifacts = "artifacts"
)

// Load reads and parses a capture document from path.
func Load(path string) (*models.Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	cap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cap, nil
}

// Parse decodes a capture document. Two shapes are accepted:
//
//   - an "artifacts" member that is either a flat path→content mapping or a
//     list of {path, category, content} entries;
//   - category-grouped mappings at the top level (the collector's native
//     layout), where each non-reserved top-level key is a category hint whose
//     value maps source paths to content.
//
// Mapping shapes are assembled in sorted key order so the artifact sequence
// is deterministic; list shapes preserve collector order.
func Parse(data []byte) (*models.Capture, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &MalformedInputError{Msg: "capture document is not a JSON object"}
	}

	cap := &models.Capture{}

	if raw, ok := top[keyCaseID]; ok {
		if err := json.Unmarshal(raw, &cap.CaseID); err != nil {
			return nil, &MalformedInputError{Path: keyCaseID, Msg: "case_id must be a string"}
		}
	}

	raw, ok := top[keyTimestamp]
	if !ok {
		return nil, &MalformedInputError{Path: keyTimestamp, Msg: "missing capture timestamp"}
	}
	var tsStr string
	if err := json.Unmarshal(raw, &tsStr); err != nil {
		return nil, &MalformedInputError{Path: keyTimestamp, Msg: "timestamp must be a string"}
	}
	ts, err := time.Parse(time.RFC3339, tsStr)
	if err != nil {
		return nil, &MalformedInputError{Path: keyTimestamp, Msg: fmt.Sprintf("timestamp %q is not ISO-8601", tsStr)}
	}
	cap.Timestamp = ts.UTC()

	if raw, ok := top[keyArtifacts]; ok {
		arts, err := parseArtifacts(raw, cap.Timestamp)
		if err != nil {
			return nil, err
		}
		cap.Artifacts = arts
	}

	// Category-grouped shape: every remaining object-valued key is a group of
	// path→content pairs hinted with the key; other values are single artifacts.
	groupKeys := make([]string, 0, len(top))
	for k := range top {
		if k == keyCaseID || k == keyTimestamp || k == keyArtifacts {
			continue
		}
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, key := range groupKeys {
		var group map[string]json.RawMessage
		if err := json.Unmarshal(top[key], &group); err == nil {
			paths := make([]string, 0, len(group))
			for p := range group {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				cap.Artifacts = append(cap.Artifacts, models.RawArtifact{
					SourcePath:   p,
					CategoryHint: key,
					Content:      resolveRaw(group[p], cap.Timestamp),
				})
			}
			continue
		}
		cap.Artifacts = append(cap.Artifacts, models.RawArtifact{
			SourcePath:   key,
			CategoryHint: key,
			Content:      resolveRaw(top[key], cap.Timestamp),
		})
	}

	return cap, nil
}

// listEntry is one element of the list-shaped artifacts member.
type listEntry struct {
	Path     string          `json:"path"`
	Category string          `json:"category,omitempty"`
	Content  json.RawMessage `json:"content"`
}

func parseArtifacts(raw json.RawMessage, ts time.Time) ([]models.RawArtifact, error) {
	// List shape first: preserves collector ordering.
	var entries []listEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		out := make([]models.RawArtifact, 0, len(entries))
		for i, e := range entries {
			if e.Path == "" {
				return nil, &MalformedInputError{
					Path: fmt.Sprintf("artifacts[%d]", i),
					Msg:  "entry is missing a path",
				}
			}
			out = append(out, models.RawArtifact{
				SourcePath:   e.Path,
				CategoryHint: e.Category,
				Content:      resolveRaw(e.Content, ts),
			})
		}
		return out, nil
	}

	// Flat mapping shape: path→content, no category hints.
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, &MalformedInputError{Path: keyArtifacts, Msg: "artifacts must be a mapping or a list of {path, content} entries"}
	}
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]models.RawArtifact, 0, len(paths))
	for _, p := range paths {
		out = append(out, models.RawArtifact{
			SourcePath: p,
			Content:    resolveRaw(flat[p], ts),
		})
	}
	return out, nil
}
