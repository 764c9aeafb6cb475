// Package models defines the data structures flowing through the pipeline:
// captures, artifacts, items, score records, technique reports, and export chunks.
package models

import "time"

// ContentKind identifies which variant of a ContentValue is set.
type ContentKind string

const (
	// ContentText is a single text blob (split into lines by the normalizer).
	ContentText ContentKind = "text"
	// ContentListing is a sequence of entry names (e.g. a directory listing).
	ContentListing ContentKind = "listing"
	// ContentStructured is a key/value snapshot.
	ContentStructured ContentKind = "structured"
	// ContentUnavailable marks a source that could not be read.
	ContentUnavailable ContentKind = "unavailable"
)

// StructuredField is one key/value pair of a structured snapshot.
// Values are carried as canonical strings, resolved once at the capture
// boundary; downstream stages never re-inspect raw shapes.
type StructuredField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ContentValue is a tagged union over the raw content shapes a collector
// produces. Exactly one variant is populated, according to Kind.
type ContentValue struct {
	Kind       ContentKind       `json:"kind"`
	Text       string            `json:"text,omitempty"`
	Listing    []string          `json:"listing,omitempty"`
	Structured []StructuredField `json:"structured,omitempty"`
	// Reason and ObservedAt are set only for ContentUnavailable, so the
	// pipeline can emit a deterministic placeholder item.
	Reason     string    `json:"reason,omitempty"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// RawArtifact is one captured piece of host evidence before normalization.
type RawArtifact struct {
	SourcePath   string       `json:"source_path"`
	CategoryHint string       `json:"category_hint,omitempty"`
	Content      ContentValue `json:"content"`
}

// Capture is the collector's output document: an ordered set of raw artifacts
// plus case identity and the capture timestamp.
type Capture struct {
	CaseID    string        `json:"case_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Artifacts []RawArtifact `json:"artifacts"`
}
