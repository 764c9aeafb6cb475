package models

// Category is one bucket of the fixed artifact taxonomy. The set is closed;
// unmatched sources resolve to CategoryOther, never an error.
type Category string

const (
	CategorySystemLogs    Category = "system_logs"
	CategoryUserActivity  Category = "user_activity"
	CategoryNetwork       Category = "network"
	CategoryConfiguration Category = "configuration"
	CategoryApplications  Category = "applications"
	CategoryProcesses     Category = "processes"
	CategoryFiles         Category = "files"
	CategoryPackages      Category = "packages"
	CategoryOther         Category = "other"
)

// Categories lists all categories in declaration order.
func Categories() []Category {
	return []Category{
		CategorySystemLogs,
		CategoryUserActivity,
		CategoryNetwork,
		CategoryConfiguration,
		CategoryApplications,
		CategoryProcesses,
		CategoryFiles,
		CategoryPackages,
		CategoryOther,
	}
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ItemKind distinguishes regular evidence items from placeholders.
type ItemKind string

const (
	// ItemLog is a regular normalized entry (text line, listing entry, or
	// structured field).
	ItemLog ItemKind = "log"
	// ItemUnavailable is the single placeholder emitted for an unavailable
	// source. It receives the category base score and no keyword boosts.
	ItemUnavailable ItemKind = "unavailable"
	// ItemError carries a normalization failure reason so item counts stay
	// conserved and auditable.
	ItemError ItemKind = "error"
)

// Item is the pipeline's unit of work after normalization. Items are immutable
// once created; scores and technique matches are separate records keyed by ID.
type Item struct {
	// ID is deterministic over (category, source path, text); re-running
	// normalization on identical input yields identical IDs.
	ID         string            `json:"id"`
	Kind       ItemKind          `json:"kind"`
	Category   Category          `json:"category"`
	SourcePath string            `json:"source_path"`
	Text       string            `json:"text"`
	RawMeta    map[string]string `json:"raw_meta,omitempty"`
}
