package models

import (
	"encoding/json"
	"time"
)

// ScoreRecord is the prioritizer's output for one item.
type ScoreRecord struct {
	ItemID      string   `json:"item_id"`
	Category    Category `json:"category"`
	SourcePath  string   `json:"source_path"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons"`
	ContentHash string   `json:"content_hash"`
}

// PriorityReport is the full priority list for one run, sorted by descending
// score with original item order as the tie break.
type PriorityReport struct {
	CaseID      string        `json:"case_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Records     []ScoreRecord `json:"prioritized"`
}

// SampleRef points at one item that matched a technique (or nothing).
type SampleRef struct {
	ItemID     string `json:"id"`
	SourceFile string `json:"source_file"`
}

// TechniqueStat aggregates matches for one technique. Count is always at
// least len(Samples); samples are the first N seen, not a random selection.
type TechniqueStat struct {
	Tactic  string      `json:"tactic"`
	Count   int         `json:"count"`
	Samples []SampleRef `json:"samples"`
}

// TacticStat rolls technique counts up to the tactic level.
type TacticStat struct {
	Count      int            `json:"count"`
	Techniques map[string]int `json:"techniques"`
}

// TechniqueReport is the technique mapper's output. Scanned counts items;
// HitInstances counts (item, technique) pairs, so one item matching three
// techniques contributes three instances. ItemsMatched + UnmappedCount equals
// TotalItemsScanned.
type TechniqueReport struct {
	CaseID            string                    `json:"case_id"`
	GeneratedAt       time.Time                 `json:"generated_at"`
	TotalItemsScanned int                       `json:"total_items_scanned"`
	ItemsMatched      int                       `json:"items_matched"`
	HitInstances      int                       `json:"hit_instances"`
	ByTechnique       map[string]*TechniqueStat `json:"by_technique"`
	ByTactic          map[string]*TacticStat    `json:"by_tactic"`
	UnmappedCount     int                       `json:"unmapped_count"`
	UnmappedSamples   []SampleRef               `json:"unmapped_samples"`
}

// ExportChunk is one size-bounded group of serialized items destined for a
// single sink write. Payload is a JSON array of item objects; concatenating
// the payloads of a category's chunks in BatchID order reproduces that
// category's item sequence exactly once.
type ExportChunk struct {
	BatchID        int             `json:"batch_id"`
	Category       Category        `json:"category"`
	ItemCount      int             `json:"item_count"`
	SerializedSize int             `json:"serialized_size_bytes"`
	Payload        json.RawMessage `json:"payload"`
}

// OverflowEntry records an item that could not be reduced below the sink
// limit and was routed to the overflow store instead of any chunk.
type OverflowEntry struct {
	ItemID     string   `json:"item_id"`
	Category   Category `json:"category"`
	SourcePath string   `json:"source_path"`
	SizeBytes  int      `json:"size_bytes"`
	StorePath  string   `json:"store_path,omitempty"`
	Reason     string   `json:"reason"`
}

// StageCounts holds per-stage item accounting for one run. Missing or
// unavailable artifacts are data, not failures, so every run reports a
// complete set of counts.
type StageCounts struct {
	Artifacts        int `json:"artifacts"`
	Items            int `json:"items"`
	UnavailableItems int `json:"unavailable_items"`
	ErrorItems       int `json:"error_items"`
	Chunks           int `json:"chunks"`
	OverflowItems    int `json:"overflow_items"`
}

// RunResult is everything one pipeline run produced.
type RunResult struct {
	RunID      string                     `json:"run_id"`
	CaseID     string                     `json:"case_id"`
	Timestamp  time.Time                  `json:"timestamp"`
	Counts     StageCounts                `json:"counts"`
	Items      []Item                     `json:"-"`
	Priorities *PriorityReport            `json:"priorities,omitempty"`
	Techniques *TechniqueReport           `json:"techniques,omitempty"`
	Chunks     map[Category][]ExportChunk `json:"-"`
	Overflow   []OverflowEntry            `json:"overflow,omitempty"`
	OutputDir  string                     `json:"output_dir,omitempty"`
}
