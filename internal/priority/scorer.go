// Package priority computes evidentiary scores for items and produces the
// totally ordered priority list. Scoring is a pure function of the item:
// category base score plus additive keyword boosts, so identical input always
// yields identical records.
package priority

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/takibi/seiri/internal/models"
	"github.com/takibi/seiri/internal/taxonomy"
)

// KeywordBoost is one evidence keyword and its additive score contribution.
type KeywordBoost struct {
	Keyword string
	Boost   int
}

// DefaultEvidenceKeywords returns the built-in boost table. Matching is
// case-insensitive substring search; boosts are additive and may overlap, so
// an item matching three keywords receives three boosts.
func DefaultEvidenceKeywords() []KeywordBoost {
	return []KeywordBoost{
		{"failed password", 5},
		{"authentication failure", 4},
		{"session opened for user root", 3},
		{"root", 2},
		{"sudo", 2},
		{"netcat", 3},
		{"socat", 3},
		{"nmap", 3},
		{"reverse shell", 5},
		{"base64 -d", 3},
		{"/dev/shm", 3},
		{"chmod 777", 3},
		{"wget", 2},
		{"curl", 2},
		{"established", 2},
		{"listen", 1},
	}
}

// Scorer scores items against a fixed keyword table. The table is injected
// at construction and treated as immutable for the process lifetime.
type Scorer struct {
	boosts []KeywordBoost
}

// NewScorer creates a scorer. A nil table means the default evidence keywords.
func NewScorer(boosts []KeywordBoost) *Scorer {
	if boosts == nil {
		boosts = DefaultEvidenceKeywords()
	}
	return &Scorer{boosts: boosts}
}

// Score computes the record for one item. Unavailable placeholders receive
// the category base score only: absence of evidence is not absence of
// category-level volatility, but a missing-source message earns no boosts.
func (s *Scorer) Score(item models.Item) models.ScoreRecord {
	base := taxonomy.BaseScore(item.Category)
	record := models.ScoreRecord{
		ItemID:      item.ID,
		Category:    item.Category,
		SourcePath:  item.SourcePath,
		Score:       base,
		Reasons:     []string{fmt.Sprintf("base:%s(+%d)", item.Category, base)},
		ContentHash: ContentHash(item),
	}
	if item.Kind == models.ItemUnavailable {
		record.Reasons = append(record.Reasons, "unavailable:base score only")
		return record
	}

	text := strings.ToLower(item.Text)
	for _, b := range s.boosts {
		if strings.Contains(text, b.Keyword) {
			record.Score += b.Boost
			record.Reasons = append(record.Reasons, fmt.Sprintf("keyword:%s(+%d)", b.Keyword, b.Boost))
		}
	}
	return record
}

// ScoreAll scores every item and returns the records sorted by descending
// score. The sort is stable, so ties keep original item order and results
// are byte-identical across runs on identical input.
func (s *Scorer) ScoreAll(items []models.Item) []models.ScoreRecord {
	records := make([]models.ScoreRecord, len(items))
	for i, item := range items {
		records[i] = s.Score(item)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	return records
}

// Report wraps sorted records into a priority report for one run.
func (s *Scorer) Report(caseID string, generatedAt time.Time, items []models.Item) *models.PriorityReport {
	return &models.PriorityReport{
		CaseID:      caseID,
		GeneratedAt: generatedAt,
		Records:     s.ScoreAll(items),
	}
}

// ContentHash is a stable digest of the item's canonical serialization, used
// for dedup and audit, never for matching.
func ContentHash(item models.Item) string {
	h := sha256.New()
	h.Write([]byte(item.ID))
	h.Write([]byte{0})
	h.Write([]byte(item.Category))
	h.Write([]byte{0})
	h.Write([]byte(item.SourcePath))
	h.Write([]byte{0})
	h.Write([]byte(item.Text))
	return hex.EncodeToString(h.Sum(nil))
}
