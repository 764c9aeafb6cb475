// Package mitre maps items onto attacker techniques by keyword matching and
// aggregates per-technique and per-tactic counts with bounded sample sets.
package mitre

import (
	"sort"
	"strings"
	"time"

	"github.com/takibi/seiri/internal/models"
)

// DefaultSampleLimit caps the sample list kept per technique and for the
// unmapped bucket.
const DefaultSampleLimit = 5

// Mapper matches items against the keyword table. The tables are fixed at
// construction; only the sample cap is configurable.
type Mapper struct {
	sampleLimit int
}

// NewMapper creates a mapper. A non-positive limit means DefaultSampleLimit.
func NewMapper(sampleLimit int) *Mapper {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}
	return &Mapper{sampleLimit: sampleLimit}
}

// Match returns the sorted set of technique ids the item's textual signals
// indicate. Matching is substring search of each keyword against the
// lowercased item text and category; an item may match zero, one, or many.
func (m *Mapper) Match(item models.Item) []string {
	combined := strings.ToLower(item.Text + " " + string(item.Category))
	hits := make(map[string]struct{})
	for _, rule := range keywordRules {
		if strings.Contains(combined, rule.keyword) {
			for _, t := range rule.techniques {
				hits[t] = struct{}{}
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}
	out := make([]string, 0, len(hits))
	for t := range hits {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Run scans every item and builds the technique report. Samples use
// first-N-seen semantics for reproducibility; an item with no matches is
// counted exactly once in the unmapped bucket.
func (m *Mapper) Run(caseID string, generatedAt time.Time, items []models.Item) *models.TechniqueReport {
	report := &models.TechniqueReport{
		CaseID:            caseID,
		GeneratedAt:       generatedAt,
		TotalItemsScanned: len(items),
		ByTechnique:       make(map[string]*models.TechniqueStat),
		ByTactic:          make(map[string]*models.TacticStat),
		UnmappedSamples:   []models.SampleRef{},
	}

	for _, item := range items {
		ref := models.SampleRef{
			ItemID:     item.ID,
			SourceFile: string(item.Category) + ".json",
		}
		techniques := m.Match(item)
		if len(techniques) == 0 {
			report.UnmappedCount++
			if len(report.UnmappedSamples) < m.sampleLimit {
				report.UnmappedSamples = append(report.UnmappedSamples, ref)
			}
			continue
		}
		report.ItemsMatched++
		for _, t := range techniques {
			report.HitInstances++
			stat := report.ByTechnique[t]
			if stat == nil {
				stat = &models.TechniqueStat{Tactic: TacticFor(t), Samples: []models.SampleRef{}}
				report.ByTechnique[t] = stat
			}
			stat.Count++
			if len(stat.Samples) < m.sampleLimit {
				stat.Samples = append(stat.Samples, ref)
			}
		}
	}

	for t, stat := range report.ByTechnique {
		tactic := report.ByTactic[stat.Tactic]
		if tactic == nil {
			tactic = &models.TacticStat{Techniques: make(map[string]int)}
			report.ByTactic[stat.Tactic] = tactic
		}
		tactic.Count += stat.Count
		tactic.Techniques[t] = stat.Count
	}

	return report
}
