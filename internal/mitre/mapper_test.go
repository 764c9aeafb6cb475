package mitre

import (
	"testing"
	"time"

	"github.com/takibi/seiri/internal/itemid"
	"github.com/takibi/seiri/internal/models"
)

func logItem(category models.Category, path, text string) models.Item {
	return models.Item{
		ID:         itemid.ItemID(category, path, text),
		Kind:       models.ItemLog,
		Category:   category,
		SourcePath: path,
		Text:       text,
	}
}

func TestMatch_keywordToTechniques(t *testing.T) {
	m := NewMapper(0)
	tests := []struct {
		name string
		item models.Item
		want []string
	}{
		{
			"failed password",
			logItem(models.CategorySystemLogs, "/var/log/auth.log", "Failed password for root from 203.0.113.5"),
			[]string{"T1110"},
		},
		{
			"invalid user",
			logItem(models.CategorySystemLogs, "/var/log/auth.log", "Invalid user admin from 198.51.100.7"),
			[]string{"T1078", "T1110"},
		},
		{
			"bash history",
			logItem(models.CategoryUserActivity, "/home/alice/.bash_history", "cat .bash_history"),
			[]string{"T1059"},
		},
		{
			"no match",
			logItem(models.CategoryFiles, "/mnt/usb/readme", "hello world"),
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.item)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMatch_usesTextAndCategoryOnly(t *testing.T) {
	// The source path itself is not matched: an unavailable placeholder for
	// auth.log whose reason text has no signal stays unmapped.
	m := NewMapper(0)
	item := models.Item{
		ID:         itemid.ItemID(models.CategorySystemLogs, "/var/log/auth.log", "permission denied"),
		Kind:       models.ItemUnavailable,
		Category:   models.CategorySystemLogs,
		SourcePath: "/var/log/auth.log",
		Text:       "permission denied",
	}
	if got := m.Match(item); got != nil {
		t.Errorf("expected no match, got %v", got)
	}
}

func TestMatch_dedup(t *testing.T) {
	// "/tmp" and "dev/shm" both signal T1070/T1564/T1105; each technique
	// appears once.
	m := NewMapper(0)
	item := logItem(models.CategoryProcesses, "/dev/shm/x", "cp /tmp/payload /dev/shm/payload")
	got := m.Match(item)
	seen := make(map[string]int)
	for _, technique := range got {
		seen[technique]++
	}
	for technique, count := range seen {
		if count != 1 {
			t.Errorf("technique %s appears %d times", technique, count)
		}
	}
	want := []string{"T1070", "T1105", "T1564"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want sorted %v", got, want)
		}
	}
}

func TestTacticFor(t *testing.T) {
	if got := TacticFor("T1110"); got != "Credential Access" {
		t.Errorf("TacticFor(T1110) = %q", got)
	}
	if got := TacticFor("T9999"); got != "Unknown" {
		t.Errorf("unlisted technique should map to Unknown, got %q", got)
	}
}

func TestRun_accounting(t *testing.T) {
	m := NewMapper(0)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []models.Item{
		logItem(models.CategorySystemLogs, "/var/log/auth.log", "Failed password for invalid user admin"), // T1078, T1110
		logItem(models.CategoryUserActivity, "/home/alice/.bash_history", "crontab -e"),                   // T1053
		logItem(models.CategoryFiles, "/mnt/usb/readme", "hello world"),                                   // unmapped
		logItem(models.CategoryFiles, "/mnt/usb/notes", "more text"),                                      // unmapped
	}
	report := m.Run("case-001", ts, items)

	if report.TotalItemsScanned != 4 {
		t.Errorf("scanned = %d", report.TotalItemsScanned)
	}
	if report.ItemsMatched != 2 {
		t.Errorf("matched = %d", report.ItemsMatched)
	}
	if report.UnmappedCount != 2 {
		t.Errorf("unmapped = %d", report.UnmappedCount)
	}
	if report.ItemsMatched+report.UnmappedCount != report.TotalItemsScanned {
		t.Error("matched + unmapped must equal scanned")
	}
	// One item hit two techniques, one hit one: three instances.
	if report.HitInstances != 3 {
		t.Errorf("hit instances = %d", report.HitInstances)
	}

	// Per-technique counts roll up to tactics exactly.
	var techniqueTotal int
	for _, stat := range report.ByTechnique {
		techniqueTotal += stat.Count
	}
	if techniqueTotal != report.HitInstances {
		t.Errorf("technique counts sum to %d, want %d", techniqueTotal, report.HitInstances)
	}
	var tacticTotal int
	for _, stat := range report.ByTactic {
		tacticTotal += stat.Count
	}
	if tacticTotal != report.HitInstances {
		t.Errorf("tactic counts sum to %d, want %d", tacticTotal, report.HitInstances)
	}
}

func TestRun_sampleLimit(t *testing.T) {
	m := NewMapper(2)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var items []models.Item
	for i := 0; i < 5; i++ {
		items = append(items, logItem(models.CategorySystemLogs, "/var/log/auth.log",
			"Failed password attempt "+string(rune('a'+i))))
	}
	report := m.Run("case-001", ts, items)
	stat := report.ByTechnique["T1110"]
	if stat == nil {
		t.Fatal("expected T1110 matches")
	}
	if stat.Count != 5 {
		t.Errorf("count = %d, want 5", stat.Count)
	}
	if len(stat.Samples) != 2 {
		t.Errorf("samples = %d, want capped at 2", len(stat.Samples))
	}
	// First-N-seen: samples are the first two items.
	if stat.Samples[0].ItemID != items[0].ID || stat.Samples[1].ItemID != items[1].ID {
		t.Error("samples should be the first items seen")
	}
}

func TestRun_unmappedSamples(t *testing.T) {
	m := NewMapper(1)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []models.Item{
		logItem(models.CategoryFiles, "/mnt/a", "nothing"),
		logItem(models.CategoryFiles, "/mnt/b", "nada"),
	}
	report := m.Run("case-001", ts, items)
	if report.UnmappedCount != 2 {
		t.Errorf("unmapped = %d", report.UnmappedCount)
	}
	if len(report.UnmappedSamples) != 1 {
		t.Errorf("unmapped samples = %d, want capped at 1", len(report.UnmappedSamples))
	}
	if report.UnmappedSamples[0].SourceFile != "files.json" {
		t.Errorf("sample source file = %q", report.UnmappedSamples[0].SourceFile)
	}
}
