package itemid

import (
	"strings"
	"testing"

	"github.com/takibi/seiri/internal/models"
)

func TestItemID_deterministic(t *testing.T) {
	a := ItemID(models.CategorySystemLogs, "/var/log/auth.log", "Failed password for root")
	b := ItemID(models.CategorySystemLogs, "/var/log/auth.log", "Failed password for root")
	if a != b {
		t.Errorf("same input produced different ids: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "log-") {
		t.Errorf("id missing log- prefix: %s", a)
	}
	if len(a) != len("log-")+12 {
		t.Errorf("unexpected id length: %s", a)
	}
}

func TestItemID_sensitivity(t *testing.T) {
	base := ItemID(models.CategorySystemLogs, "/var/log/auth.log", "line")
	tests := []struct {
		name string
		id   string
	}{
		{"different category", ItemID(models.CategoryNetwork, "/var/log/auth.log", "line")},
		{"different path", ItemID(models.CategorySystemLogs, "/var/log/syslog", "line")},
		{"different text", ItemID(models.CategorySystemLogs, "/var/log/auth.log", "other")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.id == base {
				t.Errorf("expected distinct id, got %s for both", base)
			}
		})
	}
}

func TestItemID_fieldBoundaries(t *testing.T) {
	// The separator prevents ambiguity between (ab, c) and (a, bc).
	a := ItemID(models.CategoryOther, "ab", "c")
	b := ItemID(models.CategoryOther, "a", "bc")
	if a == b {
		t.Error("field boundary collision: shifting bytes across fields produced equal ids")
	}
}

func TestErrorID_prefix(t *testing.T) {
	id := ErrorID(models.CategoryOther, "/weird", "unrecognized content kind")
	if !strings.HasPrefix(id, "error-") {
		t.Errorf("error id missing prefix: %s", id)
	}
	log := ItemID(models.CategoryOther, "/weird", "unrecognized content kind")
	if strings.TrimPrefix(id, "error-") != strings.TrimPrefix(log, "log-") {
		t.Error("error and log ids over the same fields should share the digest")
	}
}
