package capture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/takibi/seiri/internal/models"
)

func TestParse_listShape(t *testing.T) {
	data := []byte(`{
		"case_id": "case-001",
		"timestamp": "2024-03-01T10:00:00Z",
		"artifacts": [
			{"path": "/var/log/auth.log", "category": "system_logs", "content": "line one\nline two"},
			{"path": "/proc/net/tcp", "content": ["sl local rem", "0: 0100007F"]}
		]
	}`)
	cap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cap.CaseID != "case-001" {
		t.Errorf("case id = %q", cap.CaseID)
	}
	if !cap.Timestamp.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", cap.Timestamp)
	}
	if len(cap.Artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(cap.Artifacts))
	}
	first := cap.Artifacts[0]
	if first.SourcePath != "/var/log/auth.log" || first.CategoryHint != "system_logs" {
		t.Errorf("first artifact = %+v", first)
	}
	if first.Content.Kind != models.ContentText {
		t.Errorf("first content kind = %s", first.Content.Kind)
	}
	second := cap.Artifacts[1]
	if second.Content.Kind != models.ContentListing || len(second.Content.Listing) != 2 {
		t.Errorf("second content = %+v", second.Content)
	}
}

func TestParse_mappingShapeSorted(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-03-01T10:00:00Z",
		"artifacts": {
			"/z/last": "z",
			"/a/first": "a",
			"/m/middle": "m"
		}
	}`)
	cap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"/a/first", "/m/middle", "/z/last"}
	if len(cap.Artifacts) != len(want) {
		t.Fatalf("got %d artifacts", len(cap.Artifacts))
	}
	for i, artifact := range cap.Artifacts {
		if artifact.SourcePath != want[i] {
			t.Errorf("artifact[%d] path = %q, want %q", i, artifact.SourcePath, want[i])
		}
	}
}

func TestParse_categoryGroupedShape(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-03-01T10:00:00Z",
		"system_logs": {
			"/var/log/auth.log": "Failed password for root",
			"/var/log/syslog": "started"
		},
		"network": {
			"/proc/net/tcp": ["row"]
		}
	}`)
	cap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cap.Artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(cap.Artifacts))
	}
	// Group keys sort: network before system_logs; paths sort inside a group.
	if cap.Artifacts[0].CategoryHint != "network" {
		t.Errorf("first group hint = %q", cap.Artifacts[0].CategoryHint)
	}
	if cap.Artifacts[1].SourcePath != "/var/log/auth.log" || cap.Artifacts[1].CategoryHint != "system_logs" {
		t.Errorf("second artifact = %+v", cap.Artifacts[1])
	}
}

func TestParse_unavailableContent(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-03-01T10:00:00Z",
		"artifacts": [
			{"path": "/var/log/auth.log", "content": null},
			{"path": "/var/log/btmp", "content": {"unavailable": {"reason": "permission denied", "observed_at": "2024-03-01T09:59:00Z"}}}
		]
	}`)
	cap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	null := cap.Artifacts[0].Content
	if null.Kind != models.ContentUnavailable || null.Reason != "content not captured" {
		t.Errorf("null content = %+v", null)
	}
	if !null.ObservedAt.Equal(cap.Timestamp) {
		t.Errorf("null observed_at should default to capture timestamp, got %v", null.ObservedAt)
	}
	marked := cap.Artifacts[1].Content
	if marked.Kind != models.ContentUnavailable || marked.Reason != "permission denied" {
		t.Errorf("marked content = %+v", marked)
	}
	if !marked.ObservedAt.Equal(time.Date(2024, 3, 1, 9, 59, 0, 0, time.UTC)) {
		t.Errorf("marked observed_at = %v", marked.ObservedAt)
	}
}

func TestParse_structuredContent(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-03-01T10:00:00Z",
		"artifacts": [
			{"path": "/proc/meminfo", "content": {"MemTotal": "16314440 kB", "MemFree": "8078332 kB"}}
		]
	}`)
	cap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	content := cap.Artifacts[0].Content
	if content.Kind != models.ContentStructured {
		t.Fatalf("content kind = %s", content.Kind)
	}
	// Fields assemble in sorted key order.
	if content.Structured[0].Key != "MemFree" || content.Structured[1].Key != "MemTotal" {
		t.Errorf("fields = %+v", content.Structured)
	}
}

func TestParse_scalarCanonicalization(t *testing.T) {
	data := []byte(`{
		"timestamp": "2024-03-01T10:00:00Z",
		"artifacts": [
			{"path": "/a", "content": true},
			{"path": "/b", "content": 42},
			{"path": "/c", "content": 3.5}
		]
	}`)
	cap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"true", "42", "3.5"}
	for i, artifact := range cap.Artifacts {
		if artifact.Content.Kind != models.ContentText || artifact.Content.Text != want[i] {
			t.Errorf("artifact[%d] content = %+v, want text %q", i, artifact.Content, want[i])
		}
	}
}

func TestParse_malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an object", `["array"]`},
		{"missing timestamp", `{"artifacts": {}}`},
		{"bad timestamp", `{"timestamp": "yesterday"}`},
		{"non-string timestamp", `{"timestamp": 12345}`},
		{"list entry without path", `{"timestamp": "2024-03-01T10:00:00Z", "artifacts": [{"content": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("expected MalformedInputError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.json")
	content := `{"timestamp": "2024-03-01T10:00:00Z", "artifacts": {"/etc/hosts": "127.0.0.1 localhost"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cap.Artifacts) != 1 {
		t.Errorf("got %d artifacts", len(cap.Artifacts))
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
