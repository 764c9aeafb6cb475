package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/takibi/seiri/internal/capture"
	"github.com/takibi/seiri/internal/config"
	"github.com/takibi/seiri/internal/models"
	"github.com/takibi/seiri/internal/storage"
)

const captureDoc = `{
	"case_id": "case-e2e",
	"timestamp": "2024-03-01T10:00:00Z",
	"system_logs": {
		"/var/log/auth.log": "Mar  1 09:58:01 host sshd[4211]: Failed password for root from 10.0.0.5 port 22 ssh2\nMar  1 09:58:03 host sshd[4211]: Failed password for invalid user admin from 10.0.0.5 port 22 ssh2"
	},
	"user_activity": {
		"/root/.bash_history": "sudo su -"
	},
	"network": {
		"ss -tlnp": "LISTEN 0 128 0.0.0.0:22 0.0.0.0:* users:((\"sshd\",pid=644,fd=3))"
	}
}`

func testPipeline(t *testing.T) (*Pipeline, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{CaseID: "case-cfg"}
	config.ApplyDefaults(cfg)
	cfg.Storage.OutputDir = filepath.Join(dir, "output")
	cfg.Storage.OverflowDir = filepath.Join(dir, "overflow")
	return New(cfg, zap.NewNop()), cfg
}

func TestPipeline_Run(t *testing.T) {
	pipe, cfg := testPipeline(t)

	capPath := filepath.Join(t.TempDir(), "capture.json")
	if err := os.WriteFile(capPath, []byte(captureDoc), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := pipe.Run(context.Background(), capPath)
	if err != nil {
		t.Fatal(err)
	}

	if result.CaseID != "case-e2e" {
		t.Errorf("capture case id should win over config, got %s", result.CaseID)
	}
	if result.RunID == "" {
		t.Error("run id should be set")
	}
	if result.Counts.Artifacts != 3 {
		t.Errorf("artifacts = %d", result.Counts.Artifacts)
	}
	// auth.log splits into two lines; the other artifacts yield one item each.
	if result.Counts.Items != 4 {
		t.Errorf("items = %d", result.Counts.Items)
	}
	if result.Counts.Chunks == 0 {
		t.Error("expected at least one chunk")
	}
	if result.Counts.OverflowItems != 0 {
		t.Errorf("overflow = %d", result.Counts.OverflowItems)
	}

	if result.Priorities == nil || len(result.Priorities.Records) != 4 {
		t.Fatalf("priorities = %+v", result.Priorities)
	}
	top := result.Priorities.Records[0]
	if top.Score != 15 || top.Category != models.CategorySystemLogs {
		t.Errorf("top record = %+v", top)
	}

	if result.Techniques == nil || result.Techniques.TotalItemsScanned != 4 {
		t.Fatalf("techniques = %+v", result.Techniques)
	}
	if _, ok := result.Techniques.ByTechnique["T1110"]; !ok {
		t.Errorf("expected T1110 in %v", result.Techniques.ByTechnique)
	}

	outDir := filepath.Join(cfg.Storage.OutputDir, result.RunID)
	if result.OutputDir != outDir {
		t.Errorf("output dir = %s", result.OutputDir)
	}
	for _, name := range []string{
		"system_logs.json",
		"user_activity.json",
		"network.json",
		"priorities.json",
		"mitre_mapping.json",
		"loki_payload.json",
		"run.json",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "files.json")); err == nil {
		t.Error("empty categories should not produce a partition file")
	}

	// run.json must round trip as a report document.
	data, err := os.ReadFile(filepath.Join(outDir, "run.json"))
	if err != nil {
		t.Fatal(err)
	}
	var persisted models.RunResult
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.RunID != result.RunID || persisted.Counts != result.Counts {
		t.Errorf("persisted run = %+v", persisted)
	}
}

func TestPipeline_DeterministicItemIDs(t *testing.T) {
	pipe, _ := testPipeline(t)
	ctx := context.Background()

	first, err := capture.Parse([]byte(captureDoc))
	if err != nil {
		t.Fatal(err)
	}
	second, err := capture.Parse([]byte(captureDoc))
	if err != nil {
		t.Fatal(err)
	}

	resA, err := pipe.RunCapture(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	resB, err := pipe.RunCapture(ctx, second)
	if err != nil {
		t.Fatal(err)
	}

	if resA.RunID == resB.RunID {
		t.Error("run ids must be unique per run")
	}
	if len(resA.Items) != len(resB.Items) {
		t.Fatalf("item counts differ: %d vs %d", len(resA.Items), len(resB.Items))
	}
	for i := range resA.Items {
		if resA.Items[i].ID != resB.Items[i].ID {
			t.Errorf("item %d id differs: %s vs %s", i, resA.Items[i].ID, resB.Items[i].ID)
		}
	}
}

func TestPipeline_RepeatedLinesWithStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.OutputDir = filepath.Join(dir, "output")
	cfg.Storage.OverflowDir = filepath.Join(dir, "overflow")

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	pipe := New(cfg, zap.NewNop(), WithStorage(store))

	// Collectors legitimately emit the same line twice; both items carry the
	// same content-derived id and the run must still persist.
	doc := `{
		"case_id": "case-dup",
		"timestamp": "2024-03-01T10:00:00Z",
		"system_logs": {
			"/var/log/syslog": "same line\nsame line"
		}
	}`
	cap, err := capture.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	result, err := pipe.RunCapture(context.Background(), cap)
	if err != nil {
		t.Fatalf("repeated lines must not abort the run: %v", err)
	}
	if result.Counts.Items != 2 {
		t.Errorf("items = %d", result.Counts.Items)
	}
	if result.Items[0].ID != result.Items[1].ID {
		t.Errorf("repeated lines should share an id, got %s and %s", result.Items[0].ID, result.Items[1].ID)
	}

	records, err := store.ListPriorities(context.Background(), result.RunID, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("expected one persisted record for the shared id, got %d", len(records))
	}
}

func TestPipeline_ResolveCaseID(t *testing.T) {
	pipe, cfg := testPipeline(t)

	if got := pipe.resolveCaseID(&models.Capture{CaseID: "case-x"}); got != "case-x" {
		t.Errorf("got %s", got)
	}
	if got := pipe.resolveCaseID(&models.Capture{}); got != "case-cfg" {
		t.Errorf("got %s", got)
	}
	cfg.CaseID = ""
	got := pipe.resolveCaseID(&models.Capture{})
	if len(got) != len("case-")+8 {
		t.Errorf("generated id %q should be case- plus 8 hex chars", got)
	}
}

func TestFlattenChunks(t *testing.T) {
	chunks := map[models.Category][]models.ExportChunk{
		models.CategoryNetwork:    {{Category: models.CategoryNetwork, BatchID: 0}},
		models.CategorySystemLogs: {{Category: models.CategorySystemLogs, BatchID: 0}, {Category: models.CategorySystemLogs, BatchID: 1}},
	}
	flat := FlattenChunks(chunks)
	if len(flat) != 3 {
		t.Fatalf("len = %d", len(flat))
	}
	// system_logs comes before network in fixed category order.
	if flat[0].Category != models.CategorySystemLogs || flat[2].Category != models.CategoryNetwork {
		t.Errorf("order = %v", []models.Category{flat[0].Category, flat[1].Category, flat[2].Category})
	}
}
