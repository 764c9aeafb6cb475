package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
case_id: "case-2024-001"
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./data/runs.db"
sinks:
  loki:
    url: "http://localhost:3100/loki/api/v1/push"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CaseID != "case-2024-001" {
		t.Errorf("case_id = %s", cfg.CaseID)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Sinks.Loki.URL != "http://localhost:3100/loki/api/v1/push" {
		t.Errorf("loki url = %s", cfg.Sinks.Loki.URL)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	// "./" paths resolve against the config file directory.
	want := filepath.Join(filepath.Dir(path), "data/runs.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_defaults(t *testing.T) {
	path := writeConfig(t, "debug: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.SampleLimit != 5 {
		t.Errorf("sample_limit = %d, want 5", cfg.SampleLimit)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Sinks.Loki.EntryLimitBytes != 256*1024 {
		t.Errorf("entry_limit_bytes = %d", cfg.Sinks.Loki.EntryLimitBytes)
	}
	if cfg.Sinks.DocStore.DocumentLimitBytes != 16*1024*1024 {
		t.Errorf("document_limit_bytes = %d", cfg.Sinks.DocStore.DocumentLimitBytes)
	}
	if cfg.Sinks.DocStore.BatchSize != 1000 {
		t.Errorf("batch_size = %d", cfg.Sinks.DocStore.BatchSize)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".json" {
		t.Errorf("watch extensions = %v", cfg.Watch.Extensions)
	}
	if cfg.Storage.DatabasePath == "" || cfg.Storage.OutputDir == "" {
		t.Error("storage paths should have defaults")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{CaseID: "case-xyz"}
	cfg.Watch.Directories = []string{filepath.Join(dir, "drops")}
	ApplyDefaults(cfg)

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.CaseID != "case-xyz" {
		t.Errorf("case_id = %s", loaded.CaseID)
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != cfg.Watch.Directories[0] {
		t.Errorf("watch directories = %v", loaded.Watch.Directories)
	}
}

func TestRecursiveOrDefault(t *testing.T) {
	var w WatchConfig
	if !w.RecursiveOrDefault() {
		t.Error("unset recursive should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false must be honored")
	}
}
