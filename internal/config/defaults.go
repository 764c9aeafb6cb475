package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.SampleLimit == 0 {
		cfg.SampleLimit = 5
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/seiri/data/db/runs.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/seiri/data/indices/bleve"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "/usr/local/var/seiri/data/output"
	}
	if cfg.Storage.OverflowDir == "" {
		cfg.Storage.OverflowDir = "/usr/local/var/seiri/data/overflow"
	}
	if cfg.Sinks.Loki.EntryLimitBytes == 0 {
		cfg.Sinks.Loki.EntryLimitBytes = 256 * 1024
	}
	if cfg.Sinks.DocStore.DocumentLimitBytes == 0 {
		cfg.Sinks.DocStore.DocumentLimitBytes = 16 * 1024 * 1024
	}
	if cfg.Sinks.DocStore.BatchSize == 0 {
		cfg.Sinks.DocStore.BatchSize = 1000
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
