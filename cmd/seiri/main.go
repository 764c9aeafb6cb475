// Package main is the Seiri CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/takibi/seiri/internal/capture"
	"github.com/takibi/seiri/internal/cli"
	"github.com/takibi/seiri/internal/config"
	"github.com/takibi/seiri/internal/evidence"
	"github.com/takibi/seiri/internal/export"
	"github.com/takibi/seiri/internal/models"
	"github.com/takibi/seiri/internal/normalize"
	"github.com/takibi/seiri/internal/pipeline"
	"github.com/takibi/seiri/internal/report"
	"github.com/takibi/seiri/internal/server"
	"github.com/takibi/seiri/internal/sink"
	"github.com/takibi/seiri/internal/storage"
	"github.com/takibi/seiri/internal/taxonomy"
	"github.com/takibi/seiri/internal/watcher"
	"github.com/takibi/seiri/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/seiri/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "seiri server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "run":
		runRun()
	case "push":
		runPush()
	case "search":
		runSearch()
	case "report":
		runReport()
	case "tree":
		runTree()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("seiri version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	caseID := fs.String("case", "", "case id override (default from capture or config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: seiri run [flags] <capture.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *caseID != "" {
		cfg.CaseID = *caseID
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Pipeline.Run(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}
	format := parseOutputFormat(*outputFormat)
	if err := cli.WriteRunResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runPush() {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	lokiURL := fs.String("url", "", "Loki push URL (default from config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: seiri push [flags] <run-output-dir-or-payload.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	pushURL := cfg.Sinks.Loki.URL
	if *lokiURL != "" {
		pushURL = *lokiURL
	}
	if pushURL == "" {
		fmt.Println("No Loki URL configured; set sinks.loki.url or pass --url")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	payloadPath := path
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		payloadPath = filepath.Join(path, "loki_payload.json")
	}
	data, err := os.ReadFile(payloadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read payload: %v\n", err)
		os.Exit(1)
	}
	var payload export.LokiPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse payload: %v\n", err)
		os.Exit(1)
	}

	client := sink.NewLokiClient(pushURL, sink.WithLogger(logger))
	if err := client.Push(context.Background(), &payload); err != nil {
		fmt.Fprintf(os.Stderr, "Push failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pushed %d stream(s) to %s\n", len(payload.Streams), pushURL)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: seiri search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  seiri search failed password
  seiri search "failed password"               # same as above
  seiri search --category system_logs sshd     # restrict to one category
  seiri search --output json reverse shell     # parseable output
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "seiri search \"query\" -limit 5"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct index when server is not running)")
	category := fs.String("category", "", "restrict to one category")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := parseOutputFormat(*outputFormat)

	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve lock conflict).
		hits, err := searchViaHTTP(*serverURL, queryStr, *category, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchHits(os.Stdout, hits, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct index access (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	index, err := evidence.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open evidence index: %v\n", err)
		os.Exit(1)
	}
	defer index.Close()

	hits, err := index.Search(context.Background(), queryStr, *category, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchHits(os.Stdout, hits, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query, category string, limit int) ([]*evidence.Hit, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query":    query,
		"category": category,
		"limit":    limit,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response struct {
		Hits []*evidence.Hit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response.Hits, nil
}

func runReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	outPath := fs.String("out", "seiri_report.xlsx", "workbook output path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: seiri report [flags] <run-output-dir>")
		os.Exit(1)
	}
	runDir := fs.Arg(0)

	data, err := os.ReadFile(filepath.Join(runDir, "run.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read run: %v\n", err)
		os.Exit(1)
	}
	var result models.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse run: %v\n", err)
		os.Exit(1)
	}
	if err := report.WriteWorkbook(*outPath, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Report written: %s\n", *outPath)
}

func runTree() {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: seiri tree [flags] <capture.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cap, err := capture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load capture: %v\n", err)
		os.Exit(1)
	}
	caseID := cap.CaseID
	if caseID == "" {
		caseID = "unlabeled"
	}
	var items []models.Item
	for _, artifact := range cap.Artifacts {
		category := taxonomy.Categorize(artifact.SourcePath, artifact.CategoryHint)
		items = append(items, normalize.Normalize(artifact, category)...)
	}
	root := export.BuildTree(caseID, items)
	format := parseOutputFormat(*outputFormat)
	if err := cli.WriteTree(os.Stdout, root, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (directory changes, capture ingest, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Pipeline,
		components.Storage,
		components.Index,
		cfg,
		logger,
	)

	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			result, err := components.Pipeline.Run(context.Background(), path)
			if err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				return
			}
			srv.SetLastResult(result)
		},
		watchOpts...,
	)
	srv.AttachWatch(watchSvc, resolvedConfigPath)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Runs           int64                  `json:"runs"`
	ScoreRecords   int64                  `json:"score_records"`
	IndexedItems   uint64                 `json:"indexed_items"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		runCount, err := components.Storage.CountRuns(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count runs failed: %v\n", err)
			os.Exit(1)
		}
		recordCount, err := components.Storage.CountScoreRecords(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count score records failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Runs:         runCount,
			ScoreRecords: recordCount,
			Config: map[string]interface{}{
				"case_id":           cfg.CaseID,
				"sample_limit":      cfg.SampleLimit,
				"entry_limit_bytes": cfg.Sinks.Loki.EntryLimitBytes,
				"database_path":     cfg.Storage.DatabasePath,
				"bleve_index_path":  cfg.Storage.BleveIndexPath,
				"output_dir":        cfg.Storage.OutputDir,
			},
		}
		if indexed, countErr := components.Index.Count(); countErr == nil {
			status.IndexedItems = indexed
		}
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.OutputDir)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("runs:            %d   # count of persisted runs\n", status.Runs)
		fmt.Printf("score_records:   %d   # count of persisted priority records\n", status.ScoreRecords)
		fmt.Printf("indexed_items:   %d   # count of items in evidence index\n", status.IndexedItems)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes: %d   # storage + index + output on disk\n", *status.DiskUsageBytes)
		}
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"case_id", "sample_limit", "entry_limit_bytes", "database_path", "bleve_index_path", "output_dir"} {
				if v, ok := status.Config[key]; ok && v != "" {
					fmt.Printf("%-18s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: seiri watch <add|remove|list> [path]")
		fmt.Println("  seiri watch add <path>     Add drop directory to watch")
		fmt.Println("  seiri watch remove <path>  Remove drop directory from watch")
		fmt.Println("  seiri watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: seiri watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: seiri watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func parseOutputFormat(format string) cli.OutputFormat {
	switch format {
	case "json":
		return cli.OutputJSON
	case "text":
		return cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", format)
		os.Exit(1)
		return cli.OutputText
	}
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Index    evidence.Index
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	index, err := evidence.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize evidence index: %w", err)
	}

	pipe := pipeline.New(cfg, logger,
		pipeline.WithStorage(store),
		pipeline.WithIndex(index),
	)

	return &Components{
		Storage:  store,
		Index:    index,
		Pipeline: pipe,
	}, nil
}

func printUsage() {
	fmt.Println(`seiri - Forensic artifact triage pipeline

Usage:
  seiri run [flags] <capture.json>    Process a capture end to end
  seiri push [flags] <run-dir>        Push a run's payload to Loki
  seiri search [flags] <query>        Search normalized evidence
  seiri report [flags] <run-dir>      Write an XLSX report for a run
  seiri tree [flags] <capture.json>   Print the category tree for a capture
  seiri server [flags]                Start the HTTP server
  seiri status [flags]                Show storage/index status
  seiri watch <add|remove|list>       Manage watched drop directories
  seiri version                       Show version
  seiri help                          Show this help

Run Flags:
  --config string    Config file path (default: /usr/local/etc/seiri/config.yaml)
  --case string      Case id override (default from capture or config)
  --output string    Output format: text or json (default: text)

Push Flags:
  --config string    Config file path
  --url string       Loki push URL (default from config sinks.loki.url)

Search Flags:
  --config string    Config file path (for direct index mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct index access.
  --category string  Restrict results to one category
  --limit int        Number of results (default: 10)
  --output string    Output format: text or json (default: text)

Report Flags:
  --out string       Workbook output path (default: seiri_report.xlsx)

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging (directory changes, capture ingest, etc.)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  seiri run capture.json
  seiri run --case case-2024-001 --output json capture.json
  seiri search "failed password"
  seiri search --category system_logs sshd
  seiri report /usr/local/var/seiri/data/output/<run-id>
  seiri tree capture.json
  seiri server
  seiri status --output json
  seiri watch add /srv/captures`)
}
