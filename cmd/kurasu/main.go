// Package main is the kurasu CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kurasu/internal/analytics"
	"github.com/hyperjump/kurasu/internal/cli"
	"github.com/hyperjump/kurasu/internal/config"
	"github.com/hyperjump/kurasu/internal/corpus"
	"github.com/hyperjump/kurasu/internal/importer"
	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/internal/search"
	"github.com/hyperjump/kurasu/internal/server"
	"github.com/hyperjump/kurasu/internal/storage"
	"github.com/hyperjump/kurasu/internal/watcher"
	"github.com/hyperjump/kurasu/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = config.DefaultPath
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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
	case "server":
		runServer()
	case "suggest":
		runSuggest()
	case "details":
		runDetails()
	case "rating":
		runRating()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kurasu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	// Deferred first so it runs after components are closed and analytics flushed.
	failed := false
	defer func() {
		if failed {
			os.Exit(1)
		}
	}()

	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (corpus load, imports, queries)")
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

	components, err := initializeComponents(cfg, logger, cfg.Analytics.EnabledOrDefault())
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Import.Directories) > 0 {
		watchSvc := watcher.New(
			cfg.Import.Directories,
			cfg.Import.Extensions,
			cfg.Import.RecursiveOrDefault(),
			components.Importer,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Error("Failed to start watcher", zap.Error(err))
			failed = true
			return
		}
		watchSvc.SyncExistingFiles()
	}

	if cfg.Suggest.Warm() {
		go func() {
			if err := components.Corpus.Warm(ctx); err != nil {
				logger.Warn("corpus warm-up failed; will retry on first query", zap.Error(err))
			}
		}()
	}

	opts := []server.Option{}
	if components.Recorder != nil {
		opts = append(opts, server.WithRecorder(components.Recorder))
	}
	srv := server.NewServer(components.Engine, cfg, logger, opts...)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			failed = true
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	watch := fs.Bool("watch", false, "keep running and import files dropped into the given directories")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kurasu import [flags] <file-or-directory>...")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	var dirs []string
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Printf("Failed to stat path: %v\n", err)
			os.Exit(1)
		}
		if info.IsDir() {
			dirs = append(dirs, path)
			results, err := components.Importer.ImportDirectory(ctx, path, cfg.Import.Extensions, cfg.Import.RecursiveOrDefault())
			for _, res := range results {
				printImportResult(res)
			}
			if err != nil {
				fmt.Printf("Importing directory failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Imported %d file(s) from %s\n", len(results), path)
			continue
		}
		res, err := components.Importer.ImportFile(ctx, path)
		if err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}
		printImportResult(res)
	}

	if !*watch {
		return
	}
	if len(dirs) == 0 {
		fmt.Println("--watch needs at least one directory")
		os.Exit(1)
	}
	watchCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	w := watcher.New(dirs, cfg.Import.Extensions, cfg.Import.RecursiveOrDefault(), components.Importer, watcher.WithLogger(logger))
	if err := w.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	fmt.Printf("Watching %s (Ctrl+C to stop)\n", strings.Join(w.Roots(), ", "))
	<-watchCtx.Done()
	w.Stop()
}

func printImportResult(res *importer.Result) {
	if res.Skipped > 0 {
		fmt.Printf("%s: %d %s row(s), %d skipped\n", res.Path, res.Rows, res.Kind, res.Skipped)
		return
	}
	fmt.Printf("%s: %d %s row(s)\n", res.Path, res.Rows, res.Kind)
}

// Components holds initialized services.
type Components struct {
	Storage  *storage.SQLiteStorage
	Corpus   *corpus.Corpus
	Engine   *search.Engine
	Importer *importer.Importer
	Recorder *analytics.Recorder
}

// Close flushes analytics and closes storage.
func (c *Components) Close() {
	if c.Recorder != nil {
		_ = c.Recorder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withAnalytics bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	c := &Components{Storage: store}
	c.Corpus = corpus.New(store,
		corpus.WithLogger(logger),
		corpus.WithLimit(cfg.Suggest.Limit),
	)

	engineOpts := []search.Option{
		search.WithLogger(logger),
		search.WithCache(cfg.Suggest.CacheTTL, cfg.Suggest.CacheCleanup),
	}
	if withAnalytics {
		c.Recorder = analytics.NewRecorder(store,
			analytics.WithLogger(logger),
			analytics.WithDebounce(cfg.Analytics.Debounce),
			analytics.WithBufferSize(cfg.Analytics.BufferSize),
		)
		engineOpts = append(engineOpts, search.WithNotifier(c.Recorder))
	}
	c.Engine = search.NewEngine(c.Corpus, store, engineOpts...)
	c.Importer = importer.New(store, importer.WithLogger(logger))
	return c, nil
}

// statusWithDisk fills the locally known fields of a status built from storage.
func statusWithDisk(status *models.Status, cfg *config.Config) *models.Status {
	status.DatabasePath = cfg.Storage.DatabasePath
	if size, err := storage.DatabaseSizeBytes(cfg.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = &size
	}
	return status
}

func exitOnFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func printUsage() {
	fmt.Println(`kurasu - Course and professor search service

Usage:
  kurasu server [flags]                     Start the HTTP server
  kurasu suggest [flags] <query>            Suggest courses and professors for a partial query
  kurasu details [flags] --course <key>     Show grade distributions for a course ("cse 1310")
  kurasu details [flags] --professor <name> Show grade distributions for a professor
  kurasu rating [flags] <professor name>    Show a professor's rating
  kurasu import [flags] <file-or-dir>...    Import grade CSV/XLSX files or rating JSON files
  kurasu status [flags]                     Show corpus/storage/analytics status
  kurasu version                            Show version
  kurasu help                               Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kurasu/config.yaml)
  --debug            Enable debug logging

Client Flags (suggest, details, rating, status):
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text, compact, or json (default: text)

Details Flags:
  --sort string       Column to sort by (default: course_number)
  --direction string  asc or desc (default: asc)

Import Flags:
  --config string    Config file path
  --watch            Keep watching the given directories for new files

Examples:
  kurasu server
  kurasu suggest cse13
  kurasu suggest --output json "smith, j"
  kurasu details --course "CSE 1310" --sort year --direction desc
  kurasu details --professor "Smith, John"
  kurasu rating "Smith, John"
  kurasu import ./data/fall2023.csv ./data/professors.json
  kurasu import --watch ./drop
  kurasu status --output json`)
}
