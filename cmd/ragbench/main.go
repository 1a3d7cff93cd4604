// Package main is the ragbench CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/artifact"
	"github.com/hyperjump/ragbench/internal/config"
	"github.com/hyperjump/ragbench/internal/eval"
	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/internal/report"
	"github.com/hyperjump/ragbench/internal/storage"
	"github.com/hyperjump/ragbench/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ragbench/config.yaml"

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
	case "build":
		runBuild()
	case "ask":
		runAsk()
	case "eval":
		runEval()
	case "report":
		runReport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ragbench version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and creates the logger shared by every command.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (batch progress)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to build index", zap.Error(err))
	}
	defer components.Close()

	writeMetrics(cfg, components, logger)
	state := "built"
	if components.CacheHit {
		state = "loaded from cache"
	}
	fmt.Printf("Index %s: %d passages from %d examples (generation %s)\n",
		state, components.Bundle.Index.Size(), len(components.Examples), components.Bundle.Manifest.Generation)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional arguments
// to the front so that flag.Parse() sees them. Go's flag package stops at the first non-flag
// argument, so "ragbench ask \"question\" -k 5" would otherwise leave -k unparsed.
func argsReorder(args []string) []string {
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

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: ragbench ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	k := fs.Int("k", 0, "number of passages to retrieve (default from config eval.top_k)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}
	format, err := report.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	topK := *k
	if topK == 0 {
		topK = cfg.Eval.TopK
	}
	answer, res, err := components.Pipeline.Answer(ctx, question, topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := report.WriteAnswer(os.Stdout, answer, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runEval() {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	limit := fs.Int("limit", -1, "evaluate only the first N examples (default from config eval.limit, 0 = all)")
	k := fs.Int("k", 0, "number of passages to retrieve (default from config eval.top_k)")
	workers := fs.Int("workers", 0, "examples evaluated concurrently (default from config eval.workers)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	xlsxPath := fs.String("xlsx", "", "also export the run to this Excel file")
	_ = fs.Parse(os.Args[2:])

	format, err := report.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *limit >= 0 {
		cfg.Eval.Limit = *limit
	}
	if *k > 0 {
		cfg.Eval.TopK = *k
	}
	if *workers > 0 {
		cfg.Eval.Workers = *workers
	}

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	results, err := storage.NewSQLiteStore(cfg.Storage.ResultsDBPath)
	if err != nil {
		logger.Fatal("Failed to open results database", zap.Error(err))
	}
	defer results.Close()

	examples := components.Examples
	if cfg.Eval.Limit > 0 && cfg.Eval.Limit < len(examples) {
		examples = examples[:cfg.Eval.Limit]
	}

	runner := eval.NewRunner(components.Pipeline,
		eval.WithWorkers(cfg.Eval.Workers),
		eval.WithSink(results),
		eval.WithMetrics(components.Metrics),
		eval.WithLogger(logger),
		eval.WithRunLabels(components.Dataset.Name(), components.Bundle.Manifest.Fingerprint),
		eval.WithProgress(func(done, total int) {
			if done%100 == 0 || done == total {
				logger.Info("evaluation progress", zap.Int("done", done), zap.Int("total", total))
			}
		}))
	result, err := runner.Evaluate(ctx, examples)
	writeMetrics(cfg, components, logger)
	if err != nil && !(errors.Is(err, models.ErrEmptyInput) && result != nil) {
		logger.Fatal("Evaluation failed", zap.Error(err))
	}

	if err := report.WriteReport(os.Stdout, &result.Run, result.Outcomes, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *xlsxPath != "" {
		if err := report.ExportXLSX(*xlsxPath, &result.Run, result.Outcomes); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
	}
	if result.Run.Report.Evaluated == 0 {
		os.Exit(1)
	}
}

func runReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	xlsxPath := fs.String("xlsx", "", "export the run to this Excel file")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ragbench report [flags] <run-id>")
		os.Exit(1)
	}
	format, err := report.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	results, err := storage.NewSQLiteStore(cfg.Storage.ResultsDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open results database: %v\n", err)
		os.Exit(1)
	}
	defer results.Close()

	ctx := context.Background()
	run, err := results.GetRun(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
		os.Exit(1)
	}
	outcomes, err := results.ListOutcomes(ctx, run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
		os.Exit(1)
	}
	if err := report.WriteReport(os.Stdout, run, outcomes, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *xlsxPath != "" {
		if err := report.ExportXLSX(*xlsxPath, run, outcomes); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	runs := fs.Int("runs", 5, "number of recent runs to list")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	store := artifact.NewStore(cfg.Storage.CacheDir, artifact.WithStoreLogger(logger))
	ctx, stop := signalContext()
	defer stop()
	manifest, err := store.Manifest(ctx)
	switch {
	case errors.Is(err, artifact.ErrCacheMiss):
		fmt.Println("index:              not built   # run ragbench build")
	case err != nil:
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	default:
		fmt.Printf("generation:         %s\n", manifest.Generation)
		fmt.Printf("fingerprint:        %s\n", manifest.Fingerprint)
		fmt.Printf("embedding_model:    %s\n", manifest.Model)
		fmt.Printf("passages:           %d\n", manifest.Passages)
		fmt.Printf("dimensions:         %d\n", manifest.Dimensions)
		fmt.Printf("index_type:         %s\n", manifest.IndexType)
		fmt.Printf("built_at:           %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	paths := append([]string{cfg.Storage.CacheDir}, storage.DatabaseFiles(cfg.Storage.ResultsDBPath)...)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		fmt.Printf("disk_usage_bytes:   %d   # artifact cache + results database\n", diskBytes)
	}

	if _, err := os.Stat(cfg.Storage.ResultsDBPath); err != nil {
		return
	}
	results, err := storage.NewSQLiteStore(cfg.Storage.ResultsDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open results database: %v\n", err)
		os.Exit(1)
	}
	defer results.Close()
	count, err := results.CountRuns(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count runs failed: %v\n", err)
		os.Exit(1)
	}
	recent, err := results.ListRuns(ctx, *runs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List runs failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n# runs (%d total)\n", count)
	report.WriteRuns(os.Stdout, recent)
}

// writeMetrics writes the Prometheus textfile when storage.metrics_path is set.
func writeMetrics(cfg *config.Config, c *Components, logger *zap.Logger) {
	if cfg.Storage.MetricsPath == "" {
		return
	}
	if err := c.Metrics.WriteTextfile(cfg.Storage.MetricsPath); err != nil {
		logger.Warn("metrics textfile write failed", zap.String("path", cfg.Storage.MetricsPath), zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`ragbench - Retrieval-augmented QA evaluation over HotpotQA

Usage:
  ragbench build [flags]              Build (or load) the embedding matrix and vector index
  ragbench ask [flags] <question>     Answer one question from the indexed corpus
  ragbench eval [flags]               Evaluate every example and record the run
  ragbench report [flags] <run-id>    Show a recorded run
  ragbench status [flags]             Show index, disk usage and recent runs
  ragbench version                    Show version
  ragbench help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/ragbench/config.yaml, or ./config.yaml if present)
  --debug            Enable debug logging

Ask Flags:
  --k int            Passages to retrieve (default from config eval.top_k)
  --output string    Output format: text or json (default: text)

Eval Flags:
  --limit int        Evaluate only the first N examples (0 = all)
  --k int            Passages to retrieve per question
  --workers int      Examples evaluated concurrently
  --output string    Output format: text or json (default: text)
  --xlsx string      Also export the run to an Excel workbook

Report Flags:
  --output string    Output format: text or json (default: text)
  --xlsx string      Export the run to an Excel workbook

Status Flags:
  --runs int         Number of recent runs to list (default: 5)

Examples:
  ragbench build
  ragbench ask "Were Scott Derrickson and Ed Wood of the same nationality?"
  ragbench ask -k 5 --output json "Where is the capital of France?"
  ragbench eval --limit 100 --workers 4 --xlsx run.xlsx
  ragbench report 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed
  ragbench status`)
}
