// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repofacts/internal/config"
	"github.com/kraklabs/repofacts/internal/errors"
	"github.com/kraklabs/repofacts/internal/output"
	"github.com/kraklabs/repofacts/internal/ui"
	"github.com/kraklabs/repofacts/pkg/describe"
	"github.com/kraklabs/repofacts/pkg/ingestion"
	"github.com/kraklabs/repofacts/pkg/llm"
)

// runOptions holds the flags shared by analyze and facts.
type runOptions struct {
	root        string
	format      string
	outputPath  string
	parserMode  string
	workers     int
	describe    bool
	metricsAddr string
	debug       bool
	logFormat   string

	flags *flag.FlagSet
}

func newRunFlagSet(name, summary string, errOut io.Writer) (*flag.FlagSet, *runOptions) {
	opts := &runOptions{}
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(errOut)
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: json or yaml (default from config or --output extension)")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "Write to file instead of stdout")
	flags.StringVar(&opts.parserMode, "parser-mode", "", "Parser mode: auto, treesitter or simplified")
	flags.IntVar(&opts.workers, "workers", 0, "Number of analysis workers")
	flags.BoolVar(&opts.describe, "describe", false, "Describe undocumented symbols with the configured LLM")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.Usage = func() {
		fmt.Fprintf(errOut, "Usage: repofacts %s [path] [options]\n\n%s\n\nOptions:\n", name, summary)
		flags.PrintDefaults()
	}
	opts.flags = flags
	return flags, opts
}

// parseRunFlags parses args and resolves the repository root.
func parseRunFlags(flags *flag.FlagSet, opts *runOptions, args []string) error {
	if err := flags.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return errors.NewInputError("Invalid arguments", err.Error(), "Run with --help to see the available options")
	}
	switch flags.NArg() {
	case 0:
		opts.root = "."
	case 1:
		opts.root = flags.Arg(0)
	default:
		return errors.NewInputError("Too many arguments", fmt.Sprintf("expected one path, got %d", flags.NArg()), "")
	}
	if opts.logFormat != "text" && opts.logFormat != "json" {
		return errors.NewInputError("Invalid log format", fmt.Sprintf("%q is not text or json", opts.logFormat), "Use --log-format text or --log-format json")
	}
	return nil
}

// errHelp signals that usage was printed and the command should exit cleanly.
var errHelp = stderrors.New("help requested")

// newLogger builds the process logger. Logs go to stderr so documents on
// stdout stay machine readable. --quiet keeps warnings only.
func newLogger(w io.Writer, opts *runOptions, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	hopts := &slog.HandlerOptions{Level: level}
	if opts.logFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// loadRunConfig resolves configuration and applies command flags over it.
func loadRunConfig(opts *runOptions, globals GlobalFlags) (*config.Config, output.Format, error) {
	cfg, err := config.Load(opts.root, globals.ConfigPath)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, "", errors.NewNotFoundError("Configuration file not found", err.Error(), "Check --config or run: repofacts init")
		}
		return nil, "", errors.NewConfigError("Cannot load configuration", err.Error(), "Fix .repofacts/project.yaml or regenerate it with: repofacts init --force", err)
	}

	if opts.flags.Changed("parser-mode") {
		cfg.Analysis.ParserMode = opts.parserMode
	}
	if opts.flags.Changed("workers") {
		if opts.workers < 1 {
			return nil, "", errors.NewInputError("Invalid worker count", fmt.Sprintf("--workers must be at least 1, got %d", opts.workers), "")
		}
		cfg.Analysis.Workers = opts.workers
	}
	if opts.describe {
		cfg.Describe.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", errors.NewInputError("Invalid option", err.Error(), "Use --parser-mode auto, treesitter or simplified")
	}

	var format output.Format
	switch {
	case opts.format != "":
		format, err = output.ParseFormat(opts.format)
	case opts.outputPath != "":
		format = output.FormatForPath(opts.outputPath)
	default:
		format, err = output.ParseFormat(cfg.Output.Format)
	}
	if err != nil {
		return nil, "", errors.NewInputError("Invalid output format", err.Error(), "Use --format json or --format yaml")
	}
	return cfg, format, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// startMetrics serves /metrics until the returned stop function is called.
func startMetrics(addr string, logger *slog.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// newDescriber builds the symbol describer from the LLM configuration.
func newDescriber(cfg *config.Config, logger *slog.Logger) (*describe.Describer, error) {
	var (
		provider llm.Provider
		err      error
	)
	if cfg.HasLLM() {
		provider, err = llm.NewProvider(cfg.LLM)
	} else {
		provider, err = llm.DefaultProvider()
	}
	if stderrors.Is(err, llm.ErrNotConfigured) {
		return nil, errors.NewConfigError(
			"No LLM provider configured",
			"--describe needs a provider to generate descriptions",
			"Set OLLAMA_HOST or OPENAI_API_KEY, or configure llm.type in .repofacts/project.yaml",
			err,
		)
	}
	if err != nil {
		return nil, errors.NewConfigError("Invalid LLM configuration", err.Error(), "Use llm.type ollama or openai", err)
	}

	d, err := describe.New(describe.NewProviderGenerator(provider, cfg.LLM.DefaultModel), describe.Options{
		Temperature:       cfg.Describe.Temperature,
		CacheSize:         cfg.Describe.CacheSize,
		RequestsPerMinute: cfg.Describe.RequestsPerMinute,
	}, logger)
	if err != nil {
		return nil, errors.NewInternalError("Cannot create describer", err.Error(), "", err)
	}
	logger.Info("describe.enabled", "provider", provider.Name(), "model", cfg.LLM.DefaultModel)
	return d, nil
}

// analyzeRepository runs the pipeline with progress, metrics and signal
// handling wired in. A canceled run returns the partial result and no error.
func analyzeRepository(opts *runOptions, globals GlobalFlags, cfg *config.Config, s streams) (*ingestion.Result, error) {
	logger := newLogger(s.errOut, opts, globals.Quiet)
	slog.SetDefault(logger)

	stopMetrics := startMetrics(opts.metricsAddr, logger)
	defer stopMetrics()

	ctx, cancel := signalContext(logger)
	defer cancel()

	mode, _ := ingestion.ParseParserMode(cfg.Analysis.ParserMode)
	pcfg := ingestion.Config{
		RootPath:    opts.root,
		ProjectName: cfg.ProjectName,
		ParserMode:  mode,
		Workers:     cfg.Analysis.Workers,
		Load:        cfg.LoadOptions(),
	}

	if cfg.Describe.Enabled {
		d, err := newDescriber(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		pcfg.Describer = d
	}

	bar := newAnalyzeProgress(NewProgressConfig(globals, s.errOut))
	pcfg.Progress = bar.Update

	pipeline, err := ingestion.NewPipeline(pcfg, logger)
	if err != nil {
		return nil, errors.NewInternalError("Cannot create pipeline", err.Error(), "", err)
	}

	result, err := pipeline.Run(ctx)
	bar.Finish()
	switch {
	case err == nil:
	case result != nil && stderrors.Is(err, context.Canceled):
		ui.Warningf("Interrupted: %d of %d supported files analyzed", result.FilesAnalyzed, result.FilesLoaded)
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.NewNotFoundError("Repository not found", err.Error(), "Check the path argument")
	case stderrors.Is(err, fs.ErrPermission):
		return nil, errors.NewPermissionError("Cannot read repository", err.Error(), "Check file permissions", err)
	default:
		return nil, errors.NewAnalysisError("Cannot analyze repository", err.Error(), "Run with --debug for details", err)
	}
	return result, nil
}

// writeDocument encodes data to --output or stdout.
func writeDocument(opts *runOptions, format output.Format, data any, s streams) error {
	if opts.outputPath == "" {
		if err := output.Write(s.out, format, data); err != nil {
			return errors.NewInternalError("Cannot encode output", err.Error(), "", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.outputPath), 0o750); err != nil {
		return errors.NewPermissionError("Cannot create output directory", err.Error(), "", err)
	}
	f, err := os.Create(opts.outputPath) //nolint:gosec // G304: user-selected output file
	if err != nil {
		return errors.NewPermissionError("Cannot create output file", err.Error(), "Check --output", err)
	}
	if err := output.Write(f, format, data); err != nil {
		_ = f.Close()
		return errors.NewInternalError("Cannot encode output", err.Error(), "", err)
	}
	if err := f.Close(); err != nil {
		return errors.NewPermissionError("Cannot write output file", err.Error(), "", err)
	}
	ui.Successf("Wrote %s", opts.outputPath)
	return nil
}

// runAnalyze executes the 'analyze' command, printing the normalized LADOM
// document of a repository.
//
// Examples:
//
//	repofacts analyze
//	repofacts analyze ./service --format yaml
//	repofacts analyze --parser-mode simplified --workers 8 -o ladom.json
func runAnalyze(args []string, globals GlobalFlags, s streams) error {
	flags, opts := newRunFlagSet("analyze", "Analyzes a repository and prints its normalized LADOM document.", s.errOut)
	if err := parseRunFlags(flags, opts, args); err != nil {
		return helpOK(err)
	}
	cfg, format, err := loadRunConfig(opts, globals)
	if err != nil {
		return err
	}

	result, err := analyzeRepository(opts, globals, cfg, s)
	if err != nil {
		return err
	}
	printRunSummary(result)
	return writeDocument(opts, format, result.Document, s)
}

func printRunSummary(r *ingestion.Result) {
	ui.Successf("Analyzed %d files (%d functions, %d methods, %d classes) in %s",
		r.FilesAnalyzed, r.FunctionsExtracted, r.MethodsExtracted, r.ClassesExtracted,
		r.TotalDuration.Round(time.Millisecond))
	if n := r.FilesFailed + r.FilesDropped; n > 0 {
		ui.Warningf("%d files could not be analyzed", n)
	}
}

// helpOK maps errHelp to a clean exit.
func helpOK(err error) error {
	if err == errHelp {
		return nil
	}
	return err
}
