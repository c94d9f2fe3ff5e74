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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/repofacts/pkg/describe"
	"github.com/kraklabs/repofacts/pkg/ladom"
)

// DefaultWorkers is the analysis concurrency used when Config.Workers is 0.
const DefaultWorkers = 4

// ProgressFunc is called once per finished file. Calls are serialized.
type ProgressFunc func(done, total int, path string)

// Config configures a Pipeline.
type Config struct {
	// RootPath is the local repository to analyze.
	RootPath string

	// ProjectName names the document. Empty uses the root directory name.
	ProjectName string

	ParserMode ParserMode
	Workers    int
	Load       LoadOptions

	// Describer, when set, fills undocumented symbols.
	Describer *describe.Describer

	Progress ProgressFunc
}

// Pipeline loads a repository and converts every supported file to LADOM.
type Pipeline struct {
	config     Config
	logger     *slog.Logger
	repoLoader *RepoLoader
	registry   *Registry
}

// Result summarizes an analysis run.
type Result struct {
	// RunID is the unique identifier for this run (UUID).
	RunID string

	// RootPath is the absolute repository root.
	RootPath string

	// Document is validated and normalized.
	Document *ladom.Document

	// FilesLoaded counts files returned by the loader, supported or not.
	FilesLoaded int

	// FilesAnalyzed counts files present in Document.
	FilesAnalyzed int

	// FilesFailed counts unreadable files.
	FilesFailed int

	// FilesDropped counts files where no strategy recovered anything.
	FilesDropped int

	// FilesPruned counts files removed by validation.
	FilesPruned int

	FunctionsExtracted int
	MethodsExtracted   int
	ClassesExtracted   int
	SymbolsDescribed   int

	// Extraction maps strategy ("ast", "pattern") to file count.
	Extraction map[string]int

	// SkipReasons maps loader and analysis skip reasons to counts.
	SkipReasons map[string]int

	// Canceled is set when the context ended before every file was analyzed.
	Canceled bool

	LoadDuration    time.Duration
	AnalyzeDuration time.Duration
	TotalDuration   time.Duration
}

// NewPipeline creates a pipeline with the built-in analyzers.
func NewPipeline(config Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RootPath == "" {
		return nil, errors.New("root path is required")
	}
	if config.ParserMode == "" {
		config.ParserMode = DefaultParserMode
	}
	if config.Workers == 0 {
		config.Workers = DefaultWorkers
	}
	return &Pipeline{
		config:     config,
		logger:     logger,
		repoLoader: NewRepoLoader(logger),
		registry:   NewRegistry(config.ParserMode, logger),
	}, nil
}

// Registry returns the analyzers used by the pipeline.
func (p *Pipeline) Registry() *Registry { return p.registry }

// fileOutcome is the per-file result of the analysis step.
type fileOutcome struct {
	file      *ladom.File
	failed    bool
	dropped   bool
	described int
}

// Run executes the full pipeline. When ctx is canceled, files already
// analyzed are still assembled and the partial result is returned together
// with the context error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	p.logger.Info("pipeline.start", "root", p.config.RootPath, "run_id", runID, "mode", p.config.ParserMode)

	// Step 1: Load repository
	loadResult, err := p.repoLoader.LoadRepository(p.config.RootPath, p.config.Load)
	if err != nil {
		return nil, fmt.Errorf("load repository: %w", err)
	}
	loadDuration := time.Since(startTime)

	skipReasons := make(map[string]int, len(loadResult.SkipReasons)+1)
	for k, v := range loadResult.SkipReasons {
		skipReasons[k] = v
	}
	var files []FileInfo
	for _, fi := range loadResult.Files {
		if p.registry.ForPath(fi.Path) == nil {
			skipReasons["unsupported"]++
			continue
		}
		files = append(files, fi)
	}

	// Step 2: Analyze
	p.logger.Info("pipeline.step.analyze", "run_id", runID, "file_count", len(files), "workers", p.config.Workers)
	analyzeStart := time.Now()
	outcomes := p.analyzeFiles(ctx, files)
	analyzeDuration := time.Since(analyzeStart)

	// Step 3: Assemble
	name := p.config.ProjectName
	if name == "" {
		name = filepath.Base(loadResult.RootPath)
	}
	doc := &ladom.Document{ProjectName: name, Files: []ladom.File{}}
	result := &Result{
		RunID:       runID,
		RootPath:    loadResult.RootPath,
		FilesLoaded: loadResult.FileCount,
		Extraction:  map[string]int{},
		SkipReasons: skipReasons,
	}
	for _, o := range outcomes {
		switch {
		case o == nil:
		case o.failed:
			result.FilesFailed++
		case o.dropped:
			result.FilesDropped++
		default:
			doc.Files = append(doc.Files, *o.file)
			result.Extraction[o.file.Extraction]++
			result.SymbolsDescribed += o.described
		}
	}
	sort.Slice(doc.Files, func(i, j int) bool { return doc.Files[i].Path < doc.Files[j].Path })

	// Step 4: Validate and normalize
	before := len(doc.Files)
	if !ladom.Validate(doc, p.logger) {
		return nil, fmt.Errorf("assemble document: %w", ladom.ErrInvalidDocument)
	}
	result.FilesPruned = before - len(doc.Files)
	result.Document = ladom.Normalize(doc)
	result.FilesAnalyzed = len(result.Document.Files)
	result.FunctionsExtracted, result.MethodsExtracted, result.ClassesExtracted = result.Document.Counts()

	result.Canceled = ctx.Err() != nil
	result.LoadDuration = loadDuration
	result.AnalyzeDuration = analyzeDuration
	result.TotalDuration = time.Since(startTime)
	recordRun(result.TotalDuration)

	p.logger.Info("pipeline.complete",
		"run_id", runID,
		"files", result.FilesAnalyzed,
		"functions", result.FunctionsExtracted,
		"methods", result.MethodsExtracted,
		"classes", result.ClassesExtracted,
		"failed", result.FilesFailed,
		"dropped", result.FilesDropped,
		"described", result.SymbolsDescribed,
		"canceled", result.Canceled,
		"total_duration_ms", result.TotalDuration.Milliseconds(),
	)

	if result.Canceled {
		return result, ctx.Err()
	}
	return result, nil
}

// analyzeFiles runs the analyzers on a bounded worker pool. Slots of files
// never scheduled stay nil.
func (p *Pipeline) analyzeFiles(ctx context.Context, files []FileInfo) []*fileOutcome {
	outcomes := make([]*fileOutcome, len(files))
	if len(files) == 0 {
		return outcomes
	}

	var mu sync.Mutex
	done := 0
	report := func(path string) {
		if p.config.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		p.config.Progress(done, len(files), path)
	}

	// For small file sets, analyze sequentially
	if len(files) < 10 || p.config.Workers <= 1 {
		for i, fi := range files {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = p.analyzeOne(ctx, fi)
			report(fi.Path)
		}
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i, fi := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcomes[i] = p.analyzeOne(gctx, fi)
			report(fi.Path)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (p *Pipeline) analyzeOne(ctx context.Context, fi FileInfo) *fileOutcome {
	analyzer := p.registry.ForPath(fi.Path)
	start := time.Now()
	f, err := analyzer.Analyze(ctx, fi)
	if err != nil {
		recordFailed()
		p.logger.Warn("pipeline.analyze.error", "path", fi.Path, "err", err)
		return &fileOutcome{failed: true}
	}
	if f == nil {
		recordDropped()
		return &fileOutcome{dropped: true}
	}
	recordAnalyzed(f.Language, f.Extraction, time.Since(start))

	out := &fileOutcome{file: f}
	if p.config.Describer != nil {
		out.described = p.config.Describer.DescribeFile(ctx, analyzer, f)
		if out.described > 0 {
			recordDescribed(out.described)
		}
	}
	return out
}
