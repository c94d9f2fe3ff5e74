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
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rftesting "github.com/kraklabs/repofacts/internal/testing"
	"github.com/kraklabs/repofacts/pkg/describe"
	"github.com/kraklabs/repofacts/pkg/ladom"
	"github.com/kraklabs/repofacts/pkg/llm"
)

func sampleRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	rftesting.WriteTree(t, root, map[string]string{
		".gitignore":                "*.log\n",
		"README.md":                 "# demo\n",
		"app/main.py":               "def main():\n    \"\"\"Entry point.\"\"\"\n    pass\n",
		"app/util.py":               "def helper(x):\n    return x\n",
		"web/index.js":              "function start() {\n  return 1;\n}\n",
		"build.log":                 "noise\n",
		"node_modules/lib/index.js": "function vendored() {}\n",
	})
	return root
}

func filePaths(doc *ladom.Document) []string {
	out := make([]string, len(doc.Files))
	for i, f := range doc.Files {
		out[i] = f.Path
	}
	return out
}

func TestNewPipeline(t *testing.T) {
	_, err := NewPipeline(Config{}, rftesting.DiscardLogger())
	assert.Error(t, err)

	p, err := NewPipeline(Config{RootPath: "."}, rftesting.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultParserMode, p.config.ParserMode)
	assert.Equal(t, DefaultWorkers, p.config.Workers)
	assert.NotNil(t, p.Registry().ForPath("x.py"))
}

func TestPipeline_Run(t *testing.T) {
	root := sampleRepo(t)
	p, err := NewPipeline(Config{RootPath: root, ProjectName: "demo"}, rftesting.DiscardLogger())
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Canceled)
	assert.Equal(t, "demo", res.Document.ProjectName)
	assert.Equal(t, []string{"app/main.py", "app/util.py", "web/index.js"}, filePaths(res.Document))
	assert.Equal(t, 5, res.FilesLoaded)
	assert.Equal(t, 3, res.FilesAnalyzed)
	assert.Equal(t, 3, res.FunctionsExtracted)
	assert.Zero(t, res.FilesFailed)
	assert.Zero(t, res.FilesDropped)
	assert.Equal(t, map[string]int{ladom.ExtractionAST: 3}, res.Extraction)
	assert.Equal(t, 2, res.SkipReasons["unsupported"])
	assert.Equal(t, 1, res.SkipReasons["gitignored"])
	assert.Equal(t, 1, res.SkipReasons["excluded_dir"])

	// Normalized: every optional field is filled.
	helper := res.Document.Files[1].Functions[0]
	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, ladom.DefaultDescription, helper.Description)
	assert.Equal(t, ladom.DefaultParamType, helper.Parameters[0].Type)
	assert.Equal(t, "Entry point.", res.Document.Files[0].Functions[0].Description)
}

func TestPipeline_ProjectNameFromRoot(t *testing.T) {
	root := sampleRepo(t)
	p, err := NewPipeline(Config{RootPath: root, ParserMode: ParserModeSimplified}, rftesting.DiscardLogger())
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(res.RootPath), res.Document.ProjectName)
	assert.Equal(t, map[string]int{ladom.ExtractionPattern: 3}, res.Extraction)
}

func TestPipeline_ParallelWithProgress(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 25; i++ {
		files[fmt.Sprintf("pkg/mod%02d.py", i)] = fmt.Sprintf("def f%d(a, b=1):\n    return a + b\n", i)
	}
	rftesting.WriteTree(t, root, files)

	var calls, last atomic.Int64
	p, err := NewPipeline(Config{
		RootPath: root,
		Workers:  4,
		Progress: func(done, total int, path string) {
			calls.Add(1)
			last.Store(int64(done))
			assert.Equal(t, 25, total)
		},
	}, rftesting.DiscardLogger())
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, res.FilesAnalyzed)
	assert.Equal(t, 25, res.FunctionsExtracted)
	assert.Equal(t, "pkg/mod00.py", res.Document.Files[0].Path)
	assert.Equal(t, "pkg/mod24.py", res.Document.Files[24].Path)
	assert.Equal(t, int64(25), calls.Load())
	assert.Equal(t, int64(25), last.Load())
}

func TestPipeline_Describer(t *testing.T) {
	root := sampleRepo(t)

	var prompts atomic.Int64
	provider := &llm.MockProvider{GenerateFunc: func(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
		prompts.Add(1)
		assert.NotEmpty(t, req.System)
		return &llm.GenerateResponse{Text: "```\nComputes things.\n```", Done: true}, nil
	}}
	d, err := describe.New(describe.NewProviderGenerator(provider, "test-model"), describe.Options{}, rftesting.DiscardLogger())
	require.NoError(t, err)
	defer d.Close()

	p, err := NewPipeline(Config{RootPath: root, Describer: d}, rftesting.DiscardLogger())
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.SymbolsDescribed)
	assert.Equal(t, int64(2), prompts.Load())

	assert.Equal(t, "Entry point.", res.Document.Files[0].Functions[0].Description)
	assert.Equal(t, "Computes things.", res.Document.Files[1].Functions[0].Description)
	assert.Equal(t, "Computes things.", res.Document.Files[2].Functions[0].Description)
}

func TestPipeline_DescriberFallback(t *testing.T) {
	root := sampleRepo(t)
	provider := &llm.MockProvider{GenerateFunc: func(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
		return nil, errors.New("backend down")
	}}
	d, err := describe.New(describe.NewProviderGenerator(provider, "test-model"), describe.Options{}, rftesting.DiscardLogger())
	require.NoError(t, err)
	defer d.Close()

	p, err := NewPipeline(Config{RootPath: root, Describer: d}, rftesting.DiscardLogger())
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, describe.Fallback, res.Document.Files[1].Functions[0].Description)
}

func TestPipeline_Canceled(t *testing.T) {
	root := sampleRepo(t)
	p, err := NewPipeline(Config{RootPath: root}, rftesting.DiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Canceled)
	assert.Zero(t, res.FilesAnalyzed)
	assert.NotNil(t, res.Document.Files)
}

func TestPipeline_MissingRoot(t *testing.T) {
	p, err := NewPipeline(Config{RootPath: "/definitely/not/here"}, rftesting.DiscardLogger())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	assert.ErrorContains(t, err, "load repository")
}
