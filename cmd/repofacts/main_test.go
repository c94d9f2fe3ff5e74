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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repofacts/internal/config"
	"github.com/kraklabs/repofacts/internal/errors"
	rftesting "github.com/kraklabs/repofacts/internal/testing"
	"github.com/kraklabs/repofacts/internal/ui"
	"github.com/kraklabs/repofacts/pkg/facts"
	"github.com/kraklabs/repofacts/pkg/ladom"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

// runCLI runs the CLI in-process with captured streams.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	originalOut, originalNoColor := ui.Out, color.NoColor
	t.Cleanup(func() {
		ui.Out = originalOut
		color.NoColor = originalNoColor
	})

	var out, errOut bytes.Buffer
	code := run(append([]string{"--no-color"}, args...), streams{
		in:     strings.NewReader(stdin),
		out:    &out,
		errOut: &errOut,
	})
	return cliResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

// isolateEnv clears the variables that change configuration resolution.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvParserMode, config.EnvWorkers, config.EnvLLMProvider,
		config.EnvOllamaHost, config.EnvOllamaModel, config.EnvOpenAIKey,
		config.EnvOpenAIBaseURL, config.EnvOpenAIModel, "OLLAMA_BASE_URL",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestRun_Version(t *testing.T) {
	res := runCLI(t, "", "--version")
	assert.Equal(t, errors.ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "repofacts version dev")
}

func TestRun_Usage(t *testing.T) {
	res := runCLI(t, "")
	assert.Equal(t, errors.ExitInput, res.code)
	assert.Contains(t, res.stderr, "Commands:")

	res = runCLI(t, "", "index")
	assert.Equal(t, errors.ExitInput, res.code)
	assert.Contains(t, res.stderr, "Unknown command: index")
}

func TestAnalyze_JSON(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.FastAPIRepo)

	res := runCLI(t, "", "--quiet", "analyze", root)
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)

	doc, report, err := ladom.Decode([]byte(res.stdout))
	require.NoError(t, err)
	assert.True(t, report.Valid())
	assert.Equal(t, filepath.Base(root), doc.ProjectName)

	var paths []string
	for _, f := range doc.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"app/models.py", "main.py", "tests/test_orders.py"}, paths)
}

func TestAnalyze_YAMLToFile(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.ExpressRepo)
	out := filepath.Join(t.TempDir(), "out", "ladom.yaml")

	res := runCLI(t, "", "analyze", root, "--parser-mode", "simplified", "-o", out)
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc, _, err := ladom.DecodeYAML(data)
	require.NoError(t, err)
	require.Len(t, doc.Files, 2)
	for _, f := range doc.Files {
		assert.Equal(t, "pattern", f.Extraction)
	}
}

func TestAnalyze_ProjectNameFromConfig(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.FastAPIRepo)
	rftesting.WriteTree(t, root, map[string]string{
		".repofacts/project.yaml": "project_name: orders\noutput:\n  format: yaml\n",
	})

	res := runCLI(t, "", "--quiet", "analyze", root)
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "project_name: orders\n"))
}

func TestAnalyze_Errors(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.FastAPIRepo)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing root", []string{"analyze", filepath.Join(root, "nope")}, errors.ExitNotFound},
		{"bad parser mode", []string{"analyze", root, "--parser-mode", "regex"}, errors.ExitInput},
		{"bad format", []string{"analyze", root, "--format", "xml"}, errors.ExitInput},
		{"bad workers", []string{"analyze", root, "--workers", "0"}, errors.ExitInput},
		{"two paths", []string{"analyze", root, root}, errors.ExitInput},
		{"unknown flag", []string{"analyze", "--nope"}, errors.ExitInput},
		{"missing explicit config", []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "analyze", root}, errors.ExitNotFound},
		{"describe without provider", []string{"analyze", root, "--describe"}, errors.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			assert.Equal(t, tt.want, res.code, res.stderr)
			assert.Contains(t, res.stderr, "Error: ")
		})
	}
}

func TestAnalyze_EnvConfigError(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.FastAPIRepo)
	t.Setenv(config.EnvWorkers, "many")

	res := runCLI(t, "", "--json", "analyze", root)
	assert.Equal(t, errors.ExitConfig, res.code)

	var got errors.ErrorJSON
	require.NoError(t, json.Unmarshal([]byte(res.stderr), &got))
	assert.Equal(t, "Cannot load configuration", got.Error)
}

func TestAnalyze_Help(t *testing.T) {
	res := runCLI(t, "", "analyze", "--help")
	assert.Equal(t, errors.ExitSuccess, res.code)
	assert.Contains(t, res.stderr, "Usage: repofacts analyze")
}

func TestFacts_FastAPI(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.FastAPIRepo)

	res := runCLI(t, "", "--quiet", "facts", root)
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)

	var f facts.RepoFacts
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &f))

	assert.Equal(t, facts.ProjectWebAPI, f.Project.Type)
	assert.Equal(t, "0.3.0", f.Project.Version)
	require.NotEmpty(t, f.Languages)
	assert.Equal(t, "Python", f.Languages[0].Name)
	assert.True(t, f.Languages[0].Primary)
	require.NotNil(t, f.Interface.WebAPI)
	assert.Equal(t, "FastAPI", f.Interface.WebAPI.Framework)
	assert.Equal(t, "pytest", f.Testing.Framework)
	assert.Contains(t, f.Runtime.Ports, 8000)
	assert.Equal(t, "development", f.Runtime.Environment)
	assert.Equal(t, 3, f.TotalFiles)

	var runtime []string
	for _, d := range f.Dependencies[facts.DepRuntime] {
		runtime = append(runtime, d.Name)
	}
	assert.Contains(t, runtime, "fastapi")
	for _, bucket := range facts.DependencyTypes {
		assert.Contains(t, f.Dependencies, bucket)
	}
}

func TestFacts_Summary(t *testing.T) {
	isolateEnv(t)
	root := rftesting.TempRepo(t, rftesting.ExpressRepo)

	res := runCLI(t, "", "--quiet", "facts", root, "--summary")
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Type: web_api\n")
	assert.Contains(t, res.stdout, "Languages:\n")
	assert.Contains(t, res.stdout, "Install: npm install\n")
	assert.Contains(t, res.stdout, "Run: npm run start\n")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "ok.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"project_name": "demo", "files": [{"path": "a.py", "language": "python", "functions": [{"name": "f"}]}]}`), 0o600))
	fatal := filepath.Join(dir, "fatal.json")
	require.NoError(t, os.WriteFile(fatal, []byte(`{"files": []}`), 0o600))
	recoverable := filepath.Join(dir, "warn.yaml")
	require.NoError(t, os.WriteFile(recoverable, []byte("project_name: demo\nfiles:\n  - path: a.py\n    functions:\n      - name: \"\"\n"), 0o600))
	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`[1, 2]`), 0o600))

	tests := []struct {
		name       string
		args       []string
		stdin      string
		want       int
		wantStdout string
	}{
		{name: "valid", args: []string{valid}, want: errors.ExitSuccess, wantStdout: "is valid: 1 files, 0 issues"},
		{name: "fatal", args: []string{fatal}, want: errors.ExitInput, wantStdout: "error: "},
		{name: "recoverable", args: []string{recoverable}, want: errors.ExitSuccess, wantStdout: "warning: "},
		{name: "recoverable strict", args: []string{recoverable, "--strict"}, want: errors.ExitInput},
		{name: "not an object", args: []string{garbage}, want: errors.ExitInput},
		{name: "missing file", args: []string{filepath.Join(dir, "none.json")}, want: errors.ExitNotFound},
		{name: "no argument", want: errors.ExitInput},
		{name: "stdin", args: []string{"-"}, stdin: `{"project_name": "x", "files": []}`, want: errors.ExitSuccess, wantStdout: "- is valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.stdin, append([]string{"validate"}, tt.args...)...)
			assert.Equal(t, tt.want, res.code, res.stderr)
			assert.Contains(t, res.stdout, tt.wantStdout)
		})
	}
}

func TestValidate_JSONReport(t *testing.T) {
	res := runCLI(t, `{"files": []}`, "validate", "-", "--format", "json")
	assert.Equal(t, errors.ExitInput, res.code)

	var rep validationReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rep))
	assert.False(t, rep.Valid)
	require.NotEmpty(t, rep.Issues)
	assert.True(t, rep.Issues[0].Fatal)
}

func TestInit(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()

	res := runCLI(t, "", "init", root, "-y", "--parser-mode", "treesitter", "--project-name", "demo")
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Created ")
	assert.Contains(t, res.stderr, "Next steps:")

	cfg, err := config.LoadConfig(config.Path(root))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.ProjectName)
	assert.Equal(t, "treesitter", cfg.Analysis.ParserMode)

	res = runCLI(t, "", "init", root, "-y")
	assert.Equal(t, errors.ExitConfig, res.code)
	assert.Contains(t, res.stderr, "--force")

	res = runCLI(t, "", "--quiet", "init", root, "-y", "--force", "--llm-provider", "ollama")
	require.Equal(t, errors.ExitSuccess, res.code, res.stderr)
	cfg, err = config.LoadConfig(config.Path(root))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), cfg.ProjectName)
	assert.Equal(t, "ollama", cfg.LLM.Type)
	assert.True(t, cfg.Describe.Enabled)
}

func TestInit_InvalidParserMode(t *testing.T) {
	res := runCLI(t, "", "init", t.TempDir(), "-y", "--parser-mode", "fast")
	assert.Equal(t, errors.ExitInput, res.code)
}
