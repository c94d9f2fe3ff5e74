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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rftesting "github.com/kraklabs/repofacts/internal/testing"
	"github.com/kraklabs/repofacts/pkg/ladom"
)


// writeSource writes code under a temp dir and returns its FileInfo.
func writeSource(t *testing.T, name, code string) FileInfo {
	t.Helper()
	full := filepath.Join(t.TempDir(), filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(code), 0o644))
	return FileInfo{Path: name, FullPath: full, Size: int64(len(code)), Language: ladom.LanguageForPath(name)}
}

// analyzeSource runs a on code and requires a non-nil file.
func analyzeSource(t *testing.T, a Analyzer, name, code string) *ladom.File {
	t.Helper()
	f, err := a.Analyze(context.Background(), writeSource(t, name, code))
	require.NoError(t, err)
	require.NotNil(t, f, "analyzer dropped %s", name)
	return f
}

func functionNames(fns []ladom.Function) []string {
	out := make([]string, len(fns))
	for i, fn := range fns {
		out[i] = fn.Name
	}
	return out
}

func classNames(classes []ladom.Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Name
	}
	return out
}

func findFunction(t *testing.T, fns []ladom.Function, name string) ladom.Function {
	t.Helper()
	for _, fn := range fns {
		if fn.Name == name {
			return fn
		}
	}
	require.Failf(t, "function not found", "%s not in %v", name, functionNames(fns))
	return ladom.Function{}
}

func findClass(t *testing.T, classes []ladom.Class, name string) ladom.Class {
	t.Helper()
	for _, c := range classes {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "class not found", "%s not in %v", name, classNames(classes))
	return ladom.Class{}
}

func TestParseParserMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ParserMode
		wantErr bool
	}{
		{"", ParserModeAuto, false},
		{"auto", ParserModeAuto, false},
		{" TreeSitter ", ParserModeTreeSitter, false},
		{"simplified", ParserModeSimplified, false},
		{"regex", "", true},
	}
	for _, tt := range tests {
		got, err := ParseParserMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// stubStrategy returns an extractFunc yielding n functions.
func stubStrategy(n int, failed bool) extractFunc {
	return func(context.Context, []byte, string) (*ladom.File, extractOutcome) {
		f := &ladom.File{}
		for i := 0; i < n; i++ {
			f.Functions = append(f.Functions, ladom.Function{Name: fmt.Sprintf("f%d", i)})
		}
		out := extractOutcome{failed: failed}
		if failed {
			out.errors = 1
		}
		return f, out
	}
}

func TestBaseAnalyzer_StrategySelection(t *testing.T) {
	tests := []struct {
		name           string
		mode           ParserMode
		ast, pattern   extractFunc
		wantNil        bool
		wantExtraction string
		wantFunctions  int
	}{
		{"ast succeeds", ParserModeAuto, stubStrategy(1, false), stubStrategy(5, false), false, ladom.ExtractionAST, 1},
		{"simplified ignores ast", ParserModeSimplified, stubStrategy(1, false), stubStrategy(2, false), false, ladom.ExtractionPattern, 2},
		{"auto prefers richer pattern", ParserModeAuto, stubStrategy(1, true), stubStrategy(3, false), false, ladom.ExtractionPattern, 3},
		{"auto keeps ast on tie", ParserModeAuto, stubStrategy(2, true), stubStrategy(2, false), false, ladom.ExtractionAST, 2},
		{"auto drops when both empty", ParserModeAuto, stubStrategy(0, true), stubStrategy(0, false), true, "", 0},
		{"treesitter keeps partial tree", ParserModeTreeSitter, stubStrategy(1, true), stubStrategy(4, false), false, ladom.ExtractionAST, 1},
		{"treesitter drops empty tree", ParserModeTreeSitter, stubStrategy(0, true), stubStrategy(4, false), true, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBase(ladom.LanguagePython, []string{".py"}, tt.mode, rftesting.DiscardLogger())
			fi := writeSource(t, "pkg/mod.py", "x = 1\n")
			f, err := b.run(context.Background(), fi, tt.ast, tt.pattern)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.wantExtraction, f.Extraction)
			assert.Len(t, f.Functions, tt.wantFunctions)
			assert.Equal(t, "pkg/mod.py", f.Path)
			assert.Equal(t, ladom.LanguagePython, f.Language)
			for _, fn := range f.Functions {
				assert.Equal(t, "pkg/mod.py", fn.FilePath)
				assert.Equal(t, ladom.LanguagePython, fn.Language)
			}
		})
	}
}

func TestBaseAnalyzer_UnreadableFile(t *testing.T) {
	b := newBase(ladom.LanguagePython, []string{".py"}, ParserModeAuto, rftesting.DiscardLogger())
	_, err := b.run(context.Background(), FileInfo{Path: "gone.py", FullPath: filepath.Join(t.TempDir(), "gone.py")}, stubStrategy(1, false), stubStrategy(1, false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
}

func TestReadSource_Latin1Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.py")
	require.NoError(t, os.WriteFile(path, []byte("# caf\xe9\nx = 1\n"), 0o644))
	data, err := readSource(path, rftesting.DiscardLogger())
	require.NoError(t, err)
	assert.Contains(t, string(data), "café")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(ParserModeAuto, nil)

	for path, lang := range map[string]string{
		"a.py":       ladom.LanguagePython,
		"b.JSX":      ladom.LanguageJavaScript,
		"c.tsx":      ladom.LanguageTypeScript,
		"D.java":     ladom.LanguageJava,
		"api.proto":  ladom.LanguageProtobuf,
		"main.tf":    ladom.LanguageTerraform,
		"App.vue":    ladom.LanguageVue,
		"schema.gql": ladom.LanguageGraphQL,
	} {
		a := r.ForPath(path)
		require.NotNil(t, a, path)
		assert.Equal(t, lang, a.Language(), path)
	}
	assert.Nil(t, r.ForPath("README.md"))
	assert.NotNil(t, r.ForLanguage(ladom.LanguageJava))
	assert.Nil(t, r.ForLanguage("cobol"))
	assert.Contains(t, r.Extensions(), ".mjs")
}

func TestSanitizeGenerated(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		constructor bool
		want        string
	}{
		{"fenced", "```python\nAdds two numbers.\n```", false, "Adds two numbers."},
		{"triple quotes", `"""Adds two numbers."""`, false, "Adds two numbers."},
		{"comment block", "/**\n * Adds two numbers.\n */", false, "Adds two numbers."},
		{"constructor drops returns sentence", "Creates a client. Returns a new client.", true, "Creates a client."},
		{"constructor drops returns tag", "Creates a client.\n@returns {Client} the client", true, "Creates a client."},
		{"function keeps returns", "Adds. Returns the sum.", false, "Adds. Returns the sum."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeGenerated(tt.raw, tt.constructor))
		})
	}
}

func TestDescriptionPrompts(t *testing.T) {
	r := NewRegistry(ParserModeAuto, nil)
	for _, lang := range []string{ladom.LanguagePython, ladom.LanguageJavaScript, ladom.LanguageTypeScript, ladom.LanguageJava} {
		a := r.ForLanguage(lang)
		require.NotNil(t, a, lang)
		p := a.BuildDescriptionPrompt("code()", false)
		assert.Contains(t, p, "code()", lang)
		ctor := a.BuildDescriptionPrompt("code()", true)
		assert.Contains(t, ctor, "do not describe a return value", lang)
	}
	assert.Contains(t, r.ForLanguage(ladom.LanguageTypeScript).BuildDescriptionPrompt("x", false), "TSDoc")
}
