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

package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/repofacts/pkg/facts"
)

func noColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := Out
	Out = &buf
	t.Cleanup(func() { Out = original })
	return &buf
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	InitColors(true)
	assert.True(t, color.NoColor)
	InitColors(false)
	assert.False(t, color.NoColor)
}

func TestInlineHelpers(t *testing.T) {
	noColor(t)

	assert.Equal(t, "Name:", Label("Name:"))
	assert.Equal(t, "src/app.py", DimText("src/app.py"))
	assert.Equal(t, "42", CountText(42))
}

func TestMessages(t *testing.T) {
	noColor(t)
	buf := captureOut(t)

	Successf("Analyzed %d files", 3)
	Warningf("Skipped %s", "vendor/")
	Errorf("failed")
	Infof("using %s parser", "treesitter")

	assert.Equal(t,
		"✓ Analyzed 3 files\n⚠ Skipped vendor/\n✗ failed\nℹ using treesitter parser\n",
		buf.String())
}

func TestHeader(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	Header(&buf, "demo")
	SubHeader(&buf, "Languages:")
	assert.Equal(t, "demo\n====\nLanguages:\n", buf.String())
}

func TestFactsSummary(t *testing.T) {
	noColor(t)

	f := &facts.RepoFacts{
		Project: facts.ProjectMetadata{Name: "shop-api", Type: facts.ProjectWebAPI, Version: "1.2.0"},
		Languages: []facts.Language{
			{Name: "Python", FileCount: 12, Primary: true, Version: ">=3.11"},
			{Name: "JavaScript", FileCount: 2},
		},
		EntryPoints: []facts.EntryPoint{{File: "main.py", Type: facts.EntryMain, Command: "python main.py"}},
		Dependencies: map[string][]facts.Dependency{
			facts.DepRuntime: {{Name: "fastapi"}, {Name: "uvicorn"}},
			facts.DepDev:     {{Name: "pytest"}},
		},
		Interface: facts.ProjectInterface{WebAPI: &facts.WebAPIInterface{Framework: "FastAPI", BasePath: "/"}},
		Testing:   facts.TestingInfo{Framework: "pytest", TestCommand: "pytest"},

		TotalFiles: 14,
		TotalLines: 900,
	}

	var buf bytes.Buffer
	FactsSummary(&buf, f)
	out := buf.String()

	assert.Contains(t, out, "shop-api\n========\n")
	assert.Contains(t, out, "Type: web_api\n")
	assert.Contains(t, out, "Interface: Web API\n")
	assert.Contains(t, out, "  Python 12 files (>=3.11) primary\n")
	assert.Contains(t, out, "  main    main.py\n")
	assert.Contains(t, out, "Dependencies (3):")
	assert.Contains(t, out, "  runtime: fastapi, uvicorn\n")
	assert.Contains(t, out, "Test: pytest\n")
	assert.Contains(t, out, "14 files, 900 lines, 0 functions, 0 classes\n")
	assert.NotContains(t, out, "License:")
}

func TestFactsSummary_TruncatesDependencies(t *testing.T) {
	noColor(t)

	deps := make([]facts.Dependency, 12)
	for i := range deps {
		deps[i] = facts.Dependency{Name: string(rune('a' + i))}
	}
	f := &facts.RepoFacts{
		Project:      facts.ProjectMetadata{Name: "x"},
		Dependencies: map[string][]facts.Dependency{facts.DepRuntime: deps},
	}

	var buf bytes.Buffer
	FactsSummary(&buf, f)
	assert.Contains(t, buf.String(), "a, b, c, d, e, f, g, h, i, j, +2 more\n")
}

func TestFactsSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	FactsSummary(&buf, nil)
	assert.Empty(t, buf.String())
}
