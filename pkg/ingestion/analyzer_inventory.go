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
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// InventoryAnalyzer records files that carry no functions or classes but
// matter for classification: Terraform, Vue single-file components and
// GraphQL schemas. It fills Summary and Imports only.
type InventoryAnalyzer struct {
	baseAnalyzer
	scan func(src string, f *ladom.File)
}

// NewInventoryAnalyzers returns one inventory analyzer per supported
// format.
func NewInventoryAnalyzers(logger *slog.Logger) []*InventoryAnalyzer {
	return []*InventoryAnalyzer{
		{baseAnalyzer: newBase(ladom.LanguageTerraform, []string{".tf"}, ParserModeSimplified, logger), scan: scanTerraform},
		{baseAnalyzer: newBase(ladom.LanguageVue, []string{".vue"}, ParserModeSimplified, logger), scan: scanVue},
		{baseAnalyzer: newBase(ladom.LanguageGraphQL, []string{".graphql", ".gql"}, ParserModeSimplified, logger), scan: scanGraphQL},
	}
}

// Analyze implements Analyzer.
func (a *InventoryAnalyzer) Analyze(ctx context.Context, file FileInfo) (*ladom.File, error) {
	return a.run(ctx, file, nil, func(_ context.Context, src []byte, _ string) (*ladom.File, extractOutcome) {
		f := &ladom.File{}
		a.scan(string(src), f)
		return f, extractOutcome{}
	})
}

var (
	tfBlock         = regexp.MustCompile(`(?m)^\s*(resource|data|variable|output|module|provider)\s+"([^"]+)"`)
	tfProviderSrc   = regexp.MustCompile(`(?m)^\s*source\s*=\s*"([^"]+)"`)
	vueScript       = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	graphqlTypeDecl = regexp.MustCompile(`(?m)^\s*(?:extend\s+)?(type|input|interface|enum|union|scalar)\s+(\w+)`)
)

// scanTerraform lists providers and module sources as imports.
func scanTerraform(src string, f *ladom.File) {
	counts := map[string]int{}
	for _, m := range tfBlock.FindAllStringSubmatch(src, -1) {
		counts[m[1]]++
		if m[1] == "provider" {
			f.Imports = append(f.Imports, m[2])
		}
	}
	for _, m := range tfProviderSrc.FindAllStringSubmatch(src, -1) {
		f.Imports = append(f.Imports, m[1])
	}
	f.Summary = fmt.Sprintf("Terraform configuration: %d resources, %d variables, %d outputs",
		counts["resource"], counts["variable"], counts["output"])
}

// scanVue collects imports from the component's script blocks.
func scanVue(src string, f *ladom.File) {
	for _, block := range vueScript.FindAllStringSubmatch(src, -1) {
		for _, m := range ecmaImportPattern.FindAllStringSubmatch(block[1], -1) {
			f.Imports = append(f.Imports, m[1])
		}
		for _, m := range ecmaRequirePattern.FindAllStringSubmatch(block[1], -1) {
			f.Imports = append(f.Imports, m[1])
		}
	}
	if !strings.Contains(src, "<template") {
		return
	}
	f.Summary = "Vue single-file component"
}

// scanGraphQL summarizes declared schema types.
func scanGraphQL(src string, f *ladom.File) {
	var names []string
	for _, m := range graphqlTypeDecl.FindAllStringSubmatch(src, -1) {
		names = append(names, m[2])
	}
	if len(names) == 0 {
		f.Summary = "GraphQL document"
		return
	}
	f.Summary = "GraphQL schema defining " + strings.Join(names, ", ")
}
