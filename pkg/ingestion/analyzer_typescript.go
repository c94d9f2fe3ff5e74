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
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// TypeScriptAnalyzer is the JavaScript walker with type annotations,
// interfaces, enums and declaration files enabled.
type TypeScriptAnalyzer struct {
	*JavaScriptAnalyzer
}

// NewTypeScriptAnalyzer creates a TypeScript analyzer. .tsx files are
// parsed with the TSX grammar.
func NewTypeScriptAnalyzer(mode ParserMode, logger *slog.Logger) *TypeScriptAnalyzer {
	return &TypeScriptAnalyzer{JavaScriptAnalyzer: &JavaScriptAnalyzer{
		baseAnalyzer: newBase(ladom.LanguageTypeScript, []string{".ts", ".tsx", ".mts", ".cts"}, mode, logger),
		typescript:   true,
		grammar: func(path string) *sitter.Language {
			if isTSX(path) {
				return tsx.GetLanguage()
			}
			return typescript.GetLanguage()
		},
	}}
}

// BuildDescriptionPrompt asks for a TSDoc comment body.
func (a *TypeScriptAnalyzer) BuildDescriptionPrompt(snippet string, constructor bool) string {
	var sb strings.Builder
	sb.WriteString("Generate a concise TSDoc-style documentation comment for this TypeScript code. ")
	if constructor {
		sb.WriteString("Include a brief description and @param tags for all parameters. ")
		sb.WriteString(constructorPromptNote)
	} else {
		sb.WriteString("Include a brief description, @param tags for all parameters, and an @returns tag for the return value. ")
	}
	sb.WriteString("Do not repeat the type annotations. ")
	sb.WriteString("Return ONLY the comment content without the `/** ... */` block.\n\n")
	fmt.Fprintf(&sb, "Code:\n```typescript\n%s\n```", snippet)
	return sb.String()
}
