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

package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned by DefaultProvider when no backend is set
// up in the environment.
var ErrNotConfigured = errors.New("no LLM provider configured")

// DefaultProvider creates a provider from environment variables.
// LLM_PROVIDER wins when set; otherwise checks OLLAMA_HOST/OLLAMA_MODEL,
// then OPENAI_API_KEY. Returns ErrNotConfigured when none is present.
func DefaultProvider() (Provider, error) {
	if t := os.Getenv("LLM_PROVIDER"); t != "" {
		return NewProvider(ProviderConfig{Type: t})
	}

	// Ollama first (local, free)
	if os.Getenv("OLLAMA_HOST") != "" || os.Getenv("OLLAMA_BASE_URL") != "" || os.Getenv("OLLAMA_MODEL") != "" {
		return NewProvider(ProviderConfig{Type: "ollama"})
	}

	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "openai"})
	}

	return nil, ErrNotConfigured
}

// CodePrompt helps build prompts for code-related tasks.
type CodePrompt struct {
	Task        string
	Language    string
	Code        string
	Constraints []string
}

// Build generates a formatted prompt for code tasks.
func (cp CodePrompt) Build() string {
	var sb strings.Builder

	sb.WriteString(cp.Task)
	sb.WriteString("\n\n")

	if len(cp.Constraints) > 0 {
		sb.WriteString("Constraints:\n")
		for _, c := range cp.Constraints {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}

	if cp.Code != "" {
		fmt.Fprintf(&sb, "Code:\n```%s\n%s\n```", cp.Language, cp.Code)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// SystemPrompts contains the system prompts used for code tasks.
var SystemPrompts = struct {
	CodeDocument string
}{
	CodeDocument: `You are a technical writer specializing in code documentation.
You write documentation comments for source code in the comment convention of its language.
Describe behavior, parameters and return values precisely and briefly.
Never invent parameters that are not in the code. Reply with the documentation text only.`,
}
