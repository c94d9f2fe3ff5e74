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

package describe

import (
	"context"
	"fmt"

	"github.com/kraklabs/repofacts/pkg/ladom"
	"github.com/kraklabs/repofacts/pkg/llm"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, temperature float64) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, prompt string, temperature float64) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	return f(ctx, system, prompt, temperature)
}

// PromptBuilder is the language-specific half of description generation.
// Every ingestion analyzer implements it.
type PromptBuilder interface {
	Language() string
	BuildDescriptionPrompt(snippet string, constructor bool) string
	SanitizeGeneratedText(raw string, constructor bool) string
	ParseDocumentation(text string) ladom.DocComment
}

// ProviderGenerator generates through an llm.Provider.
type ProviderGenerator struct {
	Provider  llm.Provider
	Model     string
	MaxTokens int
}

// NewProviderGenerator wraps p.
func NewProviderGenerator(p llm.Provider, model string) *ProviderGenerator {
	return &ProviderGenerator{Provider: p, Model: model, MaxTokens: 512}
}

// Generate implements Generator.
func (g *ProviderGenerator) Generate(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	resp, err := g.Provider.Generate(ctx, llm.GenerateRequest{
		System:      system,
		Prompt:      prompt,
		Model:       g.Model,
		MaxTokens:   g.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", g.Provider.Name(), err)
	}
	return resp.Text, nil
}
