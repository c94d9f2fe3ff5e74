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

// Package llm provides a small provider layer over Large Language Model
// backends. repofacts uses it to write descriptions for symbols that carry
// no documentation comment.
//
// # Supported Providers
//
//   - Ollama: local models, no API key required (default)
//   - OpenAI: GPT models and any OpenAI-compatible API
//   - Mock: for tests
//
// # Quick Start
//
//	provider, err := llm.NewProvider(llm.ProviderConfig{
//	    Type:   "openai",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Generate(ctx, llm.GenerateRequest{
//	    System: llm.SystemPrompts.CodeDocument,
//	    Prompt: "Document this function: ...",
//	})
//
// # Provider Selection
//
// [DefaultProvider] picks a backend from the environment, checking in order:
//  1. LLM_PROVIDER set - uses that type
//  2. OLLAMA_HOST or OLLAMA_MODEL set - uses Ollama
//  3. OPENAI_API_KEY set - uses OpenAI
//  4. Nothing set - returns [ErrNotConfigured]
//
// # Environment Variables
//
// Ollama:
//   - OLLAMA_HOST: Server URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Model name (e.g., "codellama")
//
// OpenAI:
//   - OPENAI_API_KEY: API key
//   - OPENAI_BASE_URL: API URL for compatible services
//   - OPENAI_MODEL: Model name (default: gpt-4o-mini)
//
// # Error Handling
//
// Requests that fail with HTTP 429 or 5xx are retried up to MaxRetries
// times with linear backoff. Other failures return at once with the
// provider name and status, e.g. "openai chat error (status 401): ...".
package llm
