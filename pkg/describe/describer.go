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
	"log/slog"
	"strings"
	"time"

	"github.com/kraklabs/repofacts/pkg/ladom"
	"github.com/kraklabs/repofacts/pkg/llm"
)

// Fallback is the description given to a symbol when generation fails.
const Fallback = ladom.FallbackDocumentation

// Options configures a Describer.
type Options struct {
	// System is the system prompt. Empty selects llm.SystemPrompts.CodeDocument.
	System string

	// Temperature passed to the generator.
	Temperature float64

	// CacheSize bounds the description cache. Zero selects DefaultCacheSize.
	CacheSize int

	// RequestsPerMinute throttles the generator. Zero or less disables it.
	RequestsPerMinute int
}

// Describer fills descriptions of undocumented symbols. It is safe for
// concurrent use by several pipeline workers.
type Describer struct {
	gen     Generator
	opts    Options
	cache   *Cache
	limiter *RateLimiter
	logger  *slog.Logger
}

// New creates a Describer. Call Close to release the rate limiter.
func New(gen Generator, opts Options, logger *slog.Logger) (*Describer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.System == "" {
		opts.System = llm.SystemPrompts.CodeDocument
	}
	cache, err := NewCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Describer{
		gen:     gen,
		opts:    opts,
		cache:   cache,
		limiter: NewRateLimiter(opts.RequestsPerMinute),
		logger:  logger,
	}, nil
}

// Close stops the rate limiter.
func (d *Describer) Close() {
	d.limiter.Stop()
}

// DescribeFile fills every undocumented function, method and class of f
// and returns how many symbols it touched. Symbols that already carry a
// description are left alone.
func (d *Describer) DescribeFile(ctx context.Context, pb PromptBuilder, f *ladom.File) int {
	if f == nil {
		return 0
	}
	n := 0
	for i := range f.Functions {
		if d.describeFunction(ctx, pb, &f.Functions[i]) {
			n++
		}
	}
	for i := range f.Classes {
		c := &f.Classes[i]
		if !c.Documented && c.Description == "" {
			snippet := c.Source
			if snippet == "" {
				snippet = c.Name
			}
			text := d.text(ctx, pb, snippet, false)
			if doc := pb.ParseDocumentation(text); doc.Summary != "" {
				text = doc.Summary
			}
			c.Description = text
			n++
		}
		for j := range c.Methods {
			if d.describeFunction(ctx, pb, &c.Methods[j]) {
				n++
			}
		}
	}
	return n
}

func (d *Describer) describeFunction(ctx context.Context, pb PromptBuilder, fn *ladom.Function) bool {
	if fn.Documented || fn.Description != "" {
		return false
	}
	snippet := fn.Source
	if snippet == "" {
		snippet = fn.Signature
	}
	if snippet == "" {
		snippet = fn.Name
	}
	text := d.text(ctx, pb, snippet, fn.Constructor)
	if text == Fallback {
		fn.Description = Fallback
		return true
	}
	doc := pb.ParseDocumentation(text)
	if doc.Summary == "" {
		doc.Summary = text
	}
	doc.ApplyTo(fn)
	return true
}

// text returns sanitized generated text for snippet, or Fallback.
func (d *Describer) text(ctx context.Context, pb PromptBuilder, snippet string, constructor bool) string {
	lang := pb.Language()
	if cached, ok := d.cache.Get(lang, snippet); ok {
		recordRequest("hit")
		return cached
	}
	recordRequest("miss")

	if err := d.limiter.Wait(ctx); err != nil {
		recordRequest("fallback")
		return Fallback
	}

	start := time.Now()
	raw, err := d.gen.Generate(ctx, d.opts.System, pb.BuildDescriptionPrompt(snippet, constructor), d.opts.Temperature)
	observeGenerate(time.Since(start).Seconds())
	if err != nil {
		recordRequest("error")
		d.logger.Warn("describe.generate.error", "language", lang, "err", err)
		return Fallback
	}

	text := strings.TrimSpace(pb.SanitizeGeneratedText(raw, constructor))
	if text == "" {
		recordRequest("fallback")
		return Fallback
	}
	d.cache.Put(lang, snippet, text)
	return text
}
