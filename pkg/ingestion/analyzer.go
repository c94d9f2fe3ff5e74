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
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// ErrUnreadable is returned by Analyze when the file cannot be read at all.
// It is the only error an analyzer reports; parse problems degrade instead.
var ErrUnreadable = errors.New("file unreadable")

// Analyzer converts one source file into a LADOM File.
//
// Analyze returns (nil, nil) when the file could not be parsed by any
// strategy and nothing was recovered. Implementations are safe for
// concurrent use.
type Analyzer interface {
	// Language returns the language tag written to File.Language.
	Language() string

	// Extensions lists the lower-case file extensions handled, dot included.
	Extensions() []string

	// Analyze reads and parses the file.
	Analyze(ctx context.Context, file FileInfo) (*ladom.File, error)

	// BuildDescriptionPrompt renders the prompt used to document an
	// undocumented symbol.
	BuildDescriptionPrompt(snippet string, constructor bool) string

	// SanitizeGeneratedText strips code fences, comment delimiters and
	// quoting from generated documentation.
	SanitizeGeneratedText(raw string, constructor bool) string

	// ParseDocumentation parses documentation text in the language's
	// comment convention.
	ParseDocumentation(text string) ladom.DocComment
}

// ParserMode determines which extraction strategy analyzers use.
type ParserMode string

const (
	// ParserModeTreeSitter uses Tree-sitter only. Files with syntax errors
	// keep whatever the partial tree yields.
	ParserModeTreeSitter ParserMode = "treesitter"

	// ParserModeSimplified uses pattern matching only.
	ParserModeSimplified ParserMode = "simplified"

	// ParserModeAuto uses Tree-sitter and falls back to pattern matching
	// when the tree contains errors.
	ParserModeAuto ParserMode = "auto"
)

// DefaultParserMode is the default parser mode.
const DefaultParserMode = ParserModeAuto

// ParseParserMode validates a user supplied mode. Empty selects the default.
func ParseParserMode(s string) (ParserMode, error) {
	switch ParserMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultParserMode, nil
	case ParserModeAuto:
		return ParserModeAuto, nil
	case ParserModeTreeSitter:
		return ParserModeTreeSitter, nil
	case ParserModeSimplified:
		return ParserModeSimplified, nil
	}
	return "", fmt.Errorf("unknown parser mode %q (want auto, treesitter or simplified)", s)
}

// baseAnalyzer supplies the behavior shared by every language: reading,
// strategy selection and the generic prompt hooks. Language analyzers embed
// it and override the hooks they need.
type baseAnalyzer struct {
	language   string
	extensions []string
	mode       ParserMode
	logger     *slog.Logger
}

func newBase(language string, exts []string, mode ParserMode, logger *slog.Logger) baseAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = DefaultParserMode
	}
	return baseAnalyzer{language: language, extensions: exts, mode: mode, logger: logger}
}

func (b *baseAnalyzer) Language() string     { return b.language }
func (b *baseAnalyzer) Extensions() []string { return b.extensions }

func (b *baseAnalyzer) BuildDescriptionPrompt(snippet string, constructor bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a one-paragraph description of this %s code. ", b.language)
	sb.WriteString("Describe what it does and what each parameter means. ")
	if constructor {
		sb.WriteString(constructorPromptNote)
	}
	sb.WriteString("Return ONLY the description text.\n\n")
	fmt.Fprintf(&sb, "Code:\n```%s\n%s\n```", b.language, snippet)
	return sb.String()
}

func (b *baseAnalyzer) SanitizeGeneratedText(raw string, constructor bool) string {
	return sanitizeGenerated(raw, constructor)
}

func (b *baseAnalyzer) ParseDocumentation(text string) ladom.DocComment {
	return ladom.DocComment{Summary: strings.TrimSpace(text)}
}

const constructorPromptNote = "This is a constructor: it initializes a new instance and does not return a value, so do not describe a return value. "

// extractFunc is one extraction strategy over the decoded source.
type extractFunc func(ctx context.Context, src []byte, path string) (*ladom.File, extractOutcome)

// extractOutcome reports how an extraction attempt went.
type extractOutcome struct {
	// failed is set when the strategy could not run or the tree had errors.
	failed bool
	errors int
	err    error
}

// run reads the file and applies the AST and pattern strategies according
// to the parser mode.
func (b *baseAnalyzer) run(ctx context.Context, file FileInfo, ast, pattern extractFunc) (*ladom.File, error) {
	src, err := readSource(file.FullPath, b.logger)
	if err != nil {
		b.logger.Warn("analyzer.read.error", "path", file.Path, "err", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, file.Path, err)
	}

	if b.mode == ParserModeSimplified || ast == nil {
		f, _ := pattern(ctx, src, file.Path)
		return b.finish(f, file, ladom.ExtractionPattern), nil
	}

	astFile, outcome := ast(ctx, src, file.Path)
	if !outcome.failed {
		return b.finish(astFile, file, ladom.ExtractionAST), nil
	}

	b.logger.Warn("analyzer.parse.degraded",
		"path", file.Path,
		"language", b.language,
		"error_nodes", outcome.errors,
		"err", outcome.err,
	)
	if b.mode == ParserModeTreeSitter {
		if symbolCount(astFile) == 0 {
			return nil, nil
		}
		return b.finish(astFile, file, ladom.ExtractionAST), nil
	}

	patFile, _ := pattern(ctx, src, file.Path)
	astN, patN := symbolCount(astFile), symbolCount(patFile)
	switch {
	case astN == 0 && patN == 0:
		b.logger.Warn("analyzer.parse.dropped", "path", file.Path, "language", b.language)
		return nil, nil
	case patN > astN:
		b.logger.Debug("analyzer.parse.fallback", "path", file.Path, "ast_symbols", astN, "pattern_symbols", patN)
		return b.finish(patFile, file, ladom.ExtractionPattern), nil
	default:
		return b.finish(astFile, file, ladom.ExtractionAST), nil
	}
}

func (b *baseAnalyzer) finish(f *ladom.File, file FileInfo, extraction string) *ladom.File {
	if f == nil {
		f = &ladom.File{}
	}
	f.Path = filepath.ToSlash(file.Path)
	f.Language = b.language
	f.Extraction = extraction
	f.Imports = dedupeStrings(f.Imports)
	stamp(f)
	return f
}

// stamp writes owning path and language onto every symbol.
func stamp(f *ladom.File) {
	for i := range f.Functions {
		f.Functions[i].FilePath = f.Path
		f.Functions[i].Language = f.Language
	}
	for i := range f.Classes {
		c := &f.Classes[i]
		c.FilePath = f.Path
		c.Language = f.Language
		for j := range c.Methods {
			c.Methods[j].FilePath = f.Path
			c.Methods[j].Language = f.Language
		}
	}
}

// symbolCount counts what a strategy recovered: functions, classes,
// methods and imports.
func symbolCount(f *ladom.File) int {
	if f == nil {
		return 0
	}
	n := len(f.Functions) + len(f.Classes) + len(f.Imports)
	for i := range f.Classes {
		n += len(f.Classes[i].Methods)
	}
	return n
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

var (
	fencedBlock     = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\s*(.*?)```")
	returnsSentence = regexp.MustCompile(`(?i)(^|[.!?]\s+)(it\s+)?returns?\b[^.!?]*[.!?]?`)
	returnTagLine   = regexp.MustCompile(`(?im)^\s*(@returns?\b.*|returns?:.*)$`)
)

// sanitizeGenerated removes markdown fences, comment delimiters and
// surrounding quotes. For constructors it also removes any sentence or tag
// describing a return value.
func sanitizeGenerated(raw string, constructor bool) string {
	text := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(text); m != nil && strings.TrimSpace(fencedBlock.ReplaceAllString(text, "")) == "" {
		text = m[1]
	} else {
		text = fencedBlock.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	for _, q := range []string{`"""`, `'''`} {
		text = strings.TrimPrefix(text, q)
		text = strings.TrimSuffix(text, q)
	}
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")
	text = stripCommentStars(text)
	text = strings.Trim(text, "\"'` \t\r\n")

	if constructor {
		text = returnTagLine.ReplaceAllString(text, "")
		text = returnsSentence.ReplaceAllStringFunc(text, func(s string) string {
			m := returnsSentence.FindStringSubmatch(s)
			return m[1]
		})
		text = strings.TrimSpace(text)
	}
	return text
}

// stripCommentStars removes leading " * " decorations of block comments.
func stripCommentStars(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "*") && !strings.HasPrefix(t, "**") {
			t = strings.TrimSpace(strings.TrimPrefix(t, "*"))
		}
		lines[i] = t
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Registry maps file extensions to analyzers.
type Registry struct {
	byExt map[string]Analyzer
	all   []Analyzer
}

// NewRegistry returns a registry holding the built-in analyzers.
func NewRegistry(mode ParserMode, logger *slog.Logger) *Registry {
	r := &Registry{byExt: make(map[string]Analyzer)}
	r.Register(NewPythonAnalyzer(mode, logger))
	r.Register(NewJavaScriptAnalyzer(mode, logger))
	r.Register(NewTypeScriptAnalyzer(mode, logger))
	r.Register(NewJavaAnalyzer(mode, logger))
	r.Register(NewProtobufAnalyzer(logger))
	for _, inv := range NewInventoryAnalyzers(logger) {
		r.Register(inv)
	}
	return r
}

// Register adds a, replacing earlier analyzers for the same extensions.
func (r *Registry) Register(a Analyzer) {
	r.all = append(r.all, a)
	for _, ext := range a.Extensions() {
		r.byExt[strings.ToLower(ext)] = a
	}
}

// ForPath returns the analyzer for path, or nil if none handles it.
func (r *Registry) ForPath(path string) Analyzer {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// ForLanguage returns the analyzer with the given language tag.
func (r *Registry) ForLanguage(lang string) Analyzer {
	for _, a := range r.all {
		if a.Language() == lang {
			return a
		}
	}
	return nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
