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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// PythonAnalyzer extracts functions, classes and imports from Python files.
type PythonAnalyzer struct {
	baseAnalyzer
}

// NewPythonAnalyzer creates a Python analyzer.
func NewPythonAnalyzer(mode ParserMode, logger *slog.Logger) *PythonAnalyzer {
	return &PythonAnalyzer{baseAnalyzer: newBase(ladom.LanguagePython, []string{".py", ".pyw"}, mode, logger)}
}

// Analyze implements Analyzer.
func (a *PythonAnalyzer) Analyze(ctx context.Context, file FileInfo) (*ladom.File, error) {
	return a.run(ctx, file, a.extractAST, a.extractPattern)
}

// BuildDescriptionPrompt asks for a Google-style docstring.
func (a *PythonAnalyzer) BuildDescriptionPrompt(snippet string, constructor bool) string {
	var sb strings.Builder
	sb.WriteString("Generate a concise Google-style Python docstring for this code. ")
	if constructor {
		sb.WriteString("Include Args and a brief description. ")
		sb.WriteString(constructorPromptNote)
	} else {
		sb.WriteString("Include Args, Returns, and a brief description. ")
	}
	sb.WriteString("Return ONLY the docstring content without triple quotes.\n\n")
	fmt.Fprintf(&sb, "Code:\n```python\n%s\n```", snippet)
	return sb.String()
}

// ParseDocumentation parses Google-style docstring text.
func (a *PythonAnalyzer) ParseDocumentation(text string) ladom.DocComment {
	return parseGoogleDocstring(text)
}

// =============================================================================
// TREE-SITTER EXTRACTION
// =============================================================================

func (a *PythonAnalyzer) extractAST(ctx context.Context, src []byte, path string) (*ladom.File, extractOutcome) {
	tree, err := parseTree(ctx, python.GetLanguage(), src)
	if err != nil {
		return nil, extractOutcome{failed: true, err: err}
	}
	defer tree.Close()
	root := tree.RootNode()

	f := &ladom.File{}
	if doc := pyDocstringNode(firstStatement(root), src); doc != "" {
		f.Summary = parseGoogleDocstring(doc).Summary
	}
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			f.Imports = append(f.Imports, pyImports(n, src)...)
		case "function_definition":
			f.Functions = append(f.Functions, a.pyFunction(n, nil, src, false))
		case "class_definition":
			f.Classes = append(f.Classes, a.pyClass(n, nil, src))
		case "decorated_definition":
			def := n.ChildByFieldName("definition")
			decorators := pyDecorators(n, src)
			switch {
			case def == nil:
			case def.Type() == "function_definition":
				f.Functions = append(f.Functions, a.pyFunction(def, decorators, src, false))
			case def.Type() == "class_definition":
				f.Classes = append(f.Classes, a.pyClass(def, decorators, src))
			}
		}
	}
	return f, treeOutcome(root)
}

func pyImports(n *sitter.Node, src []byte) []string {
	if n.Type() == "import_from_statement" {
		if mod := fieldText(n, "module_name", src); mod != "" {
			return []string{mod}
		}
		return nil
	}
	if n.Type() == "future_import_statement" {
		return []string{"__future__"}
	}
	var out []string
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "dotted_name":
			out = append(out, nodeText(c, src))
		case "aliased_import":
			out = append(out, fieldText(c, "name", src))
		}
	}
	return out
}

func pyDecorators(n *sitter.Node, src []byte) []string {
	var out []string
	for _, c := range namedChildren(n) {
		if c.Type() == "decorator" {
			out = append(out, strings.TrimSpace(nodeText(c, src)))
		}
	}
	return out
}

// pyDocstringNode returns the docstring content when n is an expression
// statement holding only a string.
func pyDocstringNode(n *sitter.Node, src []byte) string {
	if n == nil || n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return ""
	}
	s := n.NamedChild(0)
	if s == nil || s.Type() != "string" {
		return ""
	}
	return stripPyString(nodeText(s, src))
}

var pyStringPrefix = regexp.MustCompile(`^[rRuUbBfF]{0,2}`)

func stripPyString(text string) string {
	text = pyStringPrefix.ReplaceAllString(strings.TrimSpace(text), "")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return strings.TrimSpace(text)
}

// pyBodyDocstring returns the docstring of a function or class body.
func pyBodyDocstring(def *sitter.Node, src []byte) string {
	return pyDocstringNode(firstStatement(def.ChildByFieldName("body")), src)
}

// firstStatement returns the first named child of n that is not a comment.
func firstStatement(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

var pyScopeBoundary = map[string]bool{
	"function_definition": true,
	"class_definition":    true,
	"lambda":              true,
}

func (a *PythonAnalyzer) pyFunction(n *sitter.Node, decorators []string, src []byte, method bool) ladom.Function {
	name := fieldText(n, "name", src)
	fn := ladom.Function{
		Name:        name,
		Parameters:  pyParameters(n.ChildByFieldName("parameters"), src),
		Returns:     ladom.Returns{Type: fieldText(n, "return_type", src)},
		Decorators:  decorators,
		Async:       hasChildType(n, "async"),
		Generator:   containsType(n.ChildByFieldName("body"), "yield", pyScopeBoundary),
		Constructor: method && name == "__init__",
		Lines:       span(n),
		Source:      snippet(n, src),
	}
	fn.Signature = pyHeader(n, src)
	if doc := pyBodyDocstring(n, src); doc != "" {
		fn.Documented = true
		parseGoogleDocstring(doc).ApplyTo(&fn)
	}
	return fn
}

// pyHeader returns the declaration text up to the body, without the colon.
func pyHeader(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return strings.TrimSpace(nodeText(n, src))
	}
	header := string(src[n.StartByte():body.StartByte()])
	header = strings.TrimSpace(header)
	header = strings.TrimSuffix(header, ":")
	return strings.Join(strings.Fields(header), " ")
}

func pyParameters(n *sitter.Node, src []byte) []ladom.Parameter {
	params := []ladom.Parameter{}
	for _, c := range namedChildren(n) {
		var p ladom.Parameter
		switch c.Type() {
		case "identifier":
			p.Name = nodeText(c, src)
		case "typed_parameter":
			if id := c.NamedChild(0); id != nil {
				p.Name = nodeText(id, src)
			}
			p.Type = fieldText(c, "type", src)
		case "default_parameter":
			p.Name = fieldText(c, "name", src)
			p.Default = fieldText(c, "value", src)
		case "typed_default_parameter":
			p.Name = fieldText(c, "name", src)
			p.Type = fieldText(c, "type", src)
			p.Default = fieldText(c, "value", src)
		case "list_splat_pattern", "dictionary_splat_pattern":
			p.Name = nodeText(c, src)
		default:
			continue
		}
		if p.Name == "self" || p.Name == "cls" || p.Name == "" {
			continue
		}
		if strings.HasPrefix(p.Name, "*") {
			p.Variadic = true
			p.Optional = true
		}
		if p.Default != "" {
			p.Optional = true
		}
		params = append(params, p)
	}
	return params
}

func (a *PythonAnalyzer) pyClass(n *sitter.Node, decorators []string, src []byte) ladom.Class {
	c := ladom.Class{
		Name:       fieldText(n, "name", src),
		Kind:       ladom.KindClass,
		Decorators: decorators,
		Lines:      span(n),
		Source:     snippet(n, src),
	}
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		var bases []string
		for _, b := range namedChildren(sup) {
			if b.Type() == "keyword_argument" {
				continue
			}
			bases = append(bases, nodeText(b, src))
		}
		c.Bases = strings.Join(bases, ", ")
	}
	if doc := pyBodyDocstring(n, src); doc != "" {
		c.Documented = true
		c.Description = parseGoogleDocstring(doc).Summary
	}
	for _, m := range namedChildren(n.ChildByFieldName("body")) {
		switch m.Type() {
		case "function_definition":
			c.Methods = append(c.Methods, a.pyFunction(m, nil, src, true))
		case "decorated_definition":
			if def := m.ChildByFieldName("definition"); def != nil && def.Type() == "function_definition" {
				c.Methods = append(c.Methods, a.pyFunction(def, pyDecorators(m, src), src, true))
			}
		}
	}
	return c
}

// =============================================================================
// PATTERN EXTRACTION
// =============================================================================

var (
	pyDefPattern    = regexp.MustCompile(`(?m)^([ \t]*)(async[ \t]+)?def[ \t]+([A-Za-z_]\w*)[ \t]*\(`)
	pyClassPattern  = regexp.MustCompile(`(?m)^([ \t]*)class[ \t]+([A-Za-z_]\w*)[ \t]*(?:\(([^)]*)\))?[ \t]*:`)
	pyImportPattern = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+(?:[ \t]+as[ \t]+\w+)?(?:[ \t]*,[ \t]*[\w.]+(?:[ \t]+as[ \t]+\w+)?)*)`)
	pyFromPattern   = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([.\w]+)[ \t]+import\b`)
	pyReturnArrow   = regexp.MustCompile(`^\s*->\s*([^:]+?)\s*:`)
	pyYield         = regexp.MustCompile(`\byield\b`)
)

// pyBlock is a def or class header found by pattern matching.
type pyBlock struct {
	indent    int
	start     int // byte offset of the header
	bodyStart int // byte offset after the header line
	end       int // byte offset where the indented block ends
	class     bool
	match     []int
}

func (a *PythonAnalyzer) extractPattern(_ context.Context, src []byte, _ string) (*ladom.File, extractOutcome) {
	f := &ladom.File{}
	text := string(src)

	for _, m := range pyImportPattern.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			if fields := strings.Fields(part); len(fields) > 0 {
				f.Imports = append(f.Imports, fields[0])
			}
		}
	}
	for _, m := range pyFromPattern.FindAllStringSubmatch(text, -1) {
		f.Imports = append(f.Imports, m[1])
	}
	if doc := pyLeadingString(text); doc != "" {
		f.Summary = parseGoogleDocstring(doc).Summary
	}

	var blocks []pyBlock
	for _, m := range pyDefPattern.FindAllStringSubmatchIndex(text, -1) {
		blocks = append(blocks, pyBlock{indent: indentOf(text[m[2]:m[3]]), start: m[0], match: m})
	}
	for _, m := range pyClassPattern.FindAllStringSubmatchIndex(text, -1) {
		blocks = append(blocks, pyBlock{indent: indentOf(text[m[2]:m[3]]), start: m[0], class: true, match: m})
	}
	sortBlocks(blocks)

	var current *ladom.Class
	classIndent, classEnd := -1, -1
	for _, b := range blocks {
		b.bodyStart, b.end = pyBlockBounds(text, b)
		if current != nil && b.start >= classEnd {
			f.Classes = append(f.Classes, *current)
			current = nil
		}
		switch {
		case b.class && b.indent == 0:
			c := pyPatternClass(text, src, b)
			current = &c
			classIndent, classEnd = -1, b.end
		case !b.class && b.indent == 0:
			f.Functions = append(f.Functions, pyPatternFunction(text, src, b, false))
		case !b.class && current != nil && b.start < classEnd:
			if classIndent < 0 {
				classIndent = b.indent
			}
			if b.indent == classIndent {
				current.Methods = append(current.Methods, pyPatternFunction(text, src, b, true))
			}
		}
	}
	if current != nil {
		f.Classes = append(f.Classes, *current)
	}
	return f, extractOutcome{}
}

func sortBlocks(blocks []pyBlock) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && blocks[j].start < blocks[j-1].start; j-- {
			blocks[j], blocks[j-1] = blocks[j-1], blocks[j]
		}
	}
}

// pyBlockBounds finds the end of the header line (which may span several
// lines for long parameter lists) and the end of the indented body.
func pyBlockBounds(text string, b pyBlock) (bodyStart, end int) {
	headerEnd := b.match[1]
	if !b.class {
		if rparen := matchParen([]byte(text), b.match[1]-1); rparen > 0 {
			headerEnd = rparen
		}
	}
	nl := strings.IndexByte(text[headerEnd:], '\n')
	if nl < 0 {
		return len(text), len(text)
	}
	bodyStart = headerEnd + nl + 1
	end = bodyStart
	pos := bodyStart
	for pos < len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if lineEnd >= 0 {
			next = pos + lineEnd + 1
		}
		line := text[pos:next]
		if strings.TrimSpace(line) != "" {
			if indentOf(line) <= b.indent {
				break
			}
			end = next
		}
		pos = next
	}
	return bodyStart, end
}

func pyPatternFunction(text string, src []byte, b pyBlock, method bool) ladom.Function {
	m := b.match
	name := text[m[6]:m[7]]
	lparen := m[1] - 1
	rparen := matchParen(src, lparen)
	var params []ladom.Parameter
	rest := ""
	if rparen > 0 {
		params = pyPatternParams(text[lparen+1 : rparen-1])
		rest = text[rparen:]
	}
	fn := ladom.Function{
		Name:        name,
		Parameters:  params,
		Async:       m[4] >= 0,
		Constructor: method && name == "__init__",
		Decorators:  pyPatternDecorators(text, b.start),
		Lines:       ladom.LineSpan{Start: lineAt(src, b.start+b.indent), End: lineAt(src, max(b.end-1, b.start))},
		Source:      boundSnippet(text[b.start:b.end]),
	}
	if rm := pyReturnArrow.FindStringSubmatch(rest); rm != nil {
		fn.Returns.Type = strings.TrimSpace(rm[1])
	}
	body := text[b.bodyStart:b.end]
	fn.Generator = pyYield.MatchString(body)
	if rparen > 0 {
		fn.Signature = strings.Join(strings.Fields(strings.TrimSpace(text[b.start:rparen])), " ")
		if fn.Returns.Type != "" {
			fn.Signature += " -> " + fn.Returns.Type
		}
	}
	if doc := pyLeadingString(body); doc != "" {
		fn.Documented = true
		parseGoogleDocstring(doc).ApplyTo(&fn)
	}
	return fn
}

func pyPatternClass(text string, src []byte, b pyBlock) ladom.Class {
	m := b.match
	c := ladom.Class{
		Name:       text[m[4]:m[5]],
		Kind:       ladom.KindClass,
		Decorators: pyPatternDecorators(text, b.start),
		Lines:      ladom.LineSpan{Start: lineAt(src, b.start), End: lineAt(src, max(b.end-1, b.start))},
		Source:     boundSnippet(text[b.start:b.end]),
	}
	if m[6] >= 0 {
		var bases []string
		for _, b := range splitTopLevel(text[m[6]:m[7]], ',') {
			if _, _, keyword := cutTopLevel(b, '='); !keyword {
				bases = append(bases, b)
			}
		}
		c.Bases = strings.Join(bases, ", ")
	}
	if doc := pyLeadingString(text[b.bodyStart:b.end]); doc != "" {
		c.Documented = true
		c.Description = parseGoogleDocstring(doc).Summary
	}
	return c
}

func pyPatternParams(list string) []ladom.Parameter {
	params := []ladom.Parameter{}
	for _, part := range splitTopLevel(list, ',') {
		if part == "*" || part == "/" {
			continue
		}
		left, def, hasDef := cutTopLevel(part, '=')
		name, typ, _ := cutTopLevel(left, ':')
		if name == "self" || name == "cls" || name == "" {
			continue
		}
		p := ladom.Parameter{Name: name, Type: typ}
		if hasDef {
			p.Default = def
			p.Optional = true
		}
		if strings.HasPrefix(name, "*") {
			p.Variadic = true
			p.Optional = true
		}
		params = append(params, p)
	}
	return params
}

// pyPatternDecorators collects the "@..." lines directly above offset.
func pyPatternDecorators(text string, offset int) []string {
	var out []string
	head := strings.TrimRight(text[:offset], "\n")
	for head != "" {
		idx := strings.LastIndexByte(head, '\n')
		line := strings.TrimSpace(head[idx+1:])
		if !strings.HasPrefix(line, "@") {
			break
		}
		out = append([]string{line}, out...)
		if idx < 0 {
			break
		}
		head = head[:idx]
	}
	return out
}

// pyLeadingString returns the docstring at the start of text, skipping
// blank lines and comments.
func pyLeadingString(text string) string {
	t := text
	for {
		t = strings.TrimLeft(t, " \t\r\n")
		if strings.HasPrefix(t, "#") {
			nl := strings.IndexByte(t, '\n')
			if nl < 0 {
				return ""
			}
			t = t[nl+1:]
			continue
		}
		break
	}
	t = pyStringPrefix.ReplaceAllString(t, "")
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(t, q) {
			end := strings.Index(t[len(q):], q)
			if end < 0 {
				return ""
			}
			return strings.TrimSpace(t[len(q) : len(q)+end])
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(t, q) {
			nl := strings.IndexByte(t, '\n')
			line := t
			if nl >= 0 {
				line = t[:nl]
			}
			line = strings.TrimSpace(line)
			if len(line) >= 2 && strings.HasSuffix(line, q) {
				return strings.TrimSpace(line[1 : len(line)-1])
			}
		}
	}
	return ""
}

func boundSnippet(s string) string {
	if len(s) > maxSourceSnippet {
		return s[:maxSourceSnippet]
	}
	return s
}
