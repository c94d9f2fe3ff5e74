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
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// JavaScriptAnalyzer extracts functions, classes and imports from
// JavaScript. TypeScriptAnalyzer reuses its walker with type support on.
type JavaScriptAnalyzer struct {
	baseAnalyzer

	// typescript enables type annotations, interfaces and the TS grammars.
	typescript bool
	grammar    func(path string) *sitter.Language
}

// NewJavaScriptAnalyzer creates a JavaScript analyzer.
func NewJavaScriptAnalyzer(mode ParserMode, logger *slog.Logger) *JavaScriptAnalyzer {
	return &JavaScriptAnalyzer{
		baseAnalyzer: newBase(ladom.LanguageJavaScript, []string{".js", ".jsx", ".mjs", ".cjs"}, mode, logger),
		grammar:      func(string) *sitter.Language { return javascript.GetLanguage() },
	}
}

// Analyze implements Analyzer.
func (a *JavaScriptAnalyzer) Analyze(ctx context.Context, file FileInfo) (*ladom.File, error) {
	return a.run(ctx, file, a.extractAST, a.extractPattern)
}

// BuildDescriptionPrompt asks for a JSDoc comment body.
func (a *JavaScriptAnalyzer) BuildDescriptionPrompt(snippet string, constructor bool) string {
	var sb strings.Builder
	sb.WriteString("Generate a concise JSDoc-style documentation comment for this JavaScript code. ")
	if constructor {
		sb.WriteString("Include a brief description and @param tags for all parameters. ")
		sb.WriteString(constructorPromptNote)
	} else {
		sb.WriteString("Include a brief description, @param tags for all parameters, and an @returns tag for the return value. ")
	}
	sb.WriteString("Return ONLY the comment content without the `/** ... */` block.\n\n")
	fmt.Fprintf(&sb, "Code:\n```javascript\n%s\n```", snippet)
	return sb.String()
}

// ParseDocumentation parses JSDoc text.
func (a *JavaScriptAnalyzer) ParseDocumentation(text string) ladom.DocComment {
	if !strings.HasPrefix(strings.TrimSpace(text), "/**") {
		text = "/**\n" + text + "\n*/"
	}
	return parseTagComment(text)
}

// =============================================================================
// TREE-SITTER EXTRACTION
// =============================================================================

func (a *JavaScriptAnalyzer) extractAST(ctx context.Context, src []byte, path string) (*ladom.File, extractOutcome) {
	tree, err := parseTree(ctx, a.grammar(path), src)
	if err != nil {
		return nil, extractOutcome{failed: true, err: err}
	}
	defer tree.Close()
	root := tree.RootNode()

	w := &ecmaWalker{src: src, typescript: a.typescript}
	f := &ladom.File{Summary: w.fileSummary(root)}
	for _, n := range namedChildren(root) {
		w.topLevel(f, n, n)
	}
	f.Imports = append(f.Imports, w.requires(root)...)
	return f, treeOutcome(root)
}

// ecmaWalker walks JavaScript and TypeScript syntax trees.
type ecmaWalker struct {
	src        []byte
	typescript bool
}

// fileSummary returns the leading file comment: a /** block that carries
// @file, @fileoverview or @module, or that is separated from the first
// declaration by a blank line.
func (w *ecmaWalker) fileSummary(root *sitter.Node) string {
	if root.NamedChildCount() == 0 {
		return ""
	}
	first := root.NamedChild(0)
	if first.Type() != "comment" {
		return ""
	}
	text := nodeText(first, w.src)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	tagged := strings.Contains(text, "@file") || strings.Contains(text, "@module")
	if next := first.NextNamedSibling(); !tagged && next != nil && next.StartPoint().Row <= first.EndPoint().Row+1 {
		return ""
	}
	return fileCommentSummary(text)
}

// topLevel handles one program-level statement. docNode is the node whose
// preceding comment documents the declaration; it differs from n for
// exported declarations.
func (w *ecmaWalker) topLevel(f *ladom.File, n, docNode *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		if src := fieldText(n, "source", w.src); src != "" {
			f.Imports = append(f.Imports, stringLiteral(src))
		}
	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			w.topLevel(f, decl, n)
		} else if val := n.ChildByFieldName("value"); val != nil {
			w.exportDefault(f, val, n)
		}
		if src := fieldText(n, "source", w.src); src != "" {
			f.Imports = append(f.Imports, stringLiteral(src))
		}
	case "function_declaration", "generator_function_declaration", "function_signature":
		f.Functions = append(f.Functions, w.function(n, fieldText(n, "name", w.src), docNode))
	case "class_declaration", "abstract_class_declaration", "class":
		f.Classes = append(f.Classes, w.class(n, docNode))
	case "interface_declaration":
		if w.typescript {
			f.Classes = append(f.Classes, w.iface(n, docNode))
		}
	case "enum_declaration":
		if w.typescript {
			f.Classes = append(f.Classes, w.enum(n, docNode))
		}
	case "lexical_declaration", "variable_declaration":
		for _, d := range namedChildren(n) {
			if d.Type() != "variable_declarator" {
				continue
			}
			val := d.ChildByFieldName("value")
			if val == nil {
				continue
			}
			name := fieldText(d, "name", w.src)
			switch val.Type() {
			case "arrow_function", "function", "function_expression", "generator_function":
				fn := w.function(val, name, docNode)
				fn.Lines = span(n)
				f.Functions = append(f.Functions, fn)
			case "class":
				c := w.class(val, docNode)
				c.Name = name
				f.Classes = append(f.Classes, c)
			}
		}
	case "ambient_declaration":
		for _, c := range namedChildren(n) {
			w.topLevel(f, c, docNode)
		}
	case "module", "internal_module":
		// namespace bodies are not descended into
	}
}

func (w *ecmaWalker) exportDefault(f *ladom.File, val, docNode *sitter.Node) {
	switch val.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		name := fieldText(val, "name", w.src)
		if name == "" {
			name = "default"
		}
		f.Functions = append(f.Functions, w.function(val, name, docNode))
	case "class":
		c := w.class(val, docNode)
		if c.Name == "" {
			c.Name = "default"
		}
		f.Classes = append(f.Classes, c)
	}
}

var ecmaFunctionScopes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function":                       true,
	"function_expression":            true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
	"class_body":                     true,
}

// function builds a Function from any function-like node.
func (w *ecmaWalker) function(n *sitter.Node, name string, docNode *sitter.Node) ladom.Function {
	fn := ladom.Function{
		Name:       name,
		Async:      hasChildType(n, "async"),
		Arrow:      n.Type() == "arrow_function",
		Decorators: w.decorators(n, docNode),
		Lines:      span(n),
		Source:     snippet(docNode, w.src),
	}
	fn.Generator = strings.HasPrefix(n.Type(), "generator_") || hasChildType(n, "*")
	if !fn.Generator && !fn.Arrow {
		fn.Generator = containsType(n.ChildByFieldName("body"), "yield_expression", ecmaFunctionScopes)
	}

	paramsText := ""
	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Parameters = w.parameters(params)
		paramsText = nodeText(params, w.src)
	} else if single := n.ChildByFieldName("parameter"); single != nil {
		fn.Parameters = []ladom.Parameter{{Name: nodeText(single, w.src)}}
		paramsText = "(" + nodeText(single, w.src) + ")"
	} else {
		fn.Parameters = []ladom.Parameter{}
	}
	if w.typescript {
		fn.Returns.Type = typeAnnotation(n.ChildByFieldName("return_type"), w.src)
	}
	fn.Signature = strings.Join(strings.Fields(name+paramsText), " ")
	if fn.Returns.Type != "" {
		fn.Signature += ": " + fn.Returns.Type
	}
	w.attachDoc(&fn, docNode)
	return fn
}

func (w *ecmaWalker) attachDoc(fn *ladom.Function, docNode *sitter.Node) {
	if doc := precedingDocComment(docNode, w.src); doc != "" {
		fn.Documented = true
		parseTagComment(doc).ApplyTo(fn)
	}
}

// decorators returns decorator texts attached to n, either as children
// (TypeScript classes) or as preceding siblings (class members).
func (w *ecmaWalker) decorators(n, docNode *sitter.Node) []string {
	var out []string
	for _, c := range namedChildren(n) {
		if c.Type() == "decorator" {
			out = append(out, strings.TrimSpace(nodeText(c, w.src)))
		}
	}
	if docNode != nil && docNode != n {
		for _, c := range namedChildren(docNode) {
			if c.Type() == "decorator" {
				out = append(out, strings.TrimSpace(nodeText(c, w.src)))
			}
		}
	}
	var prev []string
	for p := docNode.PrevSibling(); p != nil && p.Type() == "decorator"; p = p.PrevSibling() {
		prev = append([]string{strings.TrimSpace(nodeText(p, w.src))}, prev...)
	}
	return append(prev, out...)
}

// parameters converts a formal_parameters node.
func (w *ecmaWalker) parameters(n *sitter.Node) []ladom.Parameter {
	params := []ladom.Parameter{}
	for _, c := range namedChildren(n) {
		if c.Type() == "comment" || c.Type() == "decorator" {
			continue
		}
		p := w.parameter(c)
		if p.Name == "" || p.Name == "this" {
			continue
		}
		params = append(params, p)
	}
	return params
}

func (w *ecmaWalker) parameter(n *sitter.Node) ladom.Parameter {
	var p ladom.Parameter
	if n == nil {
		return p
	}
	switch n.Type() {
	case "required_parameter", "optional_parameter":
		p = w.parameter(n.ChildByFieldName("pattern"))
		p.Type = typeAnnotation(n.ChildByFieldName("type"), w.src)
		if v := fieldText(n, "value", w.src); v != "" {
			p.Default = v
			p.Optional = true
		}
		if n.Type() == "optional_parameter" {
			p.Optional = true
		}
	case "assignment_pattern":
		p = w.parameter(n.ChildByFieldName("left"))
		p.Default = fieldText(n, "right", w.src)
		p.Optional = true
	case "rest_pattern":
		inner := ladom.Parameter{}
		if n.NamedChildCount() > 0 {
			inner = w.parameter(n.NamedChild(0))
		}
		p = inner
		p.Variadic = true
		p.Optional = true
	case "object_pattern":
		p.Name = "{...}"
	case "array_pattern":
		p.Name = "[...]"
	case "identifier", "shorthand_property_identifier_pattern", "this":
		p.Name = nodeText(n, w.src)
	default:
		p.Name = nodeText(n, w.src)
	}
	return p
}

var heritageKeyword = regexp.MustCompile(`\b(?:extends|implements)\b`)

// heritage flattens "extends A implements B, C" into "A, B, C". Text
// before the first keyword, such as type parameters, is ignored.
func heritage(text string) string {
	var out []string
	for _, part := range heritageKeyword.Split(text, -1)[1:] {
		for _, name := range splitTopLevel(part, ',') {
			out = append(out, strings.Join(strings.Fields(name), " "))
		}
	}
	return strings.Join(out, ", ")
}

func (w *ecmaWalker) class(n, docNode *sitter.Node) ladom.Class {
	c := ladom.Class{
		Name:       fieldText(n, "name", w.src),
		Kind:       ladom.KindClass,
		Decorators: w.decorators(n, docNode),
		Lines:      span(n),
		Source:     snippet(n, w.src),
	}
	for _, child := range namedChildren(n) {
		if child.Type() == "class_heritage" {
			c.Bases = heritage(nodeText(child, w.src))
		}
	}
	if doc := precedingDocComment(docNode, w.src); doc != "" {
		c.Documented = true
		c.Description = parseTagComment(doc).Summary
	}

	for _, m := range namedChildren(n.ChildByFieldName("body")) {
		switch m.Type() {
		case "method_definition", "abstract_method_signature":
			fn := w.function(m, fieldText(m, "name", w.src), m)
			fn.Constructor = fn.Name == "constructor"
			if fn.Constructor {
				fn.Returns = ladom.Returns{}
			}
			c.Methods = append(c.Methods, fn)
		case "field_definition", "public_field_definition":
			val := m.ChildByFieldName("value")
			if val == nil || (val.Type() != "arrow_function" && val.Type() != "function" && val.Type() != "function_expression") {
				continue
			}
			name := fieldText(m, "property", w.src)
			if name == "" {
				name = fieldText(m, "name", w.src)
			}
			fn := w.function(val, name, m)
			fn.Lines = span(m)
			c.Methods = append(c.Methods, fn)
		}
	}
	return c
}

func (w *ecmaWalker) iface(n, docNode *sitter.Node) ladom.Class {
	c := ladom.Class{
		Name:   fieldText(n, "name", w.src),
		Kind:   ladom.KindInterface,
		Lines:  span(n),
		Source: snippet(n, w.src),
	}
	for _, child := range namedChildren(n) {
		if child.Type() == "extends_type_clause" || child.Type() == "extends_clause" {
			c.Bases = heritage(nodeText(child, w.src))
		}
	}
	if doc := precedingDocComment(docNode, w.src); doc != "" {
		c.Documented = true
		c.Description = parseTagComment(doc).Summary
	}
	for _, m := range namedChildren(n.ChildByFieldName("body")) {
		if m.Type() == "method_signature" {
			c.Methods = append(c.Methods, w.function(m, fieldText(m, "name", w.src), m))
		}
	}
	return c
}

func (w *ecmaWalker) enum(n, docNode *sitter.Node) ladom.Class {
	c := ladom.Class{
		Name:   fieldText(n, "name", w.src),
		Kind:   ladom.KindEnum,
		Lines:  span(n),
		Source: snippet(n, w.src),
	}
	if doc := precedingDocComment(docNode, w.src); doc != "" {
		c.Documented = true
		c.Description = parseTagComment(doc).Summary
	}
	return c
}

// requires collects require("x") calls anywhere in the tree.
func (w *ecmaWalker) requires(n *sitter.Node) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" && fieldText(n, "function", w.src) == "require" {
			if args := n.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
				if s := args.NamedChild(0); s.Type() == "string" {
					out = append(out, stringLiteral(nodeText(s, w.src)))
				}
			}
		}
		for _, c := range namedChildren(n) {
			walk(c)
		}
	}
	walk(n)
	return out
}

// =============================================================================
// PATTERN EXTRACTION
// =============================================================================

var (
	ecmaImportPattern  = regexp.MustCompile(`(?m)^[ \t]*import\s+(?:type\s+)?(?:[^'";]*?\s+from\s+)?['"]([^'"]+)['"]`)
	ecmaRequirePattern = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	ecmaFuncPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?(?:declare\s+)?(async\s+)?function\s*(\*)?\s*([A-Za-z_$][\w$]*)\s*(?:<[^>(]*>)?\s*\(`)
	ecmaArrowPattern   = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=\n]+)?=\s*(async\s+)?(?:(function)\s*(\*)?\s*[A-Za-z_$]*\s*\(|\(|([A-Za-z_$][\w$]*)\s*=>)`)
	ecmaClassPattern   = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)([^{]*)\{`)
	ecmaIfacePattern   = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:declare\s+)?interface\s+([A-Za-z_$][\w$]*)([^{]*)\{`)
	ecmaMethodPattern  = regexp.MustCompile(`(?m)^[ \t]*((?:(?:public|private|protected|static|async|readonly|abstract|override|get|set)\s+)*)(\*\s*)?(#?[A-Za-z_$][\w$]*)\s*(?:<[^>(]*>)?\s*\(`)
	ecmaFieldArrow     = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|private|protected|static|readonly)\s+)*(#?[A-Za-z_$][\w$]*)\s*(?::[^=\n]+)?=\s*(async\s+)?\(`)
	ecmaSigPattern     = regexp.MustCompile(`(?m)^[ \t]*(?:readonly\s+)?([A-Za-z_$][\w$]*)\??\s*(?:<[^>(]*>)?\s*\(`)
)

var ecmaKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "with": true, "do": true, "else": true,
	"new": true, "typeof": true, "await": true, "super": true,
}

// ecmaDecl is a top-level declaration found by pattern matching.
type ecmaDecl struct {
	start, end int
	fn         *ladom.Function
	class      *ladom.Class
}

func (a *JavaScriptAnalyzer) extractPattern(_ context.Context, src []byte, _ string) (*ladom.File, extractOutcome) {
	text := string(src)
	f := &ladom.File{}
	for _, m := range ecmaImportPattern.FindAllStringSubmatch(text, -1) {
		f.Imports = append(f.Imports, m[1])
	}
	for _, m := range ecmaRequirePattern.FindAllStringSubmatch(text, -1) {
		f.Imports = append(f.Imports, m[1])
	}

	var decls []ecmaDecl
	for _, m := range ecmaFuncPattern.FindAllStringSubmatchIndex(text, -1) {
		lparen := m[1] - 1
		fn, end := a.patternFunction(src, m[0], lparen, text[m[6]:m[7]])
		fn.Async = m[2] >= 0
		fn.Generator = m[4] >= 0
		decls = append(decls, ecmaDecl{start: m[0], end: end, fn: &fn})
	}
	for _, m := range ecmaArrowPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		var fn ladom.Function
		var end int
		if m[10] >= 0 {
			// single identifier parameter: x => ...
			fn, end = a.patternArrowSingle(src, m[0], m[1], name, text[m[10]:m[11]])
		} else {
			lparen := m[1] - 1
			if m[6] < 0 && !arrowFollows(src, lparen) {
				continue
			}
			fn, end = a.patternFunction(src, m[0], lparen, name)
			fn.Arrow = m[6] < 0
			fn.Generator = m[8] >= 0
		}
		fn.Async = m[4] >= 0
		decls = append(decls, ecmaDecl{start: m[0], end: end, fn: &fn})
	}
	for _, m := range ecmaClassPattern.FindAllStringSubmatchIndex(text, -1) {
		c, end := a.patternClass(src, m, ladom.KindClass)
		decls = append(decls, ecmaDecl{start: m[0], end: end, class: &c})
	}
	if a.typescript {
		for _, m := range ecmaIfacePattern.FindAllStringSubmatchIndex(text, -1) {
			c, end := a.patternClass(src, m, ladom.KindInterface)
			decls = append(decls, ecmaDecl{start: m[0], end: end, class: &c})
		}
	}
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].start < decls[j].start })

	covered := 0
	for _, d := range decls {
		if d.start < covered {
			continue
		}
		covered = d.end
		if d.fn != nil {
			f.Functions = append(f.Functions, *d.fn)
		} else {
			f.Classes = append(f.Classes, *d.class)
		}
	}
	if lead := strings.TrimLeft(text, " \t\r\n"); strings.HasPrefix(lead, "/**") {
		if end := strings.Index(lead, "*/"); end > 0 {
			comment := lead[:end+2]
			if strings.Contains(comment, "@file") || strings.Contains(comment, "@module") {
				f.Summary = fileCommentSummary(comment)
			}
		}
	}
	return f, extractOutcome{}
}

// patternFunction builds a function whose parameter list opens at lparen.
// It returns the function and the offset where its body ends.
func (a *JavaScriptAnalyzer) patternFunction(src []byte, start, lparen int, name string) (ladom.Function, int) {
	fn := ladom.Function{Name: name, Parameters: []ladom.Parameter{}}
	rparen := matchParen(src, lparen)
	if rparen < 0 {
		fn.Lines = ladom.LineSpan{Start: lineAt(src, start), End: lineAt(src, start)}
		return fn, lparen + 1
	}
	fn.Parameters = parseCStyleParams(string(src[lparen+1 : rparen-1]))
	fn.Signature = strings.Join(strings.Fields(name+string(src[lparen:rparen])), " ")

	end := rparen
	rest := src[rparen:]
	brace := strings.IndexAny(string(rest), "{;")
	if brace >= 0 {
		between := strings.TrimSpace(string(rest[:brace]))
		between = strings.TrimSpace(strings.TrimSuffix(between, "=>"))
		if a.typescript && strings.HasPrefix(between, ":") {
			fn.Returns.Type = strings.TrimSpace(strings.TrimPrefix(between, ":"))
			fn.Signature += ": " + fn.Returns.Type
		}
		if rest[brace] == '{' {
			end = matchBrace(src, rparen+brace)
		} else {
			end = rparen + brace + 1
		}
	}
	fn.Lines = ladom.LineSpan{Start: lineAt(src, start), End: lineAt(src, max(end-1, start))}
	fn.Source = boundSnippet(string(src[start:end]))
	if doc := blockComment(src, start); doc != "" {
		fn.Documented = true
		parseTagComment(doc).ApplyTo(&fn)
	}
	return fn, end
}

func (a *JavaScriptAnalyzer) patternArrowSingle(src []byte, start, arrowEnd int, name, param string) (ladom.Function, int) {
	fn := ladom.Function{
		Name:       name,
		Arrow:      true,
		Parameters: []ladom.Parameter{{Name: param}},
		Signature:  name + "(" + param + ")",
	}
	end := arrowEnd
	rest := strings.TrimLeft(string(src[arrowEnd:]), " \t")
	if strings.HasPrefix(rest, "{") {
		end = matchBrace(src, len(src)-len(rest))
	} else if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		end = len(src) - len(rest) + nl
	} else {
		end = len(src)
	}
	fn.Lines = ladom.LineSpan{Start: lineAt(src, start), End: lineAt(src, max(end-1, start))}
	fn.Source = boundSnippet(string(src[start:end]))
	if doc := blockComment(src, start); doc != "" {
		fn.Documented = true
		parseTagComment(doc).ApplyTo(&fn)
	}
	return fn, end
}

// patternClass builds a class or interface from a class/interface match.
// Members are matched only at the first nesting level of the body.
func (a *JavaScriptAnalyzer) patternClass(src []byte, m []int, kind string) (ladom.Class, int) {
	text := string(src)
	open := m[1] - 1
	end := matchBrace(src, open)
	c := ladom.Class{
		Name:   text[m[2]:m[3]],
		Kind:   kind,
		Bases:  heritage(text[m[4]:m[5]]),
		Lines:  ladom.LineSpan{Start: lineAt(src, m[0]), End: lineAt(src, max(end-1, m[0]))},
		Source: boundSnippet(text[m[0]:end]),
	}
	if doc := blockComment(src, m[0]); doc != "" {
		c.Documented = true
		c.Description = parseTagComment(doc).Summary
	}
	bodyStart := open + 1
	bodyEnd := max(end-1, bodyStart)
	body := text[bodyStart:bodyEnd]

	if kind == ladom.KindInterface {
		for _, sm := range ecmaSigPattern.FindAllStringSubmatchIndex(body, -1) {
			lparen := bodyStart + sm[1] - 1
			fn, _ := a.patternFunction(src, bodyStart+sm[0], lparen, body[sm[2]:sm[3]])
			if rparen := matchParen(src, lparen); rparen > 0 {
				sigEnd := rparen + strings.IndexAny(text[rparen:bodyEnd]+";", ";\n")
				if after := strings.TrimSpace(text[rparen:min(sigEnd, bodyEnd)]); strings.HasPrefix(after, ":") {
					fn.Returns.Type = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(after, ":"), ";"))
					fn.Signature = strings.Join(strings.Fields(fn.Name+text[lparen:rparen]), " ") + ": " + fn.Returns.Type
				}
				fn.Lines.End = lineAt(src, min(sigEnd, bodyEnd))
				fn.Source = boundSnippet(text[bodyStart+sm[0] : min(sigEnd+1, bodyEnd)])
			}
			c.Methods = append(c.Methods, fn)
		}
		return c, end
	}

	type member struct {
		start, end int
		fn         ladom.Function
	}
	var members []member
	for _, mm := range ecmaMethodPattern.FindAllStringSubmatchIndex(body, -1) {
		name := body[mm[6]:mm[7]]
		if ecmaKeywords[name] {
			continue
		}
		lparen := bodyStart + mm[1] - 1
		rparen := matchParen(src, lparen)
		if rparen < 0 {
			continue
		}
		after := strings.TrimSpace(text[rparen:bodyEnd])
		if strings.HasPrefix(after, ":") {
			after = strings.TrimSpace(after[strings.IndexAny(after+"{;", "{;"):])
		}
		if !strings.HasPrefix(after, "{") {
			continue
		}
		fn, fnEnd := a.patternFunction(src, bodyStart+mm[0], lparen, name)
		fn.Async = strings.Contains(body[mm[2]:mm[3]], "async")
		fn.Generator = mm[4] >= 0
		fn.Constructor = name == "constructor"
		if fn.Constructor {
			fn.Returns = ladom.Returns{}
		}
		members = append(members, member{start: bodyStart + mm[0], end: fnEnd, fn: fn})
	}
	for _, fm := range ecmaFieldArrow.FindAllStringSubmatchIndex(body, -1) {
		lparen := bodyStart + fm[1] - 1
		if !arrowFollows(src, lparen) {
			continue
		}
		fn, fnEnd := a.patternFunction(src, bodyStart+fm[0], lparen, body[fm[2]:fm[3]])
		fn.Arrow = true
		fn.Async = fm[4] >= 0
		members = append(members, member{start: bodyStart + fm[0], end: fnEnd, fn: fn})
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].start < members[j].start })
	covered := 0
	for _, mb := range members {
		if mb.start < covered {
			continue
		}
		covered = mb.end
		c.Methods = append(c.Methods, mb.fn)
	}
	return c, end
}

// arrowFollows reports whether the parenthesized list at lparen is
// followed by "=>", optionally after a return type annotation.
func arrowFollows(src []byte, lparen int) bool {
	rparen := matchParen(src, lparen)
	if rparen < 0 {
		return false
	}
	rest := string(src[rparen:])
	if nl := strings.IndexAny(rest, "{;"); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.Contains(rest, "=>")
}

// isTSX reports whether path needs the TSX grammar.
func isTSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tsx")
}
