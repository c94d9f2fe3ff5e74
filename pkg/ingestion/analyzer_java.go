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
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// JavaAnalyzer extracts types, methods and imports from Java files.
type JavaAnalyzer struct {
	baseAnalyzer
}

// NewJavaAnalyzer creates a Java analyzer.
func NewJavaAnalyzer(mode ParserMode, logger *slog.Logger) *JavaAnalyzer {
	return &JavaAnalyzer{baseAnalyzer: newBase(ladom.LanguageJava, []string{".java"}, mode, logger)}
}

// Analyze implements Analyzer.
func (a *JavaAnalyzer) Analyze(ctx context.Context, file FileInfo) (*ladom.File, error) {
	return a.run(ctx, file, a.extractAST, a.extractPattern)
}

// BuildDescriptionPrompt asks for a Javadoc comment body.
func (a *JavaAnalyzer) BuildDescriptionPrompt(snippet string, constructor bool) string {
	var sb strings.Builder
	sb.WriteString("Generate a concise Javadoc-style documentation comment for this Java code. ")
	if constructor {
		sb.WriteString("Include a brief description and @param tags for all parameters. ")
		sb.WriteString(constructorPromptNote)
	} else {
		sb.WriteString("Include a brief description, @param tags for all parameters, and an @return tag for the return value. ")
	}
	sb.WriteString("Return ONLY the comment content without the `/** ... */` block.\n\n")
	fmt.Fprintf(&sb, "Code:\n```java\n%s\n```", snippet)
	return sb.String()
}

// ParseDocumentation parses Javadoc text.
func (a *JavaAnalyzer) ParseDocumentation(text string) ladom.DocComment {
	if !strings.HasPrefix(strings.TrimSpace(text), "/**") {
		text = "/**\n" + text + "\n*/"
	}
	return parseTagComment(text)
}

// =============================================================================
// TREE-SITTER EXTRACTION
// =============================================================================

var javaTypeKinds = map[string]string{
	"class_declaration":     ladom.KindClass,
	"record_declaration":    ladom.KindClass,
	"interface_declaration": ladom.KindInterface,
	"enum_declaration":      ladom.KindEnum,
}

func (a *JavaAnalyzer) extractAST(ctx context.Context, src []byte, _ string) (*ladom.File, extractOutcome) {
	tree, err := parseTree(ctx, java.GetLanguage(), src)
	if err != nil {
		return nil, extractOutcome{failed: true, err: err}
	}
	defer tree.Close()
	root := tree.RootNode()

	f := &ladom.File{}
	children := namedChildren(root)
	if len(children) > 1 && strings.Contains(children[0].Type(), "comment") {
		if text := nodeText(children[0], src); strings.HasPrefix(text, "/**") {
			if next := children[1].Type(); next == "package_declaration" || next == "import_declaration" {
				f.Summary = fileCommentSummary(text)
			}
		}
	}
	for _, n := range children {
		switch n.Type() {
		case "import_declaration":
			f.Imports = append(f.Imports, javaImport(nodeText(n, src)))
		default:
			if _, ok := javaTypeKinds[n.Type()]; ok {
				f.Classes = append(f.Classes, javaType(n, "", src)...)
			}
		}
	}
	return f, treeOutcome(root)
}

func javaImport(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "import")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "static ")
	return strings.TrimSpace(strings.TrimSuffix(text, ";"))
}

// javaType converts a type declaration and returns it followed by its
// nested types, which are qualified as Outer.Inner.
func javaType(n *sitter.Node, outer string, src []byte) []ladom.Class {
	simple := fieldText(n, "name", src)
	name := simple
	if outer != "" {
		name = outer + "." + simple
	}
	c := ladom.Class{
		Name:       name,
		Kind:       javaTypeKinds[n.Type()],
		Decorators: javaAnnotations(n, src),
		Lines:      span(n),
		Source:     snippet(n, src),
	}
	var bases []string
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "superclass", "super_interfaces", "extends_interfaces":
			if h := heritage(nodeText(child, src)); h != "" {
				bases = append(bases, h)
			}
		}
	}
	c.Bases = strings.Join(bases, ", ")
	if doc := precedingDocComment(n, src); doc != "" {
		c.Documented = true
		c.Description = parseTagComment(doc).Summary
	}

	out := []ladom.Class{}
	var nested []ladom.Class
	var members func(body *sitter.Node)
	members = func(body *sitter.Node) {
		for _, m := range namedChildren(body) {
			switch m.Type() {
			case "method_declaration":
				c.Methods = append(c.Methods, javaMethod(m, fieldText(m, "name", src), false, src))
			case "constructor_declaration", "compact_constructor_declaration":
				c.Methods = append(c.Methods, javaMethod(m, simple, true, src))
			case "enum_body_declarations":
				members(m)
			default:
				if _, ok := javaTypeKinds[m.Type()]; ok {
					nested = append(nested, javaType(m, name, src)...)
				}
			}
		}
	}
	members(n.ChildByFieldName("body"))
	out = append(out, c)
	return append(out, nested...)
}

func javaAnnotations(n *sitter.Node, src []byte) []string {
	var out []string
	for _, child := range namedChildren(n) {
		if child.Type() != "modifiers" {
			continue
		}
		for _, m := range namedChildren(child) {
			if m.Type() == "annotation" || m.Type() == "marker_annotation" {
				out = append(out, strings.TrimSpace(nodeText(m, src)))
			}
		}
	}
	return out
}

func javaMethod(n *sitter.Node, name string, constructor bool, src []byte) ladom.Function {
	fn := ladom.Function{
		Name:        name,
		Parameters:  javaParameters(n.ChildByFieldName("parameters"), src),
		Decorators:  javaAnnotations(n, src),
		Constructor: constructor,
		Lines:       span(n),
		Source:      snippet(n, src),
	}
	if !constructor {
		fn.Returns.Type = fieldText(n, "type", src)
	}
	for _, child := range namedChildren(n) {
		if child.Type() != "throws" {
			continue
		}
		for _, t := range namedChildren(child) {
			fn.Throws = append(fn.Throws, nodeText(t, src))
		}
	}

	var sig strings.Builder
	if fn.Returns.Type != "" {
		sig.WriteString(fn.Returns.Type + " ")
	}
	sig.WriteString(name)
	if params := n.ChildByFieldName("parameters"); params != nil {
		sig.WriteString(nodeText(params, src))
	} else {
		sig.WriteString("()")
	}
	if len(fn.Throws) > 0 {
		sig.WriteString(" throws " + strings.Join(fn.Throws, ", "))
	}
	fn.Signature = strings.Join(strings.Fields(sig.String()), " ")

	if doc := precedingDocComment(n, src); doc != "" {
		fn.Documented = true
		parseTagComment(doc).ApplyTo(&fn)
	}
	return fn
}

func javaParameters(n *sitter.Node, src []byte) []ladom.Parameter {
	params := []ladom.Parameter{}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "formal_parameter":
			typ := fieldText(c, "type", src)
			if dims := fieldText(c, "dimensions", src); dims != "" {
				typ += dims
			}
			params = append(params, ladom.Parameter{Name: fieldText(c, "name", src), Type: typ})
		case "spread_parameter":
			p := ladom.Parameter{Variadic: true, Optional: true}
			for _, sc := range namedChildren(c) {
				switch sc.Type() {
				case "variable_declarator":
					p.Name = fieldText(sc, "name", src)
				case "modifiers":
				default:
					if p.Type == "" {
						p.Type = nodeText(sc, src)
					}
				}
			}
			params = append(params, p)
		}
	}
	return params
}

// =============================================================================
// PATTERN EXTRACTION
// =============================================================================

var (
	javaImportPattern = regexp.MustCompile(`(?m)^[ \t]*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`)
	javaTypePattern   = regexp.MustCompile(`(?m)^[ \t]*((?:@[\w.]+(?:\([^)]*\))?\s+)*)(?:(?:public|protected|private|abstract|static|final|sealed|non-sealed|strictfp)\s+)*(class|interface|enum|record)\s+([A-Za-z_$][\w$]*)([^{;]*)\{`)
	javaMethodPattern = regexp.MustCompile(`(?m)^[ \t]*((?:@[\w.]+(?:\([^)]*\))?\s+)*)(?:(?:public|protected|private|abstract|static|final|synchronized|native|default|strictfp)\s+)*(?:<[^>]+>\s+)?([\w$.]+(?:<[^()]*?>)?(?:\[\])*)\s+([A-Za-z_$][\w$]*)\s*\(`)
	javaCtorPattern   = regexp.MustCompile(`(?m)^[ \t]*((?:@[\w.]+(?:\([^)]*\))?\s+)*)(?:(?:public|protected|private)\s+)?([A-Z][\w$]*)\s*\(`)
	javaAnnotation    = regexp.MustCompile(`@[\w.]+(?:\([^)]*\))?`)
)

var javaStatementWords = map[string]bool{
	"return": true, "new": true, "throw": true, "else": true, "case": true,
	"yield": true, "if": true, "while": true, "for": true, "switch": true,
	"catch": true, "synchronized": true,
}

// javaModifierWords can be mistaken for a return type when a constructor
// matches the method pattern.
var javaModifierWords = map[string]bool{
	"public": true, "protected": true, "private": true, "abstract": true,
	"static": true, "final": true, "native": true, "default": true, "strictfp": true,
}

// javaPatternType is a type declaration located by pattern matching.
type javaPatternType struct {
	class      ladom.Class
	simple     string
	start, end int
	bodyStart  int
	covered    int
}

func (a *JavaAnalyzer) extractPattern(_ context.Context, src []byte, _ string) (*ladom.File, extractOutcome) {
	text := string(src)
	f := &ladom.File{}
	for _, m := range javaImportPattern.FindAllStringSubmatch(text, -1) {
		f.Imports = append(f.Imports, m[1])
	}
	if lead := strings.TrimLeft(text, " \t\r\n"); strings.HasPrefix(lead, "/**") {
		if end := strings.Index(lead, "*/"); end > 0 {
			next := strings.TrimLeft(lead[end+2:], " \t\r\n")
			if strings.HasPrefix(next, "package ") || strings.HasPrefix(next, "import ") {
				f.Summary = fileCommentSummary(lead[:end+2])
			}
		}
	}

	var types []*javaPatternType
	for _, m := range javaTypePattern.FindAllStringSubmatchIndex(text, -1) {
		open := m[1] - 1
		end := matchBrace(src, open)
		kind := ladom.KindClass
		switch text[m[4]:m[5]] {
		case "interface":
			kind = ladom.KindInterface
		case "enum":
			kind = ladom.KindEnum
		}
		t := &javaPatternType{
			simple:    text[m[6]:m[7]],
			start:     m[0],
			end:       end,
			bodyStart: open + 1,
			class: ladom.Class{
				Kind:       kind,
				Bases:      javaPatternBases(text[m[8]:m[9]]),
				Decorators: javaAnnotation.FindAllString(text[m[2]:m[3]], -1),
				Lines:      ladom.LineSpan{Start: lineAt(src, m[0]), End: lineAt(src, max(end-1, m[0]))},
				Source:     boundSnippet(text[m[0]:end]),
			},
		}
		if doc := blockComment(src, m[0]); doc != "" {
			t.class.Documented = true
			t.class.Description = parseTagComment(doc).Summary
		}
		types = append(types, t)
	}
	// Qualify nested type names by their innermost enclosing type.
	for i, t := range types {
		t.class.Name = t.simple
		for j := i - 1; j >= 0; j-- {
			if p := types[j]; t.start > p.bodyStart && t.end <= p.end {
				t.class.Name = p.class.Name + "." + t.simple
				break
			}
		}
	}

	owner := func(off int) int {
		for i := len(types) - 1; i >= 0; i-- {
			if off > types[i].bodyStart && off < types[i].end {
				return i
			}
		}
		return -1
	}

	type found struct {
		start int
		owner int
		fn    ladom.Function
		end   int
	}
	var members []found
	for _, m := range javaMethodPattern.FindAllStringSubmatchIndex(text, -1) {
		ret := text[m[4]:m[5]]
		name := text[m[6]:m[7]]
		if javaStatementWords[ret] || javaStatementWords[name] || javaModifierWords[ret] {
			continue
		}
		o := owner(m[0])
		if o < 0 {
			continue
		}
		fn, end, ok := a.patternMethod(src, m, name, false)
		if !ok {
			continue
		}
		fn.Returns.Type = ret
		fn.Signature = ret + " " + fn.Signature
		members = append(members, found{start: m[0], owner: o, fn: fn, end: end})
	}
	for _, m := range javaCtorPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[4]:m[5]]
		o := owner(m[0])
		if o < 0 || types[o].simple != name {
			continue
		}
		fn, end, ok := a.patternMethod(src, m, name, true)
		if !ok {
			continue
		}
		members = append(members, found{start: m[0], owner: o, fn: fn, end: end})
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].start < members[j].start })
	for _, mb := range members {
		t := types[mb.owner]
		if mb.start < t.covered {
			continue
		}
		t.covered = mb.end
		t.class.Methods = append(t.class.Methods, mb.fn)
	}

	for _, t := range types {
		f.Classes = append(f.Classes, t.class)
	}
	return f, extractOutcome{}
}

// patternMethod parses the parameter list and body of a method match whose
// last character is the opening parenthesis.
func (a *JavaAnalyzer) patternMethod(src []byte, m []int, name string, constructor bool) (ladom.Function, int, bool) {
	lparen := m[1] - 1
	rparen := matchParen(src, lparen)
	if rparen < 0 {
		return ladom.Function{}, 0, false
	}
	rest := string(src[rparen:])
	stop := strings.IndexAny(rest, "{;=")
	if stop < 0 || rest[stop] == '=' {
		return ladom.Function{}, 0, false
	}
	between := strings.TrimSpace(rest[:stop])
	fn := ladom.Function{
		Name:        name,
		Parameters:  javaPatternParams(string(src[lparen+1 : rparen-1])),
		Constructor: constructor,
		Decorators:  javaAnnotation.FindAllString(string(src[m[2]:m[3]]), -1),
	}
	if strings.HasPrefix(between, "throws") {
		fn.Throws = splitTopLevel(strings.TrimPrefix(between, "throws"), ',')
	} else if between != "" {
		return ladom.Function{}, 0, false
	}
	end := rparen + stop + 1
	if rest[stop] == '{' {
		end = matchBrace(src, rparen+stop)
	}
	fn.Signature = strings.Join(strings.Fields(name+string(src[lparen:rparen])), " ")
	if len(fn.Throws) > 0 {
		fn.Signature += " throws " + strings.Join(fn.Throws, ", ")
	}
	fn.Lines = ladom.LineSpan{Start: lineAt(src, m[0]), End: lineAt(src, max(end-1, m[0]))}
	fn.Source = boundSnippet(string(src[m[0]:end]))
	if doc := blockComment(src, m[0]); doc != "" {
		fn.Documented = true
		parseTagComment(doc).ApplyTo(&fn)
	}
	return fn, end, true
}

// javaPatternBases extracts supertypes from the text between a type name
// and its body. Type parameters and record components are skipped, and a
// permits clause is not a supertype.
func javaPatternBases(text string) string {
	text = strings.TrimSpace(text)
	for len(text) > 0 && (text[0] == '<' || text[0] == '(') {
		closer := byte('>')
		if text[0] == '(' {
			closer = ')'
		}
		depth, cut := 0, len(text)
		for i := 0; i < len(text); i++ {
			if text[i] == text[0] {
				depth++
			} else if text[i] == closer {
				depth--
				if depth == 0 {
					cut = i + 1
					break
				}
			}
		}
		text = strings.TrimSpace(text[cut:])
	}
	if i := strings.Index(text, "permits"); i >= 0 {
		text = text[:i]
	}
	return heritage(" " + text)
}

func javaPatternParams(list string) []ladom.Parameter {
	params := []ladom.Parameter{}
	for _, part := range splitTopLevel(list, ',') {
		part = javaAnnotation.ReplaceAllString(part, "")
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "final "))
		idx := strings.LastIndexAny(part, " \t")
		if idx < 0 {
			continue
		}
		p := ladom.Parameter{Name: strings.TrimSpace(part[idx+1:]), Type: strings.TrimSpace(part[:idx])}
		if strings.HasSuffix(p.Type, "...") {
			p.Type = strings.TrimSuffix(p.Type, "...")
			p.Variadic = true
			p.Optional = true
		}
		params = append(params, p)
	}
	return params
}
