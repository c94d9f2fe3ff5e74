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
	"regexp"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// =============================================================================
// GOOGLE-STYLE DOCSTRINGS (Python)
// =============================================================================

var (
	googleSection = regexp.MustCompile(`^(Args|Arguments|Parameters|Params|Keyword Args|Returns|Return|Yields|Raises|Throws|Exceptions|Examples|Example)\s*:\s*$`)
	googleArg     = regexp.MustCompile(`^\*{0,2}([A-Za-z_][A-Za-z0-9_]*)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)
	rstParam      = regexp.MustCompile(`^:param\s+(?:([^:]+?)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)
	rstType       = regexp.MustCompile(`^:type\s+([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)
	rstReturns    = regexp.MustCompile(`^:returns?\s*:\s*(.*)$`)
	rstRType      = regexp.MustCompile(`^:rtype\s*:\s*(.*)$`)
	rstRaises     = regexp.MustCompile(`^:raises?\s+([A-Za-z_][\w.]*)\s*:\s*(.*)$`)
)

// parseGoogleDocstring parses a Python docstring in Google style. Sphinx
// field lists (":param x:") are understood too.
func parseGoogleDocstring(doc string) ladom.DocComment {
	out := ladom.DocComment{Params: map[string]string{}, ParamTypes: map[string]string{}}
	lines := strings.Split(dedent(doc), "\n")

	var summary []string
	section := ""
	sectionIndent := -1
	lastParam := ""
	var example []string
	flushExample := func() {
		if ex := strings.TrimSpace(strings.Join(example, "\n")); ex != "" {
			out.Examples = append(out.Examples, ex)
		}
		example = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if m := googleSection.FindStringSubmatch(line); m != nil && !isIndented(raw) {
			if section == "examples" {
				flushExample()
			}
			section = normalizeSection(m[1])
			sectionIndent = -1
			lastParam = ""
			continue
		}
		if section == "" {
			if m := rstParam.FindStringSubmatch(line); m != nil {
				out.Params[m[2]] = m[3]
				if m[1] != "" {
					out.ParamTypes[m[2]] = m[1]
				}
				continue
			}
			if m := rstType.FindStringSubmatch(line); m != nil {
				out.ParamTypes[m[1]] = m[2]
				continue
			}
			if m := rstReturns.FindStringSubmatch(line); m != nil {
				out.Returns.Description = m[1]
				continue
			}
			if m := rstRType.FindStringSubmatch(line); m != nil {
				out.Returns.Type = m[1]
				continue
			}
			if m := rstRaises.FindStringSubmatch(line); m != nil {
				out.Throws = append(out.Throws, m[1])
				continue
			}
			summary = append(summary, line)
			continue
		}

		switch section {
		case "args":
			if line == "" {
				continue
			}
			if sectionIndent < 0 {
				sectionIndent = indentOf(raw)
			}
			if m := googleArg.FindStringSubmatch(line); m != nil && indentOf(raw) <= sectionIndent {
				lastParam = m[1]
				out.Params[m[1]] = m[3]
				if m[2] != "" {
					typ := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[2]), ", optional"))
					out.ParamTypes[m[1]] = typ
				}
			} else if lastParam != "" {
				out.Params[lastParam] = joinText(out.Params[lastParam], line)
			}
		case "returns":
			if line == "" {
				continue
			}
			if out.Returns.IsZero() {
				if typ, desc, ok := splitTypedLine(line); ok {
					out.Returns = ladom.Returns{Type: typ, Description: desc}
				} else {
					out.Returns.Description = line
				}
			} else {
				out.Returns.Description = joinText(out.Returns.Description, line)
			}
		case "raises":
			if line == "" {
				continue
			}
			if m := googleArg.FindStringSubmatch(line); m != nil {
				out.Throws = append(out.Throws, m[1])
			} else if len(out.Throws) == 0 {
				out.Throws = append(out.Throws, strings.Fields(line)[0])
			}
		case "examples":
			if line == "" {
				flushExample()
				continue
			}
			example = append(example, strings.TrimPrefix(strings.TrimPrefix(line, ">>> "), "... "))
		}
	}
	if section == "examples" {
		flushExample()
	}
	out.Summary = collapseParagraphs(summary)
	return out
}

func normalizeSection(s string) string {
	switch s {
	case "Args", "Arguments", "Parameters", "Params", "Keyword Args":
		return "args"
	case "Returns", "Return", "Yields":
		return "returns"
	case "Raises", "Throws", "Exceptions":
		return "raises"
	}
	return "examples"
}

// splitTypedLine splits "int: the count" into type and description.
func splitTypedLine(line string) (typ, desc string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	typ = strings.TrimSpace(line[:idx])
	if strings.ContainsAny(typ, " ") && !strings.ContainsAny(typ, "[,|") {
		return "", "", false
	}
	return typ, strings.TrimSpace(line[idx+1:]), true
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// dedent removes the common leading indentation of all lines but the
// first, which in a docstring follows the opening quotes directly.
func dedent(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	minIndent := -1
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := indentOf(l); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			lines[i] = trimIndent(lines[i], minIndent)
		}
	}
	return strings.Join(lines, "\n")
}

func trimIndent(line string, n int) string {
	i := 0
	for i < len(line) && n > 0 {
		switch line[i] {
		case ' ':
			n--
		case '\t':
			n -= 4
		default:
			return line[i:]
		}
		i++
	}
	return line[i:]
}

// collapseParagraphs joins lines into paragraphs and paragraphs with a
// blank line.
func collapseParagraphs(lines []string) string {
	var paras []string
	var cur []string
	for _, l := range lines {
		if l == "" {
			if len(cur) > 0 {
				paras = append(paras, strings.Join(cur, " "))
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		paras = append(paras, strings.Join(cur, " "))
	}
	return strings.Join(paras, "\n\n")
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

// =============================================================================
// TAG-STYLE COMMENTS (JSDoc, TSDoc, Javadoc)
// =============================================================================

var (
	inlineTag   = regexp.MustCompile(`\{@(?:code|link|linkplain|literal)\s+([^}]*)\}`)
	tagBrace    = regexp.MustCompile(`^\{([^}]*)\}\s*`)
	tagParamKey = regexp.MustCompile(`^\[?([A-Za-z_$][\w$.]*)(?:=[^\]]*)?\]?`)
)

// parseTagComment parses a /** ... */ block in JSDoc or Javadoc style.
func parseTagComment(comment string) ladom.DocComment {
	out := ladom.DocComment{Params: map[string]string{}, ParamTypes: map[string]string{}}
	body := strings.TrimSpace(comment)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimSuffix(body, "*/")
	body = inlineTag.ReplaceAllString(body, "$1")

	type tag struct {
		name string
		text []string
	}
	var summary []string
	var tags []tag
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if strings.HasPrefix(line, "@") {
			name, rest, _ := strings.Cut(line[1:], " ")
			tags = append(tags, tag{name: name, text: []string{strings.TrimSpace(rest)}})
			continue
		}
		if len(tags) > 0 {
			tags[len(tags)-1].text = append(tags[len(tags)-1].text, line)
			continue
		}
		summary = append(summary, line)
	}
	out.Summary = collapseParagraphs(summary)

	for _, t := range tags {
		text := strings.TrimSpace(strings.Join(t.text, " "))
		switch t.name {
		case "param", "arg", "argument":
			typ := ""
			if m := tagBrace.FindStringSubmatch(text); m != nil {
				typ = m[1]
				text = text[len(m[0]):]
			}
			m := tagParamKey.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			name := m[1]
			desc := strings.TrimSpace(text[len(m[0]):])
			desc = strings.TrimSpace(strings.TrimPrefix(desc, "-"))
			if strings.Contains(name, ".") {
				continue
			}
			out.Params[name] = desc
			if typ != "" {
				out.ParamTypes[name] = typ
			}
		case "returns", "return":
			if m := tagBrace.FindStringSubmatch(text); m != nil {
				out.Returns.Type = m[1]
				text = text[len(m[0]):]
			}
			out.Returns.Description = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "-"))
		case "throws", "throw", "exception":
			if m := tagBrace.FindStringSubmatch(text); m != nil {
				out.Throws = append(out.Throws, m[1])
			} else if f := strings.Fields(text); len(f) > 0 {
				out.Throws = append(out.Throws, f[0])
			}
		case "example":
			lines := make([]string, 0, len(t.text))
			for _, l := range t.text {
				if l != "" {
					lines = append(lines, l)
				}
			}
			if ex := strings.Join(lines, "\n"); ex != "" {
				out.Examples = append(out.Examples, ex)
			}
		}
	}
	return out
}

var fileTag = regexp.MustCompile(`@(?:file|fileoverview)[ \t]+([^\n]*)`)

// fileCommentSummary returns the summary of a file-level comment. When the
// description sits on the @file or @fileoverview tag, the tag text is used.
func fileCommentSummary(comment string) string {
	if s := parseTagComment(comment).Summary; s != "" {
		return s
	}
	if m := fileTag.FindStringSubmatch(comment); m != nil {
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "*/"))
	}
	return ""
}
