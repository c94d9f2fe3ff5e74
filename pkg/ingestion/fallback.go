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
	"bytes"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// =============================================================================
// PATTERN FALLBACK HELPERS
// =============================================================================

// lineAt returns the 1-based line number of byte offset off.
func lineAt(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return bytes.Count(src[:off], []byte{'\n'}) + 1
}

// matchBrace returns the offset just past the brace that closes the one at
// open. String literals and comments are skipped. When the braces never
// balance, len(src) is returned.
func matchBrace(src []byte, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"', '\'', '`':
			i = skipString(src, i, c)
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				end := bytes.Index(src[i+2:], []byte("*/"))
				if end < 0 {
					return len(src)
				}
				i += end + 3
			}
		}
	}
	return len(src)
}

// skipString returns the offset of the quote that terminates the literal
// opened at start.
func skipString(src []byte, start int, quote byte) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			if quote != '`' {
				return i
			}
		}
	}
	return len(src)
}

// matchParen returns the offset just past the parenthesis closing the one at
// open, or -1 when it is never closed.
func matchParen(src []byte, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"', '\'', '`':
			i = skipString(src, i, c)
		}
	}
	return -1
}

// splitTopLevel splits s on sep, ignoring separators nested in brackets,
// braces, parentheses, generics or strings.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 && !(c == '>' && i > 0 && s[i-1] == '=') {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// cutTopLevel splits s at the first top-level occurrence of sep.
func cutTopLevel(s string, sep byte) (before, after string, found bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return strings.TrimSpace(s), "", false
}

// parseCStyleParam parses one JavaScript or TypeScript parameter written as
// text: "...rest", "name?: T = value", "{ a, b }", "[x, y]: T".
func parseCStyleParam(text string) ladom.Parameter {
	text = strings.TrimSpace(text)
	for _, mod := range []string{"public ", "private ", "protected ", "readonly "} {
		text = strings.TrimSpace(strings.TrimPrefix(text, mod))
	}
	var p ladom.Parameter
	if strings.HasPrefix(text, "...") {
		p.Variadic = true
		p.Optional = true
		text = strings.TrimSpace(text[3:])
	}
	left, def, hasDef := cutTopLevel(text, '=')
	if hasDef {
		p.Default = def
		p.Optional = true
	}
	name, typ, _ := cutTopLevel(left, ':')
	p.Type = typ
	if strings.HasSuffix(name, "?") {
		p.Optional = true
		name = strings.TrimSuffix(name, "?")
	}
	switch {
	case strings.HasPrefix(name, "{"):
		name = "{...}"
	case strings.HasPrefix(name, "["):
		name = "[...]"
	}
	p.Name = name
	return p
}

// parseCStyleParams parses a parenthesized parameter list without the
// parentheses.
func parseCStyleParams(list string) []ladom.Parameter {
	parts := splitTopLevel(list, ',')
	params := make([]ladom.Parameter, 0, len(parts))
	for _, part := range parts {
		p := parseCStyleParam(part)
		if p.Name == "" || p.Name == "this" {
			continue
		}
		params = append(params, p)
	}
	return params
}

// blockComment returns the /** ... */ comment that ends right before off,
// separated only by whitespace and annotation or decorator lines.
func blockComment(src []byte, off int) string {
	head := src[:off]
	trimmed := bytes.TrimRight(head, " \t\r\n")
	for {
		lineStart := bytes.LastIndexByte(trimmed, '\n') + 1
		line := bytes.TrimSpace(trimmed[lineStart:])
		if len(line) > 0 && line[0] == '@' {
			trimmed = bytes.TrimRight(trimmed[:lineStart], " \t\r\n")
			continue
		}
		break
	}
	if !bytes.HasSuffix(trimmed, []byte("*/")) {
		return ""
	}
	start := bytes.LastIndex(trimmed, []byte("/**"))
	if start < 0 {
		return ""
	}
	return string(trimmed[start:])
}
