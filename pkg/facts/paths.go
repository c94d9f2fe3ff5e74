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

package facts

import (
	"path"
	"path/filepath"
	"strings"
)

// Display names for detected languages.
const (
	LangPython     = "Python"
	LangJavaScript = "JavaScript"
	LangTypeScript = "TypeScript"
	LangJava       = "Java"
	LangGo         = "Go"
	LangRust       = "Rust"
	LangRuby       = "Ruby"
	LangPHP        = "PHP"
)

var languageByExt = map[string]string{
	".py":   LangPython,
	".pyw":  LangPython,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTypeScript,
	".mts":  LangTypeScript,
	".cts":  LangTypeScript,
	".java": LangJava,
	".go":   LangGo,
	".rs":   LangRust,
	".rb":   LangRuby,
	".php":  LangPHP,
}

// languageOf returns the display language for a file path, or "" for
// non-code files such as .proto or .tf.
func languageOf(p string) string {
	return languageByExt[strings.ToLower(path.Ext(p))]
}

// normalizePath converts p to a root-relative forward-slash path without a
// leading "./". Absolute paths outside root are returned cleaned but
// otherwise untouched.
func normalizePath(root, p string) string {
	if p == "" {
		return p
	}
	if root != "" && filepath.IsAbs(p) {
		if absRoot, err := filepath.Abs(root); err == nil {
			if rel, err := filepath.Rel(absRoot, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				p = rel
			}
		}
	}
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// dirSegments returns every directory name along p's parent chain.
func dirSegments(p string) []string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && seg != "." {
			out = append(out, seg)
		}
	}
	return out
}
