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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// maxSourceSnippet bounds Function.Source so prompts stay small.
const maxSourceSnippet = 4000

// parseTree parses content with a fresh parser. Parsers are not safe for
// concurrent use, so every call gets its own. The caller must Close the tree.
func parseTree(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter parse: no tree")
	}
	return tree, nil
}

// countErrors counts ERROR and MISSING nodes below n.
func countErrors(n *sitter.Node) int {
	if n == nil || !n.HasError() {
		return 0
	}
	count := 0
	if n.Type() == "ERROR" || n.IsMissing() {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

// treeOutcome turns a parsed root into an extractOutcome.
func treeOutcome(root *sitter.Node) extractOutcome {
	if root == nil {
		return extractOutcome{failed: true, err: fmt.Errorf("empty tree")}
	}
	if !root.HasError() {
		return extractOutcome{}
	}
	n := countErrors(root)
	if n == 0 {
		n = 1
	}
	return extractOutcome{failed: true, errors: n}
}

func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	if n == nil {
		return ""
	}
	return nodeText(n.ChildByFieldName(field), src)
}

// span converts the node's 0-based rows to a 1-based line span.
func span(n *sitter.Node) ladom.LineSpan {
	return ladom.LineSpan{
		Start: int(n.StartPoint().Row) + 1,
		End:   int(n.EndPoint().Row) + 1,
	}
}

// snippet returns the node text, bounded by maxSourceSnippet.
func snippet(n *sitter.Node, src []byte) string {
	text := nodeText(n, src)
	if len(text) > maxSourceSnippet {
		text = text[:maxSourceSnippet]
	}
	return text
}

// hasChildType reports whether n has a direct child of the given type,
// named or anonymous.
func hasChildType(n *sitter.Node, typ string) bool {
	if n == nil {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return true
		}
	}
	return false
}

// namedChildren returns the named children of n.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// containsType reports whether any descendant of n has type typ, without
// descending into nodes whose type is in stop.
func containsType(n *sitter.Node, typ string, stop map[string]bool) bool {
	if n == nil {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if c.Type() == typ {
			return true
		}
		if stop[c.Type()] {
			continue
		}
		if containsType(c, typ, stop) {
			return true
		}
	}
	return false
}

// precedingDocComment returns the text of the block comment directly above
// n when it starts with "/**". Blank lines between comment and node are
// allowed, other code is not.
func precedingDocComment(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	prev := n.PrevSibling()
	for prev != nil && prev.Type() == "decorator" {
		prev = prev.PrevSibling()
	}
	if prev == nil || !strings.Contains(prev.Type(), "comment") {
		return ""
	}
	text := nodeText(prev, src)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	if int(n.StartPoint().Row)-int(prev.EndPoint().Row) > 2 {
		return ""
	}
	return text
}

// typeAnnotation strips the leading colon of a type_annotation node.
func typeAnnotation(n *sitter.Node, src []byte) string {
	t := strings.TrimSpace(nodeText(n, src))
	t = strings.TrimPrefix(t, ":")
	t = strings.TrimPrefix(t, "=>")
	return strings.TrimSpace(t)
}

// stringLiteral strips quotes from a string node's text.
func stringLiteral(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 {
		q := text[0]
		if (q == '"' || q == '\'' || q == '`') && text[len(text)-1] == q {
			return text[1 : len(text)-1]
		}
	}
	return text
}
