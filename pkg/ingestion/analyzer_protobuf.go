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
	"log/slog"
	"regexp"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// =============================================================================
// PROTOBUF ANALYZER (line scanner, no tree-sitter grammar)
// =============================================================================

// ProtobufAnalyzer extracts gRPC services from .proto files. Services
// become classes of kind "service" and each rpc becomes a method.
type ProtobufAnalyzer struct {
	baseAnalyzer
}

// NewProtobufAnalyzer creates a protobuf analyzer. It always runs in
// pattern mode.
func NewProtobufAnalyzer(logger *slog.Logger) *ProtobufAnalyzer {
	return &ProtobufAnalyzer{baseAnalyzer: newBase(ladom.LanguageProtobuf, []string{".proto"}, ParserModeSimplified, logger)}
}

// Analyze implements Analyzer.
func (a *ProtobufAnalyzer) Analyze(ctx context.Context, file FileInfo) (*ladom.File, error) {
	return a.run(ctx, file, nil, a.extractPattern)
}

var (
	protoImport = regexp.MustCompile(`^import\s+(?:public\s+|weak\s+)?"([^"]+)"\s*;`)
	protoRPC    = regexp.MustCompile(`^rpc\s+(\w+)\s*\(\s*(stream\s+)?([\w.]+)\s*\)\s*returns\s*\(\s*(stream\s+)?([\w.]+)\s*\)`)
)

func (a *ProtobufAnalyzer) extractPattern(_ context.Context, src []byte, _ string) (*ladom.File, extractOutcome) {
	f := &ladom.File{}
	lines := strings.Split(string(src), "\n")

	var comment []string
	var current *ladom.Class
	serviceEnd := 0

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "//") {
			comment = append(comment, strings.TrimSpace(strings.TrimPrefix(trimmed, "//")))
			continue
		}

		switch {
		case current == nil && strings.HasPrefix(trimmed, "import "):
			if m := protoImport.FindStringSubmatch(trimmed); m != nil {
				f.Imports = append(f.Imports, m[1])
			}

		// service ServiceName {
		case current == nil && strings.HasPrefix(trimmed, "service ") && strings.Contains(trimmed, "{"):
			parts := strings.Fields(trimmed)
			if len(parts) < 2 {
				break
			}
			serviceEnd = findProtobufBlockEnd(lines, i)
			current = &ladom.Class{
				Name:   strings.TrimSuffix(parts[1], "{"),
				Kind:   ladom.KindService,
				Lines:  ladom.LineSpan{Start: lineNum, End: serviceEnd},
				Source: boundSnippet(strings.Join(lines[i:serviceEnd], "\n")),
			}
			if len(comment) > 0 {
				current.Description = strings.Join(comment, " ")
				current.Documented = true
			}

		case current != nil && strings.HasPrefix(trimmed, "rpc "):
			if fn, ok := protoMethod(trimmed, lineNum, lines, i); ok {
				if len(comment) > 0 {
					fn.Description = strings.Join(comment, " ")
					fn.Documented = true
				}
				current.Methods = append(current.Methods, fn)
			}
		}
		comment = nil

		if current != nil && lineNum >= serviceEnd {
			f.Classes = append(f.Classes, *current)
			current = nil
		}
	}
	if current != nil {
		f.Classes = append(f.Classes, *current)
	}
	return f, extractOutcome{}
}

// protoMethod converts an rpc line. The request message is the single
// parameter and the response message the return type.
func protoMethod(trimmed string, lineNum int, lines []string, idx int) (ladom.Function, bool) {
	m := protoRPC.FindStringSubmatch(trimmed)
	if m == nil {
		return ladom.Function{}, false
	}
	_, signature := extractRPCSignature(trimmed)
	end := lineNum
	if strings.Contains(trimmed, "{") && !strings.Contains(trimmed, "}") {
		end = findProtobufBlockEnd(lines, idx)
	}
	reqType := m[3]
	if m[2] != "" {
		reqType = "stream " + reqType
	}
	respType := m[5]
	if m[4] != "" {
		respType = "stream " + respType
	}
	return ladom.Function{
		Name:       m[1],
		Signature:  signature,
		Parameters: []ladom.Parameter{{Name: "request", Type: reqType, Variadic: m[2] != ""}},
		Returns:    ladom.Returns{Type: respType},
		Generator:  m[4] != "",
		Lines:      ladom.LineSpan{Start: lineNum, End: end},
		Source:     strings.Join(lines[idx:end], "\n"),
	}, true
}

// extractRPCSignature extracts the RPC name and full signature from a proto rpc line.
func extractRPCSignature(line string) (name, signature string) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "rpc ")
	parenIdx := strings.Index(trimmed, "(")
	if parenIdx == -1 {
		return "", ""
	}

	name = strings.TrimSpace(trimmed[:parenIdx])

	semiIdx := strings.Index(trimmed, ";")
	braceIdx := strings.Index(trimmed, "{")

	endIdx := len(trimmed)
	if semiIdx >= 0 && (braceIdx < 0 || semiIdx < braceIdx) {
		endIdx = semiIdx
	} else if braceIdx >= 0 {
		endIdx = braceIdx
	}

	signature = "rpc " + strings.TrimSpace(trimmed[:endIdx])
	return name, signature
}

// findProtobufBlockEnd returns the 1-based line where the block opened at
// lines[startIdx] closes.
func findProtobufBlockEnd(lines []string, startIdx int) int {
	braceCount := 0
	started := false

	for i := startIdx; i < len(lines); i++ {
		line := lines[i]
		braceCount += strings.Count(line, "{") - strings.Count(line, "}")
		if !started && strings.Contains(line, "{") {
			started = true
		}
		if started && braceCount == 0 {
			return i + 1
		}
	}

	return len(lines)
}
