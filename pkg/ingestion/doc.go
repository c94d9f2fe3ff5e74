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


// Package ingestion converts a source repository into a LADOM document.
//
// # Pipeline Overview
//
// The pipeline processes a repository in four stages:
//
//  1. Discovery: walk the local tree, honoring default excludes, extra
//     gitignore-style patterns, the root .gitignore and a size limit
//  2. Analysis: each supported file goes through its language Analyzer
//  3. Description (optional): undocumented symbols are described by an LLM
//  4. Assembly: files are sorted, validated and normalized
//
// # Supported Languages
//
// Tree-sitter parsing with a pattern-matching fallback:
//   - Python (.py, .pyw)
//   - JavaScript (.js, .jsx, .mjs, .cjs)
//   - TypeScript (.ts, .tsx, .mts, .cts)
//   - Java (.java)
//
// Line scanners only:
//   - Protocol Buffers (.proto): services and rpcs
//   - Terraform, Vue and GraphQL: summary and imports
//
// # Parser Modes
//
// "treesitter" keeps whatever a tree with syntax errors yields; "simplified"
// uses pattern matching only; "auto" (default) retries a failed tree with
// pattern matching and keeps the richer result. A file where nothing is
// recovered is dropped and logged, never fatal.
//
// # Quick Start
//
//	pipeline, err := ingestion.NewPipeline(ingestion.Config{
//	    RootPath:   "/path/to/code",
//	    ParserMode: ingestion.ParserModeAuto,
//	    Workers:    8,
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Analyzed %d files, %d functions\n",
//	    result.FilesAnalyzed, result.FunctionsExtracted)
//
// # Metrics
//
// Prometheus counters and histograms are registered on first use under the
// repofacts_ prefix (files analyzed, failed and dropped, per-file and
// per-run durations).
package ingestion
