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

// Package ladom defines the language-agnostic document object model produced
// by the repofacts analyzers.
//
// A Document holds one File per analyzed source file. Each File carries its
// top-level functions and classes in declaration order, plus the module
// specifiers it imports. The same model is used for Python, JavaScript,
// TypeScript and Java sources so that downstream fact extraction never has to
// know which grammar produced a symbol.
//
// # Validation
//
// Check inspects a document without modifying it and returns a Report:
//
//	report := ladom.Check(doc)
//	for _, issue := range report.Issues {
//	    fmt.Println(issue)
//	}
//
// Validate runs the same checks, logs every issue and drops nested entries
// that failed them. Only a missing project name or a nil file list makes the
// whole document invalid:
//
//	if !ladom.Validate(doc, logger) {
//	    return ladom.ErrInvalidDocument
//	}
//
// # Normalization
//
// Normalize returns a copy of the document in which every optional field holds
// either its real value or a fixed default, so consumers never branch on
// absence. Normalize is idempotent:
//
//	n := ladom.Normalize(doc)
//	reflect.DeepEqual(ladom.Normalize(n), n) // true
//
// # Decoding
//
// Decode reads a serialized document one entry at a time. Entries with the
// wrong shape are reported and skipped instead of failing the whole decode.
package ladom
