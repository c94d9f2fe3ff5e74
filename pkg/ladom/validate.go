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

package ladom

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidDocument is returned when a document lacks its project name or
// file list. Nothing downstream can use such a document.
var ErrInvalidDocument = errors.New("invalid LADOM document")

// Issue is a single validation finding.
type Issue struct {
	// Where locates the entry, e.g. "files[3].classes[0].methods[1]".
	Where   string `json:"where"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
	// Fatal issues invalidate the whole document.
	Fatal bool `json:"fatal"`
	// Dropped is set when Validate removes the offending entry.
	Dropped bool `json:"dropped"`
}

func (i Issue) String() string {
	if i.File != "" {
		return fmt.Sprintf("%s (%s): %s", i.Where, i.File, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Where, i.Message)
}

// Report collects the issues found in one document.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Valid reports whether no fatal issue was found.
func (r Report) Valid() bool {
	for _, is := range r.Issues {
		if is.Fatal {
			return false
		}
	}
	return true
}

// Dropped returns how many entries were (or would be) removed.
func (r Report) Dropped() int {
	n := 0
	for _, is := range r.Issues {
		if is.Dropped {
			n++
		}
	}
	return n
}

func (r *Report) add(is Issue) {
	r.Issues = append(r.Issues, is)
}

// Check inspects doc and reports every problem without modifying it.
func Check(doc *Document) Report {
	var r Report
	inspect(doc, &r, false)
	return r
}

// Validate checks doc, logs each issue and removes malformed files,
// functions, classes and methods in place. It returns false only when the
// document itself is unusable.
func Validate(doc *Document, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	var r Report
	inspect(doc, &r, true)
	for _, is := range r.Issues {
		if is.Fatal {
			logger.Error("ladom.validate.fatal", "where", is.Where, "msg", is.Message)
			continue
		}
		logger.Warn("ladom.validate.issue",
			"where", is.Where,
			"file", is.File,
			"msg", is.Message,
			"dropped", is.Dropped,
		)
	}
	if r.Valid() {
		logger.Debug("ladom.validate.ok", "files", len(doc.Files), "dropped", r.Dropped())
	}
	return r.Valid()
}

func inspect(doc *Document, r *Report, prune bool) {
	if doc == nil {
		r.add(Issue{Where: "document", Message: "document is nil", Fatal: true})
		return
	}
	if doc.ProjectName == "" {
		r.add(Issue{Where: "project_name", Message: "missing project name", Fatal: true})
	}
	if doc.Files == nil {
		r.add(Issue{Where: "files", Message: "missing file list", Fatal: true})
		return
	}

	seen := make(map[string]bool, len(doc.Files))
	kept := doc.Files[:0:0]
	for i := range doc.Files {
		f := &doc.Files[i]
		where := fmt.Sprintf("files[%d]", i)
		switch {
		case f.Path == "":
			r.add(Issue{Where: where, Message: "file has no path", Dropped: true})
			continue
		case seen[f.Path]:
			r.add(Issue{Where: where, File: f.Path, Message: "duplicate file path", Dropped: true})
			continue
		}
		seen[f.Path] = true

		fns := f.Functions[:0:0]
		for j := range f.Functions {
			if inspectFunction(&f.Functions[j], fmt.Sprintf("%s.functions[%d]", where, j), f.Path, r) {
				fns = append(fns, f.Functions[j])
			}
		}
		classes := f.Classes[:0:0]
		for j := range f.Classes {
			if inspectClass(&f.Classes[j], fmt.Sprintf("%s.classes[%d]", where, j), f.Path, r, prune) {
				classes = append(classes, f.Classes[j])
			}
		}
		if prune {
			f.Functions = keepNil(f.Functions, fns)
			f.Classes = keepNil(f.Classes, classes)
		}
		kept = append(kept, *f)
	}
	if prune {
		doc.Files = kept
	}
}

// keepNil preserves a nil slice so that pruning never turns absent into empty.
func keepNil[T any](orig, pruned []T) []T {
	if orig == nil {
		return nil
	}
	return pruned
}

func inspectFunction(fn *Function, where, path string, r *Report) bool {
	if fn.Name == "" {
		r.add(Issue{Where: where, File: path, Message: "function has no name", Dropped: true})
		return false
	}
	for k, p := range fn.Parameters {
		if p.Name == "" {
			r.add(Issue{
				Where:   fmt.Sprintf("%s.parameters[%d]", where, k),
				File:    path,
				Message: fmt.Sprintf("parameter of %s has no name", fn.Name),
				Dropped: true,
			})
			return false
		}
	}
	if fn.Lines.Start > 0 && fn.Lines.End < fn.Lines.Start {
		r.add(Issue{Where: where, File: path, Message: fmt.Sprintf("%s has an inverted line span", fn.Name)})
	}
	return true
}

func inspectClass(c *Class, where, path string, r *Report, prune bool) bool {
	if c.Name == "" {
		r.add(Issue{Where: where, File: path, Message: "class has no name", Dropped: true})
		return false
	}
	methods := c.Methods[:0:0]
	for k := range c.Methods {
		if inspectFunction(&c.Methods[k], fmt.Sprintf("%s.methods[%d]", where, k), path, r) {
			methods = append(methods, c.Methods[k])
		}
	}
	if prune {
		c.Methods = keepNil(c.Methods, methods)
	}
	return true
}
