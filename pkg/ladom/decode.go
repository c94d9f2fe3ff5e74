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
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type rawDocument struct {
	ProjectName json.RawMessage   `json:"project_name"`
	Files       []json.RawMessage `json:"files"`
}

type rawFile struct {
	Path       string            `json:"path"`
	Language   string            `json:"language"`
	Summary    string            `json:"summary"`
	Extraction string            `json:"extraction"`
	Imports    []string          `json:"imports"`
	Functions  []json.RawMessage `json:"functions"`
	Classes    []json.RawMessage `json:"classes"`
}

type rawClass struct {
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Description string            `json:"description"`
	Bases       string            `json:"bases"`
	Decorators  []string          `json:"decorators"`
	Methods     []json.RawMessage `json:"methods"`
	Documented  bool              `json:"documented"`
	Lines       LineSpan          `json:"lines"`
	FilePath    string            `json:"file_path"`
	Language    string            `json:"language"`
}

// Decode parses a JSON document entry by entry. Entries whose shape does not
// match the model are skipped and reported. The returned report also carries
// the findings of Check on the decoded result. An error is returned only when
// data is not a JSON object.
func Decode(data []byte) (*Document, Report, error) {
	var r Report
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, r, fmt.Errorf("decode LADOM: %w", err)
	}

	doc := &Document{}
	if len(raw.ProjectName) > 0 {
		if err := json.Unmarshal(raw.ProjectName, &doc.ProjectName); err != nil {
			r.add(Issue{Where: "project_name", Message: "project name is not a string", Fatal: true})
		}
	}
	if raw.Files != nil {
		doc.Files = make([]File, 0, len(raw.Files))
	}
	for i, rf := range raw.Files {
		where := fmt.Sprintf("files[%d]", i)
		f, ok := decodeFile(rf, where, &r)
		if ok {
			doc.Files = append(doc.Files, f)
		}
	}

	check := Check(doc)
	r.Issues = append(r.Issues, check.Issues...)
	return doc, r, nil
}

// DecodeYAML accepts the YAML rendering of a document.
func DecodeYAML(data []byte) (*Document, Report, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, Report{}, fmt.Errorf("decode LADOM yaml: %w", err)
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, Report{}, fmt.Errorf("decode LADOM yaml: %w", err)
	}
	return Decode(js)
}

func decodeFile(data json.RawMessage, where string, r *Report) (File, bool) {
	var rf rawFile
	if err := json.Unmarshal(data, &rf); err != nil {
		r.add(Issue{Where: where, Message: "malformed file entry: " + err.Error(), Dropped: true})
		return File{}, false
	}
	f := File{
		Path:       rf.Path,
		Language:   rf.Language,
		Summary:    rf.Summary,
		Extraction: rf.Extraction,
		Imports:    rf.Imports,
	}
	if rf.Functions != nil {
		f.Functions = make([]Function, 0, len(rf.Functions))
	}
	for j, raw := range rf.Functions {
		var fn Function
		if err := json.Unmarshal(raw, &fn); err != nil {
			r.add(Issue{
				Where:   fmt.Sprintf("%s.functions[%d]", where, j),
				File:    rf.Path,
				Message: "malformed function: " + err.Error(),
				Dropped: true,
			})
			continue
		}
		f.Functions = append(f.Functions, fn)
	}
	if rf.Classes != nil {
		f.Classes = make([]Class, 0, len(rf.Classes))
	}
	for j, raw := range rf.Classes {
		cw := fmt.Sprintf("%s.classes[%d]", where, j)
		var rc rawClass
		if err := json.Unmarshal(raw, &rc); err != nil {
			r.add(Issue{Where: cw, File: rf.Path, Message: "malformed class: " + err.Error(), Dropped: true})
			continue
		}
		c := Class{
			Name:        rc.Name,
			Kind:        rc.Kind,
			Description: rc.Description,
			Bases:       rc.Bases,
			Decorators:  rc.Decorators,
			Documented:  rc.Documented,
			Lines:       rc.Lines,
			FilePath:    rc.FilePath,
			Language:    rc.Language,
		}
		if rc.Methods != nil {
			c.Methods = make([]Function, 0, len(rc.Methods))
		}
		for k, rm := range rc.Methods {
			var m Function
			if err := json.Unmarshal(rm, &m); err != nil {
				r.add(Issue{
					Where:   fmt.Sprintf("%s.methods[%d]", cw, k),
					File:    rf.Path,
					Message: "malformed method: " + err.Error(),
					Dropped: true,
				})
				continue
			}
			c.Methods = append(c.Methods, m)
		}
		f.Classes = append(f.Classes, c)
	}
	return f, true
}
