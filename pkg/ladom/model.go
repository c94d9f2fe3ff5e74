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
	"path/filepath"
	"strings"
)

// Language tags used in File.Language, Function.Language and Class.Language.
const (
	LanguagePython     = "python"
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguageJava       = "java"
	LanguageProtobuf   = "protobuf"
	LanguageTerraform  = "terraform"
	LanguageVue        = "vue"
	LanguageGraphQL    = "graphql"
)

// Extraction strategies recorded on File.Extraction.
const (
	ExtractionAST     = "ast"
	ExtractionPattern = "pattern"
)

// Class kinds.
const (
	KindClass     = "class"
	KindInterface = "interface"
	KindEnum      = "enum"
	KindService   = "service"
)

// Parameter is one formal parameter of a function or method.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description" yaml:"description"`
	Optional    bool   `json:"optional" yaml:"optional"`
	Variadic    bool   `json:"variadic" yaml:"variadic"`
}

// Returns describes the value a function produces. Both fields empty means
// nothing is known about the return value.
type Returns struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// IsZero reports whether neither type nor description is known.
func (r Returns) IsZero() bool {
	return r.Type == "" && r.Description == ""
}

// LineSpan is a 1-based inclusive source line range.
type LineSpan struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns End-Start, or 0 for an unset or inverted span.
func (l LineSpan) Len() int {
	if l.Start <= 0 || l.End < l.Start {
		return 0
	}
	return l.End - l.Start
}

// Function is a top-level function or a method nested in a Class.
type Function struct {
	Name        string      `json:"name" yaml:"name"`
	Signature   string      `json:"signature" yaml:"signature"`
	Description string      `json:"description" yaml:"description"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
	Returns     Returns     `json:"returns" yaml:"returns"`
	Throws      []string    `json:"throws" yaml:"throws"`
	Examples    []string    `json:"examples" yaml:"examples"`
	Decorators  []string    `json:"decorators" yaml:"decorators"`
	Async       bool        `json:"async" yaml:"async"`
	Generator   bool        `json:"generator" yaml:"generator"`
	Arrow       bool        `json:"arrow" yaml:"arrow"`
	Constructor bool        `json:"constructor" yaml:"constructor"`
	Documented  bool        `json:"documented" yaml:"documented"`
	Lines       LineSpan    `json:"lines" yaml:"lines"`
	FilePath    string      `json:"file_path" yaml:"file_path"`
	Language    string      `json:"language" yaml:"language"`

	// Source is the declaration text, kept for description prompts only.
	Source string `json:"-" yaml:"-"`
}

// Class is a class, interface, enum or protobuf service.
type Class struct {
	Name        string     `json:"name" yaml:"name"`
	Kind        string     `json:"kind" yaml:"kind"`
	Description string     `json:"description" yaml:"description"`
	Bases       string     `json:"bases,omitempty" yaml:"bases,omitempty"`
	Decorators  []string   `json:"decorators" yaml:"decorators"`
	Methods     []Function `json:"methods" yaml:"methods"`
	Documented  bool       `json:"documented" yaml:"documented"`
	Lines       LineSpan   `json:"lines" yaml:"lines"`
	FilePath    string     `json:"file_path" yaml:"file_path"`
	Language    string     `json:"language" yaml:"language"`

	Source string `json:"-" yaml:"-"`
}

// File is the LADOM unit: one analyzed source file.
type File struct {
	Path       string     `json:"path" yaml:"path"`
	Language   string     `json:"language" yaml:"language"`
	Summary    string     `json:"summary" yaml:"summary"`
	Extraction string     `json:"extraction,omitempty" yaml:"extraction,omitempty"`
	Imports    []string   `json:"imports" yaml:"imports"`
	Functions  []Function `json:"functions" yaml:"functions"`
	Classes    []Class    `json:"classes" yaml:"classes"`
}

// Empty reports whether the file carries no symbols and no imports.
func (f *File) Empty() bool {
	return len(f.Functions) == 0 && len(f.Classes) == 0 && len(f.Imports) == 0 && f.Summary == ""
}

// Document is a complete LADOM for one project.
type Document struct {
	ProjectName string `json:"project_name" yaml:"project_name"`
	Files       []File `json:"files" yaml:"files"`
}

// Counts returns the number of top-level functions, methods and classes.
func (d *Document) Counts() (functions, methods, classes int) {
	for i := range d.Files {
		functions += len(d.Files[i].Functions)
		classes += len(d.Files[i].Classes)
		for j := range d.Files[i].Classes {
			methods += len(d.Files[i].Classes[j].Methods)
		}
	}
	return functions, methods, classes
}

// LanguageForPath maps a file extension to a language tag. Unknown
// extensions yield "".
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return LanguagePython
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".ts", ".tsx", ".mts", ".cts":
		return LanguageTypeScript
	case ".java":
		return LanguageJava
	case ".proto":
		return LanguageProtobuf
	case ".tf":
		return LanguageTerraform
	case ".vue":
		return LanguageVue
	case ".graphql", ".gql":
		return LanguageGraphQL
	}
	return ""
}
