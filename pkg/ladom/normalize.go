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

import "strings"

// Default values written by Normalize.
const (
	DefaultProjectName           = "Unnamed Project"
	DefaultFilePath              = "unknown"
	DefaultFunctionName          = "unnamed"
	DefaultClassName             = "UnnamedClass"
	DefaultParamName             = "unnamed"
	DefaultParamType             = "any"
	DefaultParamDescription      = "No description available."
	DefaultDescription           = "No description provided."
	DefaultReturnType            = "void"
	DefaultReturnDescription     = "No return value."
	ConstructorReturnDescription = "Constructor, no return value."
	UntypedReturnDescription     = "No description available."

	// FallbackDocumentation replaces generated text when generation fails.
	FallbackDocumentation = "No documentation available."
)

// Normalize returns a deep copy of doc with every optional field filled.
// A nil document normalizes to an empty one named DefaultProjectName.
func Normalize(doc *Document) *Document {
	out := &Document{ProjectName: DefaultProjectName, Files: []File{}}
	if doc == nil {
		return out
	}
	if doc.ProjectName != "" {
		out.ProjectName = doc.ProjectName
	}
	out.Files = make([]File, 0, len(doc.Files))
	for i := range doc.Files {
		out.Files = append(out.Files, normalizeFile(doc.Files[i]))
	}
	return out
}

func normalizeFile(f File) File {
	if f.Path == "" {
		f.Path = DefaultFilePath
	}
	if f.Language == "" {
		f.Language = LanguageForPath(f.Path)
	}
	f.Imports = cloneStrings(f.Imports)

	fns := make([]Function, 0, len(f.Functions))
	for _, fn := range f.Functions {
		fns = append(fns, normalizeFunction(fn, f.Path, f.Language))
	}
	f.Functions = fns

	classes := make([]Class, 0, len(f.Classes))
	for _, c := range f.Classes {
		classes = append(classes, normalizeClass(c, f.Path, f.Language))
	}
	f.Classes = classes
	return f
}

func normalizeClass(c Class, path, lang string) Class {
	if c.Name == "" {
		c.Name = DefaultClassName
	}
	if c.Kind == "" {
		c.Kind = KindClass
	}
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	if c.FilePath == "" {
		c.FilePath = path
	}
	if c.Language == "" {
		c.Language = lang
	}
	c.Decorators = cloneStrings(c.Decorators)

	methods := make([]Function, 0, len(c.Methods))
	for _, m := range c.Methods {
		methods = append(methods, normalizeFunction(m, c.FilePath, c.Language))
	}
	c.Methods = methods
	return c
}

func normalizeFunction(fn Function, path, lang string) Function {
	if fn.Name == "" {
		fn.Name = DefaultFunctionName
	}
	if fn.Description == "" {
		fn.Description = DefaultDescription
	}
	if fn.FilePath == "" {
		fn.FilePath = path
	}
	if fn.Language == "" {
		fn.Language = lang
	}

	params := make([]Parameter, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		params = append(params, normalizeParameter(p))
	}
	fn.Parameters = params

	fn.Returns = normalizeReturns(fn.Returns, fn.Constructor)
	if fn.Signature == "" {
		fn.Signature = BuildSignature(fn.Name, fn.Parameters)
	}
	fn.Throws = cloneStrings(fn.Throws)
	fn.Examples = cloneStrings(fn.Examples)
	fn.Decorators = cloneStrings(fn.Decorators)
	return fn
}

func normalizeParameter(p Parameter) Parameter {
	if p.Name == "" {
		p.Name = DefaultParamName
	}
	if p.Type == "" {
		p.Type = DefaultParamType
	}
	if p.Description == "" {
		p.Description = DefaultParamDescription
	}
	if p.Default != "" {
		p.Optional = true
	}
	return p
}

func normalizeReturns(r Returns, constructor bool) Returns {
	if constructor {
		if r.Type == "" {
			r.Type = DefaultReturnType
		}
		if r.Description == "" || r.Description == DefaultReturnDescription {
			r.Description = ConstructorReturnDescription
		}
		return r
	}
	if r.IsZero() {
		return Returns{Type: DefaultReturnType, Description: DefaultReturnDescription}
	}
	if r.Type == "" {
		r.Type = DefaultParamType
	}
	if r.Description == "" {
		if r.Type == DefaultReturnType {
			r.Description = DefaultReturnDescription
		} else {
			r.Description = UntypedReturnDescription
		}
	}
	return r
}

// BuildSignature renders name(p1, p2) with rest parameters prefixed by "...".
func BuildSignature(name string, params []Parameter) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Variadic && !strings.HasPrefix(p.Name, "*") && !strings.HasPrefix(p.Name, ".") {
			sb.WriteString("...")
		}
		sb.WriteString(p.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// cloneStrings copies s, turning nil into an empty slice.
func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
