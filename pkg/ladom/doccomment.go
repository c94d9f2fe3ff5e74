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

// DocComment is the parsed form of an in-source documentation comment
// (docstring, JSDoc or Javadoc) or of generated documentation text.
type DocComment struct {
	Summary    string
	Params     map[string]string
	ParamTypes map[string]string
	Returns    Returns
	Throws     []string
	Examples   []string
}

// IsZero reports whether nothing was parsed.
func (d DocComment) IsZero() bool {
	return d.Summary == "" && len(d.Params) == 0 && d.Returns.IsZero() &&
		len(d.Throws) == 0 && len(d.Examples) == 0
}

// ApplyTo copies documentation into fn without overwriting values already
// taken from the code itself. Constructors never receive a return
// description.
func (d DocComment) ApplyTo(fn *Function) {
	if fn.Description == "" {
		fn.Description = d.Summary
	}
	for i := range fn.Parameters {
		p := &fn.Parameters[i]
		key := trimParamMarkers(p.Name)
		if p.Description == "" {
			p.Description = d.Params[key]
		}
		if p.Type == "" {
			p.Type = d.ParamTypes[key]
		}
	}
	if !fn.Constructor {
		if fn.Returns.Type == "" {
			fn.Returns.Type = d.Returns.Type
		}
		if fn.Returns.Description == "" {
			fn.Returns.Description = d.Returns.Description
		}
	}
	if len(fn.Throws) == 0 && len(d.Throws) > 0 {
		fn.Throws = append([]string(nil), d.Throws...)
	}
	if len(fn.Examples) == 0 && len(d.Examples) > 0 {
		fn.Examples = append([]string(nil), d.Examples...)
	}
}

func trimParamMarkers(name string) string {
	for len(name) > 0 && (name[0] == '*' || name[0] == '.') {
		name = name[1:]
	}
	return name
}
