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

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Name  string   `json:"name" yaml:"name"`
	Ports []int    `json:"ports" yaml:"ports"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: " yml ", want: FormatYAML},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("facts.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("out/FACTS.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("facts.json"))
	assert.Equal(t, FormatJSON, FormatForPath("facts"))
}

func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONTo(&buf, sample{Name: "api", Ports: []int{8080}}))

	out := buf.String()
	assert.Contains(t, out, "  \"name\": \"api\"")
	assert.NotContains(t, out, "tags")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestJSONCompactTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONCompactTo(&buf, sample{Name: "api", Ports: []int{}}))
	assert.Equal(t, "{\"name\":\"api\",\"ports\":[]}\n", buf.String())
}

func TestJSONTo_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON encoding failed")
}

func TestYAMLTo(t *testing.T) {
	var buf bytes.Buffer
	in := sample{Name: "api", Ports: []int{8080, 9090}, Tags: []string{"web"}}
	require.NoError(t, YAMLTo(&buf, in))

	assert.Contains(t, buf.String(), "name: api\n")
	assert.Contains(t, buf.String(), "ports:\n  - 8080\n")

	var back sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, in, back)
}

func TestWrite(t *testing.T) {
	data := sample{Name: "cli", Ports: []int{}}

	var j, y bytes.Buffer
	require.NoError(t, Write(&j, FormatJSON, data))
	require.NoError(t, Write(&y, FormatYAML, data))
	assert.True(t, strings.HasPrefix(j.String(), "{"))
	assert.True(t, strings.HasPrefix(y.String(), "name: cli"))

	var def bytes.Buffer
	require.NoError(t, Write(&def, "", data))
	assert.Equal(t, j.String(), def.String())

	assert.Error(t, Write(&bytes.Buffer{}, Format("toml"), data))
}
