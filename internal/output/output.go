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

// Package output encodes command results for machine consumption.
//
// Every repofacts command that emits a document (a LADOM file or RepoFacts)
// goes through Write, so --format json and --format yaml render the same
// data with the same field names.
//
//	facts := facts.Extract(doc, root)
//	if err := output.Write(os.Stdout, output.FormatYAML, facts); err != nil {
//	    return err
//	}
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or yaml)", s)
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// Write encodes data to w in the given format.
func Write(w io.Writer, format Format, data any) error {
	switch format {
	case FormatYAML:
		return YAMLTo(w, data)
	case FormatJSON, "":
		return JSONTo(w, data)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// JSONTo writes data as JSON indented with two spaces.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONCompactTo writes data as single-line JSON.
func JSONCompactTo(w io.Writer, data any) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// YAMLTo writes data as YAML indented with two spaces.
func YAMLTo(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("YAML encoding failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("YAML encoding failed: %w", err)
	}
	return nil
}
