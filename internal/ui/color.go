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

// Package ui provides terminal output helpers for the repofacts CLI.
//
// Status messages go to Out (stderr by default) so that documents written
// to stdout stay machine readable. Colors respect --no-color and the
// NO_COLOR environment variable.
//
// Color usage:
//   - Red: errors
//   - Yellow: warnings
//   - Green: success
//   - Cyan: info and counts
//   - Bold: headers and labels
//   - Dim: paths and secondary detail
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Out receives status messages.
var Out io.Writer = os.Stderr

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors disables colors when noColor is set. Call it after flag parsing.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Successf prints a green message with a checkmark prefix.
//
// Example output: "✓ Analyzed 42 files"
func Successf(format string, args ...any) {
	_, _ = Green.Fprintf(Out, "✓ "+format+"\n", args...)
}

// Warningf prints a yellow message with a warning prefix.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(Out, "⚠ "+format+"\n", args...)
}

// Errorf prints a red message with an X prefix.
func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(Out, "✗ "+format+"\n", args...)
}

// Infof prints a cyan message with an info prefix.
func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(Out, "ℹ "+format+"\n", args...)
}

// Header writes a bold header underlined with '='.
func Header(w io.Writer, text string) {
	_, _ = Bold.Fprintln(w, text)
	_, _ = fmt.Fprintln(w, strings.Repeat("=", len(text)))
}

// SubHeader writes a bold header without an underline.
func SubHeader(w io.Writer, text string) {
	_, _ = Bold.Fprintln(w, text)
}

// Label returns text in bold for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns text in the dim style.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns count in cyan.
func CountText(count int) string {
	return Cyan.Sprint(count)
}
