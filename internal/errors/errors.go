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

// Package errors provides user-facing errors for the repofacts CLI.
//
// A UserError carries three pieces of context: what went wrong, why it
// happened, and how to fix it. Commands return UserErrors and main turns
// them into colored terminal output (or JSON) and a semantic exit code.
//
//	err := errors.NewAnalysisError(
//	    "Cannot analyze repository",
//	    "No supported source files were found under ./src",
//	    "Point repofacts at the repository root or check .repofacts/project.yaml",
//	    nil,
//	)
//	fmt.Fprint(os.Stderr, err.Format(false))
//	// Error: Cannot analyze repository
//	// Cause: No supported source files were found under ./src
//	// Fix:   Point repofacts at the repository root or check .repofacts/project.yaml
//
// # Exit Codes
//
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Missing or invalid configuration
//   - ExitAnalysis (2): The repository could not be analyzed
//   - ExitNetwork (3): LLM provider unreachable or failing
//   - ExitInput (4): Invalid arguments or an invalid LADOM document
//   - ExitPermission (5): Permission denied
//   - ExitNotFound (6): File or directory not found
//   - ExitInternal (10): Internal errors (bugs, panics)
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	ExitSuccess = 0

	// ExitConfig indicates a missing or invalid .repofacts/project.yaml or environment.
	ExitConfig = 1

	// ExitAnalysis indicates the analyzers or fact extractor could not finish.
	ExitAnalysis = 2

	// ExitNetwork indicates the LLM provider could not be reached.
	ExitNetwork = 3

	// ExitInput indicates bad arguments or a document that failed validation.
	ExitInput = 4

	ExitPermission = 5
	ExitNotFound   = 6

	// ExitInternal signals a bug that should be reported.
	ExitInternal = 10
)

// UserError is an error with structured context for end users.
type UserError struct {
	// Message describes what went wrong.
	Message string

	// Cause explains why it happened.
	Cause string

	// Fix is an actionable suggestion.
	Fix string

	// ExitCode is used by FatalError and ExitCode.
	ExitCode int

	// Err is the wrapped error, if any.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is and errors.As.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: code,
		Err:      err,
	}
}

// NewConfigError creates an error for configuration problems.
//
//	errors.NewConfigError(
//	    "Cannot load configuration",
//	    "Invalid YAML in .repofacts/project.yaml",
//	    "Fix the file or regenerate it with: repofacts init --force",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewAnalysisError creates an error for repositories that could not be analyzed.
func NewAnalysisError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitAnalysis, msg, cause, fix, err)
}

// NewNetworkError creates an error for LLM provider failures.
//
//	errors.NewNetworkError(
//	    "Cannot reach Ollama",
//	    "Connection refused at http://localhost:11434",
//	    "Start Ollama or set OLLAMA_HOST, or run without --describe",
//	    err,
//	)
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError creates an error for invalid arguments or documents.
// It does not wrap an underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewPermissionError creates an error for permission problems.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError creates an error for missing files or directories.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError creates an error for unexpected failures.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for a terminal. Colors are disabled by noColor
// or by the NO_COLOR environment variable. Empty Cause and Fix lines are
// omitted.
//
// Format temporarily modifies the global color.NoColor state and restores it.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the machine-readable form of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the error to its JSON form.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// ExitCode returns the exit code for err. A nil error maps to ExitSuccess and
// an error without a UserError in its chain maps to ExitInternal.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue.ExitCode
	}
	return ExitInternal
}

// Report writes err to w, as JSON when jsonOutput is set, and returns the
// exit code the process should use.
func Report(w io.Writer, err error, jsonOutput bool) int {
	if err == nil {
		return ExitSuccess
	}

	var ue *UserError
	if !stderrors.As(err, &ue) {
		ue = NewInternalError(err.Error(), "", "Please report this issue with the command you ran", nil)
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(w, ue.Format(false))
	}
	return ue.ExitCode
}

// FatalError reports err on stderr and exits with its code. It returns
// only when err is nil.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err, jsonOutput))
}
