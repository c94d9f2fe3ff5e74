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

package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repofacts/internal/errors"
	"github.com/kraklabs/repofacts/internal/output"
	"github.com/kraklabs/repofacts/internal/ui"
	"github.com/kraklabs/repofacts/pkg/ladom"
)

// validationReport is the --format output of validate.
type validationReport struct {
	File    string        `json:"file" yaml:"file"`
	Valid   bool          `json:"valid" yaml:"valid"`
	Files   int           `json:"files" yaml:"files"`
	Dropped int           `json:"dropped" yaml:"dropped"`
	Issues  []ladom.Issue `json:"issues" yaml:"issues"`
}

// runValidate executes the 'validate' command. The document is read from a
// file (or stdin with "-"); YAML is detected by extension.
//
// Exit codes:
//   - 0: the document is usable (recoverable issues are reported)
//   - 4: a fatal issue was found, or any issue with --strict
//
// Examples:
//
//	repofacts validate ladom.json
//	repofacts analyze | repofacts validate -
//	repofacts validate ladom.yaml --format json
func runValidate(args []string, globals GlobalFlags, s streams) error {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(s.errOut)
	format := flags.StringP("format", "f", "", "Print the report as json or yaml instead of text")
	strict := flags.Bool("strict", false, "Fail on recoverable issues too")
	flags.Usage = func() {
		fmt.Fprint(s.errOut, "Usage: repofacts validate <file|-> [options]\n\nValidates a LADOM document.\n\nOptions:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errors.NewInputError("Invalid arguments", err.Error(), "Run with --help to see the available options")
	}
	if flags.NArg() != 1 {
		return errors.NewInputError("Missing document", "validate takes exactly one file argument", "Pass a path, or - to read stdin")
	}
	path := flags.Arg(0)

	data, err := readDocument(path, s.in)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.NewNotFoundError("Document not found", err.Error(), "Check the file path")
		}
		return errors.NewPermissionError("Cannot read document", err.Error(), "", err)
	}

	decode := ladom.Decode
	if output.FormatForPath(path) == output.FormatYAML {
		decode = ladom.DecodeYAML
	}
	doc, report, err := decode(data)
	if err != nil {
		return errors.NewInputError("Cannot parse document", err.Error(), "The file must hold a JSON or YAML object")
	}

	rep := validationReport{
		File:    path,
		Valid:   report.Valid(),
		Files:   len(doc.Files),
		Dropped: report.Dropped(),
		Issues:  report.Issues,
	}
	if rep.Issues == nil {
		rep.Issues = []ladom.Issue{}
	}

	if *format != "" {
		f, err := output.ParseFormat(*format)
		if err != nil {
			return errors.NewInputError("Invalid output format", err.Error(), "Use --format json or --format yaml")
		}
		if err := output.Write(s.out, f, rep); err != nil {
			return errors.NewInternalError("Cannot encode report", err.Error(), "", err)
		}
	} else {
		printValidation(s.out, rep)
	}

	switch {
	case !rep.Valid:
		return errors.NewInputError("Invalid LADOM document", fmt.Sprintf("%d issues found", len(rep.Issues)), "Fix the fatal issues listed above")
	case *strict && len(rep.Issues) > 0:
		return errors.NewInputError("LADOM document has issues", fmt.Sprintf("%d recoverable issues found", len(rep.Issues)), "Fix the issues or run without --strict")
	}
	return nil
}

func readDocument(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path) //nolint:gosec // G304: user-selected input file
}

func printValidation(w io.Writer, rep validationReport) {
	for _, is := range rep.Issues {
		label := ui.Yellow.Sprint("warning")
		if is.Fatal {
			label = ui.Red.Sprint("error")
		}
		fmt.Fprintf(w, "%s: %s\n", label, is)
	}
	if rep.Valid {
		fmt.Fprintf(w, "%s is valid: %d files, %d issues\n", rep.File, rep.Files, len(rep.Issues))
	}
}
