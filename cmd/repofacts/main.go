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

// Package main implements the repofacts CLI, which analyzes a repository
// into a LADOM document and extracts normalized repository facts from it.
//
// Usage:
//
//	repofacts init                 Create .repofacts/project.yaml
//	repofacts analyze [path]       Print the normalized LADOM document
//	repofacts facts [path]         Print the normalized repository facts
//	repofacts validate <file>      Check a LADOM document
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/repofacts/internal/errors"
	"github.com/kraklabs/repofacts/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the options accepted before the command name.
type GlobalFlags struct {
	// ConfigPath overrides .repofacts/project.yaml under the analyzed root.
	ConfigPath string

	// JSON reports errors as JSON on stderr.
	JSON bool

	// Quiet suppresses progress bars and status messages.
	Quiet bool

	NoColor bool
}

// streams carries the process I/O so commands can be exercised in tests.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}))
}

// run parses global flags, dispatches to the command and returns the exit code.
func run(args []string, s streams) int {
	fs := flag.NewFlagSet("repofacts", flag.ContinueOnError)
	fs.SetOutput(s.errOut)

	var globals GlobalFlags
	showVersion := fs.Bool("version", false, "Show version and exit")
	fs.StringVar(&globals.ConfigPath, "config", "", "Path to project.yaml (default: <root>/.repofacts/project.yaml)")
	fs.BoolVar(&globals.JSON, "json", false, "Report errors as JSON")
	fs.BoolVar(&globals.Quiet, "quiet", false, "Suppress progress and status output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	fs.Usage = func() { printUsage(s.errOut) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errors.ExitSuccess
		}
		return errors.ExitInput
	}

	if *showVersion {
		fmt.Fprintf(s.out, "repofacts version %s\n", version)
		fmt.Fprintf(s.out, "commit: %s\n", commit)
		fmt.Fprintf(s.out, "built: %s\n", date)
		return errors.ExitSuccess
	}

	if globals.NoColor || os.Getenv("NO_COLOR") != "" {
		ui.InitColors(true)
	}
	ui.Out = s.errOut
	if globals.Quiet {
		ui.Out = io.Discard
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(s.errOut)
		return errors.ExitInput
	}

	command, cmdArgs := rest[0], rest[1:]
	var err error
	switch command {
	case "init":
		err = runInit(cmdArgs, globals, s)
	case "analyze":
		err = runAnalyze(cmdArgs, globals, s)
	case "facts":
		err = runFacts(cmdArgs, globals, s)
	case "validate":
		err = runValidate(cmdArgs, globals, s)
	case "version":
		fmt.Fprintf(s.out, "repofacts version %s\n", version)
	default:
		fmt.Fprintf(s.errOut, "Unknown command: %s\n\n", command)
		printUsage(s.errOut)
		return errors.ExitInput
	}
	return errors.Report(s.errOut, err, globals.JSON)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `repofacts - repository facts for documentation tooling

repofacts parses a repository's Python, JavaScript, TypeScript and Java
sources into a language-agnostic document object model (LADOM) and derives
structured facts from it: project type, interfaces, entry points,
dependencies, runtime settings, architecture and testing setup.

Usage:
  repofacts [global options] <command> [options]

Commands:
  init          Create .repofacts/project.yaml
  analyze       Print the normalized LADOM document
  facts         Print the normalized repository facts
  validate      Validate a LADOM document (JSON or YAML)
  version       Show version

Global Options:
  --config      Path to project.yaml
  --json        Report errors as JSON
  --quiet       Suppress progress and status output
  --no-color    Disable colored output
  --version     Show version and exit

Examples:
  repofacts init -y
  repofacts analyze --format yaml > ladom.yaml
  repofacts facts --summary
  repofacts facts ./service --output facts.json
  repofacts validate ladom.json

Environment Variables:
  REPOFACTS_PARSER_MODE   auto, treesitter or simplified
  REPOFACTS_WORKERS       Number of analysis workers
  LLM_PROVIDER            ollama or openai (used by --describe)
  OLLAMA_HOST, OLLAMA_MODEL
  OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL

For command help: repofacts <command> --help
`)
}
