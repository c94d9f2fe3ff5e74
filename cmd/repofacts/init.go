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
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repofacts/internal/bootstrap"
	"github.com/kraklabs/repofacts/internal/config"
	"github.com/kraklabs/repofacts/internal/errors"
	"github.com/kraklabs/repofacts/internal/ui"
	"github.com/kraklabs/repofacts/pkg/ingestion"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive bool
	projectName           string
	parserMode            string
	llmProvider, llmModel string
}

// runInit executes the 'init' command, creating .repofacts/project.yaml.
//
// Prompts run only when stdin is a terminal and -y is not given.
//
// Examples:
//
//	repofacts init                  Interactive setup
//	repofacts init -y               Use all defaults
//	repofacts init --force -y       Overwrite with defaults
func runInit(args []string, globals GlobalFlags, s streams) error {
	f, root, err := parseInitFlags(args, s.errOut)
	if err != nil {
		return helpOK(err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.NewInputError("Invalid path", err.Error(), "")
	}
	cfg, err := createInitConfig(absRoot, f)
	if err != nil {
		return err
	}

	if !f.nonInteractive && isTerminal(s.in) {
		runInteractiveConfig(bufio.NewReader(s.in), s.errOut, cfg)
		if err := cfg.Validate(); err != nil {
			return errors.NewInputError("Invalid configuration", err.Error(), "Run repofacts init again")
		}
	}

	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
		Root:   absRoot,
		Force:  f.force,
		Config: cfg,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	switch {
	case stderrors.Is(err, bootstrap.ErrAlreadyInitialized):
		return errors.NewConfigError("Configuration already exists", err.Error(), "Use --force to overwrite it", err)
	case err != nil:
		return errors.NewPermissionError("Cannot create configuration", err.Error(), "Check that the directory exists and is writable", err)
	}

	ui.Successf("Created %s", info.ConfigPath)
	if info.GitignoreUpdated {
		ui.Infof("Added %s/.env to .gitignore", config.DirName)
	}
	if !globals.Quiet {
		printNextSteps(s.errOut)
	}
	return nil
}

func parseInitFlags(args []string, errOut io.Writer) (initFlags, string, error) {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectName, "project-name", "", "Project name (default: directory name)")
	fs.StringVar(&f.parserMode, "parser-mode", "", "Parser mode: auto, treesitter or simplified")
	fs.StringVar(&f.llmProvider, "llm-provider", "", "LLM provider for --describe: ollama or openai")
	fs.StringVar(&f.llmModel, "llm-model", "", "LLM model name")
	fs.Usage = func() {
		fmt.Fprint(errOut, `Usage: repofacts init [path] [options]

Creates .repofacts/project.yaml.

Examples:
  repofacts init -y
  repofacts init --parser-mode simplified -y
  repofacts init --llm-provider ollama --llm-model qwen2.5-coder

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return f, "", errHelp
		}
		return f, "", errors.NewInputError("Invalid arguments", err.Error(), "Run repofacts init --help")
	}

	root := "."
	switch fs.NArg() {
	case 0:
	case 1:
		root = fs.Arg(0)
	default:
		return f, "", errors.NewInputError("Too many arguments", "init takes at most one path", "")
	}
	return f, root, nil
}

func createInitConfig(root string, f initFlags) (*config.Config, error) {
	name := f.projectName
	if name == "" {
		name = filepath.Base(root)
	}
	cfg := config.DefaultConfig(name)
	if f.parserMode != "" {
		mode, err := ingestion.ParseParserMode(f.parserMode)
		if err != nil {
			return nil, errors.NewInputError("Invalid parser mode", err.Error(), "Use auto, treesitter or simplified")
		}
		cfg.Analysis.ParserMode = string(mode)
	}
	if f.llmProvider != "" {
		cfg.LLM.Type = f.llmProvider
		cfg.Describe.Enabled = true
	}
	if f.llmModel != "" {
		cfg.LLM.DefaultModel = f.llmModel
	}
	return cfg, nil
}

func runInteractiveConfig(reader *bufio.Reader, w io.Writer, cfg *config.Config) {
	ui.Header(w, "repofacts configuration")
	fmt.Fprintln(w)

	cfg.ProjectName = prompt(reader, w, "Project name", cfg.ProjectName)
	cfg.Analysis.ParserMode = prompt(reader, w, "Parser mode (auto, treesitter, simplified)", cfg.Analysis.ParserMode)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "LLM descriptions fill in undocumented functions and classes.")
	fmt.Fprintln(w, "Leave empty to skip.")
	provider := prompt(reader, w, "LLM provider (ollama, openai)", cfg.LLM.Type)
	if provider != "" {
		cfg.LLM.Type = provider
		cfg.Describe.Enabled = true
		cfg.LLM.DefaultModel = prompt(reader, w, "LLM model", cfg.LLM.DefaultModel)
	}
	fmt.Fprintln(w)
}

func printNextSteps(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Review .repofacts/project.yaml")
	fmt.Fprintln(w, "  2. Run 'repofacts facts --summary' for an overview")
	fmt.Fprintln(w, "  3. Run 'repofacts analyze -o ladom.json' to export the document")
}

// prompt shows label with its default and returns the trimmed answer, or
// defaultValue when the answer is empty.
func prompt(reader *bufio.Reader, w io.Writer, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, defaultValue)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}
