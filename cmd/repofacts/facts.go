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
	"github.com/kraklabs/repofacts/internal/ui"
	"github.com/kraklabs/repofacts/pkg/facts"
)

// runFacts executes the 'facts' command: analyze the repository, extract
// facts from the LADOM document and print them normalized.
//
// Flags (in addition to the analyze flags):
//   - --summary: Print a colored overview instead of the document
//
// Examples:
//
//	repofacts facts
//	repofacts facts ./service --format yaml
//	repofacts facts --summary
func runFacts(args []string, globals GlobalFlags, s streams) error {
	flags, opts := newRunFlagSet("facts", "Analyzes a repository and prints its normalized facts.", s.errOut)
	summary := flags.Bool("summary", false, "Print a human-readable summary")
	if err := parseRunFlags(flags, opts, args); err != nil {
		return helpOK(err)
	}
	cfg, format, err := loadRunConfig(opts, globals)
	if err != nil {
		return err
	}

	result, err := analyzeRepository(opts, globals, cfg, s)
	if err != nil {
		return err
	}
	printRunSummary(result)

	logger := newLogger(s.errOut, opts, globals.Quiet)
	raw := facts.NewExtractor(result.RootPath, logger).Extract(result.Document)
	f := facts.NewNormalizer(result.RootPath, logger).Normalize(raw)

	if *summary {
		ui.FactsSummary(s.out, f)
		return nil
	}
	return writeDocument(opts, format, f, s)
}
