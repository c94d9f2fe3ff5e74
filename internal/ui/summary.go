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

package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/kraklabs/repofacts/pkg/facts"
)

const summaryMaxDeps = 10

// FactsSummary writes a human-readable overview of f.
func FactsSummary(w io.Writer, f *facts.RepoFacts) {
	if f == nil {
		return
	}

	Header(w, f.Project.Name)
	row(w, "Type:", string(f.Project.Type))
	row(w, "Version:", f.Project.Version)
	row(w, "License:", f.Project.License)
	row(w, "Description:", f.Project.Description)
	if f.HasInterface() {
		row(w, "Interface:", f.InterfaceType())
	}
	if f.Architecture.Pattern != "" {
		row(w, "Architecture:", string(f.Architecture.Pattern))
	}

	if len(f.Languages) > 0 {
		_, _ = fmt.Fprintln(w)
		SubHeader(w, "Languages:")
		for _, l := range f.Languages {
			line := fmt.Sprintf("  %s %s files", l.Name, CountText(l.FileCount))
			if l.Version != "" {
				line += " " + DimText("("+l.Version+")")
			}
			if l.Primary {
				line += " " + Green.Sprint("primary")
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}

	if len(f.EntryPoints) > 0 {
		_, _ = fmt.Fprintln(w)
		SubHeader(w, "Entry points:")
		for _, e := range f.EntryPoints {
			_, _ = fmt.Fprintf(w, "  %-7s %s\n", e.Type, e.File)
		}
	}

	if n := f.DependencyCount(); n > 0 {
		_, _ = fmt.Fprintln(w)
		SubHeader(w, fmt.Sprintf("Dependencies (%d):", n))
		for _, bucket := range facts.DependencyTypes {
			deps := f.Dependencies[bucket]
			if len(deps) == 0 {
				continue
			}
			names := make([]string, 0, summaryMaxDeps)
			for i, d := range deps {
				if i == summaryMaxDeps {
					names = append(names, fmt.Sprintf("+%d more", len(deps)-summaryMaxDeps))
					break
				}
				names = append(names, d.Name)
			}
			_, _ = fmt.Fprintf(w, "  %-8s %s\n", bucket+":", strings.Join(names, ", "))
		}
	}

	_, _ = fmt.Fprintln(w)
	SubHeader(w, "Commands:")
	row(w, "Install:", f.InstallCommand())
	row(w, "Run:", f.RunCommand())
	row(w, "Test:", f.Testing.TestCommand)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s files, %s lines, %s functions, %s classes\n",
		CountText(f.TotalFiles), CountText(f.TotalLines),
		CountText(f.TotalFunctions), CountText(f.TotalClasses))
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", Label(label), value)
}
