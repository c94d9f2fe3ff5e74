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

package facts

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Ceilings applied to the summary statistics.
const (
	MaxTotalFiles     = 10000
	MaxTotalLines     = 10000000
	MaxTotalFunctions = 100000
	MaxTotalClasses   = 10000
	MaxEntryPoints    = 10
)

var entryOrder = map[string]int{
	EntryMain:   0,
	EntryCLI:    1,
	EntryAPI:    2,
	EntryScript: 3,
	EntryTest:   4,
}

func entryRank(t string) int {
	if r, ok := entryOrder[t]; ok {
		return r
	}
	return len(entryOrder)
}

// Normalizer canonicalizes RepoFacts in place: duplicates removed, lists
// sorted, paths made root-relative and business rules applied. Running it
// twice yields the same value as running it once.
type Normalizer struct {
	root   string
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. root is used to relativize absolute
// paths and may be empty.
func NewNormalizer(root string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{root: root, logger: logger}
}

// Normalize is a shortcut for NewNormalizer(root, nil).Normalize(f).
func Normalize(f *RepoFacts, root string) *RepoFacts {
	return NewNormalizer(root, nil).Normalize(f)
}

// Normalize rewrites f and returns it. A nil f yields empty normalized
// facts.
func (n *Normalizer) Normalize(f *RepoFacts) *RepoFacts {
	if f == nil {
		f = &RepoFacts{}
	}
	n.normalizeLanguages(f)
	n.normalizePaths(f)
	n.normalizeEntryPoints(f)
	n.normalizeDependencies(f)
	n.sortLists(f)
	n.applyRules(f)
	n.fillEmpty(f)
	n.logger.Debug("facts.normalize.done",
		"languages", len(f.Languages),
		"entry_points", len(f.EntryPoints),
		"dependencies", f.DependencyCount(),
	)
	return f
}

// normalizeLanguages merges entries with the same name and makes sure
// exactly one is primary.
func (n *Normalizer) normalizeLanguages(f *RepoFacts) {
	merged := make([]Language, 0, len(f.Languages))
	index := map[string]int{}
	for _, l := range f.Languages {
		if i, ok := index[l.Name]; ok {
			merged[i].FileCount += l.FileCount
			merged[i].Primary = merged[i].Primary || l.Primary
			if merged[i].Version == "" {
				merged[i].Version = l.Version
			}
			continue
		}
		index[l.Name] = len(merged)
		merged = append(merged, l)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].FileCount != merged[j].FileCount {
			return merged[i].FileCount > merged[j].FileCount
		}
		return merged[i].Name < merged[j].Name
	})

	primary := -1
	for i := range merged {
		if merged[i].Primary {
			if primary >= 0 {
				merged[i].Primary = false
				continue
			}
			primary = i
		}
	}
	if primary < 0 && len(merged) > 0 {
		merged[0].Primary = true
	}
	f.Languages = merged
}

func (n *Normalizer) path(p string) string {
	return normalizePath(n.root, p)
}

// normalizePaths rewrites every stored path to root-relative slash form.
func (n *Normalizer) normalizePaths(f *RepoFacts) {
	for i := range f.EntryPoints {
		f.EntryPoints[i].File = n.path(f.EntryPoints[i].File)
	}
	for i := range f.ConfigFiles {
		f.ConfigFiles[i].File = n.path(f.ConfigFiles[i].File)
	}
	for i := range f.Directories {
		f.Directories[i].Path = n.path(f.Directories[i].Path)
	}
	iface := &f.Interface
	if iface.CLI != nil {
		iface.CLI.EntryPoint = n.path(iface.CLI.EntryPoint)
	}
	if iface.WebAPI != nil {
		for i := range iface.WebAPI.Endpoints {
			iface.WebAPI.Endpoints[i].File = n.path(iface.WebAPI.Endpoints[i].File)
		}
	}
	if iface.GraphQL != nil {
		iface.GraphQL.SchemaFile = n.path(iface.GraphQL.SchemaFile)
	}
	if iface.GRPC != nil {
		for i := range iface.GRPC.ProtoFiles {
			iface.GRPC.ProtoFiles[i] = n.path(iface.GRPC.ProtoFiles[i])
		}
		for i := range iface.GRPC.Services {
			iface.GRPC.Services[i].File = n.path(iface.GRPC.Services[i].File)
		}
	}
}

// normalizeEntryPoints removes duplicate (file, type) pairs.
func (n *Normalizer) normalizeEntryPoints(f *RepoFacts) {
	type key struct{ file, typ string }
	seen := map[key]bool{}
	out := make([]EntryPoint, 0, len(f.EntryPoints))
	for _, ep := range f.EntryPoints {
		k := key{ep.File, ep.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ep)
	}
	f.EntryPoints = out
}

// normalizeDependencies removes duplicate names per bucket and drops Python
// standard-library names listed in requirements.txt.
func (n *Normalizer) normalizeDependencies(f *RepoFacts) {
	if f.Dependencies == nil {
		f.Dependencies = map[string][]Dependency{}
	}
	for bucket, deps := range f.Dependencies {
		seen := map[string]bool{}
		out := make([]Dependency, 0, len(deps))
		for _, d := range deps {
			if d.Name == "" || seen[d.Name] {
				continue
			}
			if strings.Contains(d.Source, requirementsTxt) && isPythonStdlib(strings.ToLower(d.Name)) {
				n.logger.Debug("facts.normalize.stdlib_dropped", "name", d.Name)
				continue
			}
			seen[d.Name] = true
			out = append(out, d)
		}
		f.Dependencies[bucket] = out
	}
}

func (n *Normalizer) sortLists(f *RepoFacts) {
	sort.SliceStable(f.EntryPoints, func(i, j int) bool {
		a, b := f.EntryPoints[i], f.EntryPoints[j]
		if ra, rb := entryRank(a.Type), entryRank(b.Type); ra != rb {
			return ra < rb
		}
		return a.File < b.File
	})
	for _, deps := range f.Dependencies {
		sort.SliceStable(deps, func(i, j int) bool {
			a, b := strings.ToLower(deps[i].Name), strings.ToLower(deps[j].Name)
			if a != b {
				return a < b
			}
			return deps[i].Name < deps[j].Name
		})
	}
	sort.SliceStable(f.ConfigFiles, func(i, j int) bool { return f.ConfigFiles[i].File < f.ConfigFiles[j].File })
	sort.SliceStable(f.Directories, func(i, j int) bool { return f.Directories[i].Path < f.Directories[j].Path })
	for i := range f.ConfigFiles {
		sort.Strings(f.ConfigFiles[i].EnvVars)
	}
	for i := range f.Directories {
		sort.Strings(f.Directories[i].PrimaryLanguages)
	}
	if f.Interface.GRPC != nil {
		sort.Strings(f.Interface.GRPC.ProtoFiles)
	}
	f.Runtime.Ports = uniquePorts(f.Runtime.Ports)
}

// applyRules synthesizes an interface the project type implies, cleans
// the name and enforces the ceilings.
func (n *Normalizer) applyRules(f *RepoFacts) {
	if !f.HasInterface() {
		switch f.Project.Type {
		case ProjectCLI:
			f.Interface.CLI = &CLIInterface{Commands: []CLICommand{}}
		case ProjectWebAPI:
			f.Interface.WebAPI = &WebAPIInterface{BasePath: "/", Endpoints: []APIEndpoint{}}
		}
	}
	if f.Project.Type == "" {
		f.Project.Type = ProjectUnknown
	}
	f.Project.Name = CleanProjectName(f.Project.Name)

	f.TotalFiles = min(f.TotalFiles, MaxTotalFiles)
	f.TotalLines = min(f.TotalLines, MaxTotalLines)
	f.TotalFunctions = min(f.TotalFunctions, MaxTotalFunctions)
	f.TotalClasses = min(f.TotalClasses, MaxTotalClasses)

	if len(f.EntryPoints) > MaxEntryPoints {
		kept := make([]EntryPoint, 0, MaxEntryPoints)
		for _, ep := range f.EntryPoints {
			if ep.Type != EntryTest {
				kept = append(kept, ep)
			}
		}
		if len(kept) > MaxEntryPoints {
			kept = kept[:MaxEntryPoints]
		}
		f.EntryPoints = kept
	}
}

var nameSeparators = regexp.MustCompile(`[-_/\\]+`)

// CleanProjectName replaces path separators and runs of dashes or
// underscores with a single dash and trims them from both ends. An empty
// result becomes "project".
func CleanProjectName(name string) string {
	name = nameSeparators.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "project"
	}
	return name
}

// fillEmpty replaces nil collections with empty ones so normalized facts
// serialize the same way every time.
func (n *Normalizer) fillEmpty(f *RepoFacts) {
	if f.Languages == nil {
		f.Languages = []Language{}
	}
	if f.EntryPoints == nil {
		f.EntryPoints = []EntryPoint{}
	}
	if f.Scripts == nil {
		f.Scripts = map[string]Script{}
	}
	for _, bucket := range DependencyTypes {
		if f.Dependencies[bucket] == nil {
			f.Dependencies[bucket] = []Dependency{}
		}
	}
	if f.ConfigFiles == nil {
		f.ConfigFiles = []ConfigFile{}
	}
	for i := range f.ConfigFiles {
		if f.ConfigFiles[i].EnvVars == nil {
			f.ConfigFiles[i].EnvVars = []string{}
		}
	}
	if f.Directories == nil {
		f.Directories = []DirectorySummary{}
	}
	for i := range f.Directories {
		if f.Directories[i].PrimaryLanguages == nil {
			f.Directories[i].PrimaryLanguages = []string{}
		}
	}
	if f.Architecture.Pattern == "" {
		f.Architecture.Pattern = PatternCustom
	}
	if f.Architecture.Layers == nil {
		f.Architecture.Layers = []string{}
	}
	if f.Runtime.Ports == nil {
		f.Runtime.Ports = []int{}
	}
}
