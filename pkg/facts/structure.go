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
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// =============================================================================
// LANGUAGES
// =============================================================================

// tallyLanguages counts code files per language in first-seen order. The
// language with the most files is primary; on a tie the first seen wins.
func tallyLanguages(files []ladom.File) []Language {
	var langs []Language
	index := map[string]int{}
	for i := range files {
		name := languageOf(files[i].Path)
		if name == "" {
			continue
		}
		if j, ok := index[name]; ok {
			langs[j].FileCount++
			continue
		}
		index[name] = len(langs)
		langs = append(langs, Language{Name: name, FileCount: 1})
	}
	primary := -1
	for i := range langs {
		if primary < 0 || langs[i].FileCount > langs[primary].FileCount {
			primary = i
		}
	}
	if primary >= 0 {
		langs[primary].Primary = true
	}
	return langs
}

// languageVersions fills Language.Version from manifest constraints.
func languageVersions(langs []Language, m *manifests) {
	for i := range langs {
		switch langs[i].Name {
		case LangPython:
			if m.pyproject != nil {
				langs[i].Version = m.pyproject.pythonVersion()
			}
		case LangJavaScript, LangTypeScript:
			if m.pkg != nil {
				langs[i].Version = m.pkg.Engines["node"]
			}
		case LangJava:
			if m.pom != nil {
				langs[i].Version = m.pom.javaVersion()
			}
		}
	}
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

var (
	mainStems = map[string]bool{"main": true, "app": true, "index": true, "server": true}
	cliStems  = map[string]bool{"cli": true, "__main__": true}
	testStems = map[string]bool{"test": true, "tests": true, "run_tests": true}
)

// runCommand returns how a single file of the given language is started.
func runCommand(language, file string) string {
	switch language {
	case ladom.LanguagePython:
		return "python " + file
	case ladom.LanguageJavaScript:
		return "node " + file
	case ladom.LanguageTypeScript:
		return "npx ts-node " + file
	case ladom.LanguageJava:
		return "java " + file
	}
	return ""
}

// classifyEntry returns the entry point type for a file name, or "".
func classifyEntry(base string) string {
	lower := strings.ToLower(base)
	stem := strings.TrimSuffix(lower, path.Ext(lower))
	switch {
	case mainStems[stem]:
		return EntryMain
	case cliStems[stem]:
		return EntryCLI
	case strings.Contains(lower, "api") || strings.Contains(lower, "routes"):
		return EntryAPI
	case testStems[stem]:
		return EntryTest
	}
	return ""
}

var entryLabels = map[string]string{
	EntryMain: "Main entry point",
	EntryCLI:  "CLI entry point",
	EntryAPI:  "API entry point",
	EntryTest: "Test entry point",
}

func (e *Extractor) extractEntryPoints(files []ladom.File, m *manifests) []EntryPoint {
	var entries []EntryPoint
	for i := range files {
		lang := ladom.LanguageForPath(files[i].Path)
		if runCommand(lang, "") == "" {
			continue
		}
		file := files[i].Path
		base := path.Base(file)
		typ := classifyEntry(base)
		if typ == "" {
			continue
		}
		entries = append(entries, EntryPoint{
			File:        file,
			Type:        typ,
			Description: fmt.Sprintf("%s: %s", entryLabels[typ], strings.ToLower(base)),
			Command:     runCommand(lang, file),
		})
	}
	if m.pkg != nil {
		bins := m.pkg.bins()
		for _, name := range sortedKeys(bins) {
			entries = append(entries, EntryPoint{
				File:        bins[name],
				Type:        EntryCLI,
				Description: "CLI command: " + name,
				Command:     name,
			})
		}
	}
	if m.pyproject != nil {
		scripts := m.pyproject.scripts()
		for _, name := range sortedKeys(scripts) {
			entries = append(entries, EntryPoint{
				File:        scriptModuleFile(scripts[name]),
				Type:        EntryScript,
				Description: "Console script: " + name,
				Command:     name,
			})
		}
	}
	return entries
}

// scriptModuleFile maps an entry target such as "pkg.cli:main" to
// "pkg/cli.py".
func scriptModuleFile(target string) string {
	module, _, _ := strings.Cut(target, ":")
	module = strings.TrimSpace(module)
	if module == "" {
		return target
	}
	return strings.ReplaceAll(module, ".", "/") + ".py"
}

// extractScripts reads package.json scripts and Python console scripts.
func extractScripts(m *manifests) map[string]Script {
	scripts := map[string]Script{}
	if m.pyproject != nil {
		for name, target := range m.pyproject.scripts() {
			scripts[name] = Script{Name: name, Command: name, Description: "Runs " + target}
		}
	}
	if m.pkg != nil {
		for name, cmd := range m.pkg.Scripts {
			scripts[name] = Script{Name: name, Command: cmd}
		}
	}
	return scripts
}

// =============================================================================
// ARCHITECTURE AND DIRECTORIES
// =============================================================================

// detectArchitecture applies the directory rules in order: MVC triad,
// any layered directory, small trees, then custom.
func detectArchitecture(paths []string) Architecture {
	dirs := map[string]bool{}
	for _, p := range paths {
		for _, seg := range dirSegments(p) {
			dirs[seg] = true
		}
	}
	switch {
	case dirs["models"] && dirs["views"] && dirs["controllers"]:
		return Architecture{Pattern: PatternMVC, Description: "Model-View-Controller pattern", Layers: []string{"Models", "Views", "Controllers"}}
	case dirs["services"] || dirs["repositories"] || dirs["controllers"]:
		return Architecture{Pattern: PatternLayered, Description: "Layered architecture", Layers: []string{"Controllers", "Services", "Repositories"}}
	case len(dirs) <= 3:
		return Architecture{Pattern: PatternSimple, Description: "Simple flat structure", Layers: []string{}}
	}
	return Architecture{Pattern: PatternCustom, Description: "Custom architecture", Layers: []string{}}
}

var directoryPurposes = map[string]string{
	"api":          "API routes",
	"cmd":          "Command entry points",
	"components":   "UI components",
	"config":       "Configuration",
	"controllers":  "Controllers",
	"docs":         "Documentation",
	"lib":          "Library code",
	"migrations":   "Database migrations",
	"models":       "Data models",
	"repositories": "Data access layer",
	"routes":       "API routes",
	"scripts":      "Utility scripts",
	"services":     "Business logic",
	"src":          "Source code",
	"static":       "Static assets",
	"templates":    "Templates",
	"test":         "Unit tests",
	"tests":        "Unit tests",
	"utils":        "Utility functions",
	"views":        "View layer",
}

func directoryPurpose(dir string, count int) string {
	if p, ok := directoryPurposes[strings.ToLower(path.Base(dir))]; ok {
		return p
	}
	return fmt.Sprintf("contains %d files", count)
}

// summarizeDirectories groups files by their parent directory. Files at
// the root are not summarized.
func summarizeDirectories(paths []string) []DirectorySummary {
	counts := map[string]int{}
	langs := map[string]map[string]bool{}
	var order []string
	for _, p := range paths {
		dir := path.Dir(p)
		if dir == "." || dir == "/" {
			continue
		}
		if _, ok := counts[dir]; !ok {
			order = append(order, dir)
			langs[dir] = map[string]bool{}
		}
		counts[dir]++
		if l := languageOf(p); l != "" {
			langs[dir][l] = true
		}
	}
	out := make([]DirectorySummary, 0, len(order))
	for _, dir := range order {
		out = append(out, DirectorySummary{
			Path:             dir,
			Purpose:          directoryPurpose(dir, counts[dir]),
			FileCount:        counts[dir],
			PrimaryLanguages: sortedKeys(langs[dir]),
		})
	}
	return out
}

// =============================================================================
// TESTING
// =============================================================================

var testFrameworks = []framework{
	{"pytest", []string{"pytest"}, []string{"pytest"}},
	{"Jest", []string{"@jest/globals", "jest"}, []string{"jest", "ts-jest"}},
	{"Vitest", []string{"vitest"}, []string{"vitest"}},
	{"Mocha", []string{"mocha"}, []string{"mocha"}},
	{"unittest", []string{"unittest"}, nil},
	{"JUnit", []string{"org.junit", "junit"}, []string{"junit", "junit-jupiter", "junit-jupiter-api", "junit-jupiter-engine", "spring-boot-starter-test"}},
}

var coverageTools = []struct {
	name string
	deps []string
}{
	{"coverage.py", []string{"coverage", "pytest-cov"}},
	{"nyc", []string{"nyc"}},
	{"c8", []string{"c8", "@vitest/coverage-v8"}},
	{"JaCoCo", []string{"jacoco-maven-plugin", "org.jacoco.agent"}},
}

func isTestPath(p string) bool {
	return strings.Contains(strings.ToLower(p), "test")
}

func (e *Extractor) extractTesting(files []ladom.File, deps map[string][]Dependency, m *manifests) TestingInfo {
	var info TestingInfo
	var testFiles []ladom.File
	for i := range files {
		if isTestPath(files[i].Path) {
			info.TestCount++
			testFiles = append(testFiles, files[i])
		}
	}

	for i := range testFiles {
		for _, fw := range testFrameworks {
			if fw.matchesImports(testFiles[i].Imports) {
				info.Framework = fw.name
				break
			}
		}
		if info.Framework != "" {
			break
		}
	}
	if info.Framework == "" {
		all := append(append([]Dependency{}, deps[DepDev]...), deps[DepRuntime]...)
		for _, fw := range testFrameworks {
			if fw.matchesDeps(all) {
				info.Framework = fw.name
				break
			}
		}
	}

	names := map[string]bool{}
	for _, bucket := range DependencyTypes {
		for _, d := range deps[bucket] {
			names[strings.ToLower(d.Name)] = true
		}
	}
	if m.pom != nil {
		for _, id := range m.pom.pluginIDs() {
			names[strings.ToLower(id)] = true
		}
	}
	info.CoverageTool = coverageTool(names)
	info.TestCommand = testCommand(info.Framework, m)
	return info
}

func coverageTool(names map[string]bool) string {
	for _, tool := range coverageTools {
		for _, d := range tool.deps {
			if names[d] {
				return tool.name
			}
		}
	}
	return ""
}

func testCommand(framework string, m *manifests) string {
	if m.pkg != nil {
		if _, ok := m.pkg.Scripts["test"]; ok {
			return "npm test"
		}
	}
	switch framework {
	case "pytest":
		return "pytest"
	case "unittest":
		return "python -m unittest"
	case "JUnit":
		if m.pom == nil {
			return "gradle test"
		}
		return "mvn test"
	case "Jest":
		return "npx jest"
	case "Vitest":
		return "npx vitest run"
	case "Mocha":
		return "npx mocha"
	}
	return ""
}

// =============================================================================
// STATISTICS
// =============================================================================

// statistics counts functions including methods, and approximates lines
// from top-level function and class spans.
func statistics(doc []ladom.File) (files, lines, functions, classes int) {
	for i := range doc {
		f := &doc[i]
		functions += len(f.Functions)
		classes += len(f.Classes)
		for _, fn := range f.Functions {
			lines += fn.Lines.Len()
		}
		for _, cls := range f.Classes {
			functions += len(cls.Methods)
			lines += cls.Lines.Len()
		}
	}
	return len(doc), lines, functions, classes
}

// relativeFiles returns shallow copies of files with root-relative paths,
// ordered by path so scoring and first-match rules see a stable order.
func (e *Extractor) relativeFiles(files []ladom.File) []ladom.File {
	out := make([]ladom.File, len(files))
	for i := range files {
		out[i] = files[i]
		out[i].Path = e.rel(files[i].Path)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
