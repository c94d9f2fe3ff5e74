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
	"path/filepath"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// Extractor derives RepoFacts from a LADOM document and the manifests at
// the project root. It is single-use per run and holds no state between
// calls other than its configuration.
type Extractor struct {
	root   string
	logger *slog.Logger
}

// NewExtractor creates an extractor for the project at root. An empty root
// disables every manifest lookup.
func NewExtractor(root string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{root: root, logger: logger}
}

// Extract is a shortcut for NewExtractor(root, nil).Extract(doc).
func Extract(doc *ladom.Document, root string) *RepoFacts {
	return NewExtractor(root, nil).Extract(doc)
}

// rel returns p relative to the project root in slash form.
func (e *Extractor) rel(p string) string {
	return normalizePath(e.root, p)
}

// abs resolves a document path against the project root.
func (e *Extractor) abs(p string) string {
	if filepath.IsAbs(p) || e.root == "" {
		return p
	}
	return filepath.Join(e.root, filepath.FromSlash(p))
}

// Extract builds raw facts. Malformed manifests contribute nothing and
// never fail the extraction. The result still needs Normalize.
func (e *Extractor) Extract(doc *ladom.Document) *RepoFacts {
	if doc == nil {
		doc = &ladom.Document{}
	}
	files := e.relativeFiles(doc.Files)
	paths := make([]string, len(files))
	for i := range files {
		paths[i] = files[i].Path
	}

	m := e.loadManifests()
	deps := e.extractDependencies(m)
	env := e.readEnvFile()

	f := &RepoFacts{
		Project:      e.extractMetadata(doc.ProjectName, m),
		Languages:    tallyLanguages(files),
		EntryPoints:  e.extractEntryPoints(files, m),
		Scripts:      extractScripts(m),
		Dependencies: deps,
		Runtime:      e.extractRuntime(files, env),
		ConfigFiles:  e.extractConfigFiles(env),
		Architecture: detectArchitecture(paths),
		Directories:  summarizeDirectories(paths),
		Testing:      e.extractTesting(files, deps, m),
	}
	languageVersions(f.Languages, m)
	f.Project.Type = e.detectProjectType(files, deps)
	f.Interface = selectInterface(f.Project.Type, e.detectInterfaces(files, deps, f.EntryPoints))
	f.TotalFiles, f.TotalLines, f.TotalFunctions, f.TotalClasses = statistics(files)

	e.logger.Info("facts.extract.done",
		"files", f.TotalFiles,
		"languages", len(f.Languages),
		"functions", f.TotalFunctions,
		"type", f.Project.Type,
	)
	return f
}

// extractMetadata reads identity fields. The version is taken from the
// first manifest that declares one: package.json, pyproject.toml, pom.xml,
// then setup.py.
func (e *Extractor) extractMetadata(name string, m *manifests) ProjectMetadata {
	meta := ProjectMetadata{Name: name, Type: ProjectUnknown}
	if meta.Name == "" || meta.Name == ladom.DefaultProjectName {
		if e.root != "" {
			if abs, err := filepath.Abs(e.root); err == nil {
				meta.Name = filepath.Base(abs)
			}
		}
	}

	var versions, descriptions, licenses, homepages, repos []string
	if m.pkg != nil {
		versions = append(versions, m.pkg.Version)
		descriptions = append(descriptions, m.pkg.Description)
		licenses = append(licenses, m.pkg.license())
		homepages = append(homepages, m.pkg.Homepage)
		repos = append(repos, m.pkg.repositoryURL())
	}
	if m.pyproject != nil {
		versions = append(versions, m.pyproject.version())
		descriptions = append(descriptions, m.pyproject.description())
		licenses = append(licenses, m.pyproject.license())
		homepages = append(homepages, m.pyproject.homepage())
		repos = append(repos, m.pyproject.repository())
	}
	if m.pom != nil {
		versions = append(versions, m.pom.projectVersion())
		descriptions = append(descriptions, m.pom.Description)
		homepages = append(homepages, m.pom.URL)
		repos = append(repos, m.pom.SCM.URL)
		if len(m.pom.Licenses) > 0 {
			licenses = append(licenses, m.pom.Licenses[0])
		}
	}
	versions = append(versions, m.setupVersion)

	meta.Version = firstNonEmpty(versions...)
	meta.Description = firstNonEmpty(descriptions...)
	meta.License = firstNonEmpty(append([]string{m.license}, licenses...)...)
	meta.Homepage = firstNonEmpty(homepages...)
	meta.Repository = firstNonEmpty(repos...)
	return meta
}

// extractDependencies merges every manifest into buckets, in the order
// requirements.txt, pyproject.toml, package.json, pom.xml.
func (e *Extractor) extractDependencies(m *manifests) map[string][]Dependency {
	out := map[string][]Dependency{}
	merge := func(src map[string][]Dependency) {
		for _, bucket := range DependencyTypes {
			out[bucket] = append(out[bucket], src[bucket]...)
		}
	}
	if len(m.requirements) > 0 {
		merge(map[string][]Dependency{DepRuntime: m.requirements})
	}
	if m.pyproject != nil {
		merge(m.pyproject.dependencies())
	}
	if m.pkg != nil {
		merge(m.pkg.dependencies())
	}
	if m.pom != nil {
		merge(m.pom.dependencies())
	}
	for bucket, deps := range out {
		if len(deps) == 0 {
			delete(out, bucket)
		}
	}
	return out
}
