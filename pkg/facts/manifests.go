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
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Manifest file names consulted at the project root.
const (
	requirementsTxt = "requirements.txt"
	packageJSONFile = "package.json"
	pyprojectFile   = "pyproject.toml"
	pomFile         = "pom.xml"
	setupPy         = "setup.py"
)

// manifests caches every manifest parsed from the project root so each
// extraction step reads them once. A nil field means the manifest is
// missing or malformed.
type manifests struct {
	pkg          *packageJSON
	pyproject    *pyproject
	pom          *pomProject
	requirements []Dependency
	setupVersion string
	license      string
}

// readRootFile reads name from the project root. A missing file is not an
// error; anything else is logged and treated as missing.
func (e *Extractor) readRootFile(name string) ([]byte, bool) {
	if e.root == "" {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(e.root, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("facts.manifest.unreadable", "file", name, "err", err)
		}
		return nil, false
	}
	return data, true
}

func (e *Extractor) loadManifests() *manifests {
	m := &manifests{}
	if data, ok := e.readRootFile(requirementsTxt); ok {
		m.requirements = parseRequirementsTxt(data)
	}
	if data, ok := e.readRootFile(packageJSONFile); ok {
		pkg, err := parsePackageJSON(data)
		if err != nil {
			e.logger.Warn("facts.manifest.invalid", "file", packageJSONFile, "err", err)
		} else {
			m.pkg = pkg
		}
	}
	if data, ok := e.readRootFile(pyprojectFile); ok {
		py, err := parsePyproject(data)
		if err != nil {
			e.logger.Warn("facts.manifest.invalid", "file", pyprojectFile, "err", err)
		} else {
			m.pyproject = py
		}
	}
	if data, ok := e.readRootFile(pomFile); ok {
		pom, err := parsePOM(data)
		if err != nil {
			e.logger.Warn("facts.manifest.invalid", "file", pomFile, "err", err)
		} else {
			m.pom = pom
		}
	}
	if data, ok := e.readRootFile(setupPy); ok {
		if match := setupVersionPattern.FindSubmatch(data); match != nil {
			m.setupVersion = string(match[1])
		}
	}
	for _, name := range []string{"LICENSE", "LICENSE.md", "LICENSE.txt"} {
		if data, ok := e.readRootFile(name); ok {
			m.license = detectLicense(data)
			break
		}
	}
	return m
}

// =============================================================================
// REQUIREMENTS.TXT
// =============================================================================

var (
	requirementPattern  = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*(.*)$`)
	setupVersionPattern = regexp.MustCompile(`version\s*=\s*["']([^"']+)["']`)
)

// parseRequirement splits a PEP 508 style specifier into name and version.
// The version is whatever follows the first comparison operator, with the
// operator characters trimmed. Environment markers and extras are dropped.
func parseRequirement(spec string) (name, version string, ok bool) {
	if i := strings.IndexByte(spec, ';'); i >= 0 {
		spec = spec[:i]
	}
	m := requirementPattern.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return "", "", false
	}
	rest := strings.TrimSpace(m[2])
	if strings.HasPrefix(rest, "@") {
		return m[1], "", true
	}
	return m[1], strings.TrimSpace(strings.TrimLeft(rest, "<>=!~^ ")), true
}

// parseRequirementsTxt reads one requirement per line. Include files,
// editable installs and pip options are skipped.
func parseRequirementsTxt(data []byte) []Dependency {
	var deps []Dependency
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		name, version, ok := parseRequirement(line)
		if !ok {
			continue
		}
		deps = append(deps, Dependency{Name: name, Version: version, Type: DepRuntime, Source: requirementsTxt})
	}
	return deps
}

// =============================================================================
// PACKAGE.JSON
// =============================================================================

type packageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Description          string            `json:"description"`
	License              json.RawMessage   `json:"license"`
	Homepage             string            `json:"homepage"`
	Repository           json.RawMessage   `json:"repository"`
	Bin                  json.RawMessage   `json:"bin"`
	Scripts              map[string]string `json:"scripts"`
	Engines              map[string]string `json:"engines"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func parsePackageJSON(data []byte) (*packageJSON, error) {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// repositoryURL accepts both the string and the {"url": ...} forms.
func (p *packageJSON) repositoryURL() string {
	return stringOrField(p.Repository, "url")
}

func (p *packageJSON) license() string {
	return stringOrField(p.License, "type")
}

// bins returns command name to script path. A string bin is named after
// the package.
func (p *packageJSON) bins() map[string]string {
	if len(p.Bin) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(p.Bin, &single); err == nil {
		name := p.Name
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		return map[string]string{name: single}
	}
	var many map[string]string
	if err := json.Unmarshal(p.Bin, &many); err == nil {
		return many
	}
	return nil
}

// dependencies flattens the four dependency maps into buckets.
func (p *packageJSON) dependencies() map[string][]Dependency {
	out := map[string][]Dependency{}
	add := func(bucket string, deps map[string]string) {
		for _, name := range sortedKeys(deps) {
			out[bucket] = append(out[bucket], Dependency{Name: name, Version: deps[name], Type: bucket, Source: packageJSONFile})
		}
	}
	add(DepRuntime, p.Dependencies)
	add(DepDev, p.DevDependencies)
	add(DepPeer, p.PeerDependencies)
	add(DepOptional, p.OptionalDependencies)
	return out
}

func stringOrField(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if v, ok := obj[field].(string); ok {
			return v
		}
	}
	return ""
}

// =============================================================================
// LICENSE
// =============================================================================

// detectLicense classifies a license text from its first 500 bytes.
func detectLicense(data []byte) string {
	if len(data) > 500 {
		data = data[:500]
	}
	text := string(data)
	switch {
	case strings.Contains(text, "MIT"):
		return "MIT"
	case strings.Contains(text, "Apache"):
		return "Apache-2.0"
	case strings.Contains(text, "GPL"), strings.Contains(text, "GNU GENERAL PUBLIC"), strings.Contains(text, "GNU AFFERO"):
		return "GPL"
	case strings.Contains(text, "BSD"):
		return "BSD"
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
