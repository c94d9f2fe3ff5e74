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
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// pyproject covers PEP 621 [project] tables and Poetry's [tool.poetry].
type pyproject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Description          string              `toml:"description"`
		RequiresPython       string              `toml:"requires-python"`
		License              any                 `toml:"license"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		Scripts              map[string]string   `toml:"scripts"`
		URLs                 map[string]string   `toml:"urls"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name            string                 `toml:"name"`
			Version         string                 `toml:"version"`
			Description     string                 `toml:"description"`
			License         string                 `toml:"license"`
			Homepage        string                 `toml:"homepage"`
			Repository      string                 `toml:"repository"`
			Dependencies    map[string]any         `toml:"dependencies"`
			DevDependencies map[string]any         `toml:"dev-dependencies"`
			Group           map[string]poetryGroup `toml:"group"`
			Scripts         map[string]any         `toml:"scripts"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type poetryGroup struct {
	Dependencies map[string]any `toml:"dependencies"`
}

func parsePyproject(data []byte) (*pyproject, error) {
	var py pyproject
	if err := toml.Unmarshal(data, &py); err != nil {
		return nil, err
	}
	return &py, nil
}

func (p *pyproject) name() string {
	return firstNonEmpty(p.Project.Name, p.Tool.Poetry.Name)
}

func (p *pyproject) version() string {
	return firstNonEmpty(p.Project.Version, p.Tool.Poetry.Version)
}

func (p *pyproject) description() string {
	return firstNonEmpty(p.Project.Description, p.Tool.Poetry.Description)
}

func (p *pyproject) license() string {
	switch v := p.Project.License.(type) {
	case string:
		return v
	case map[string]any:
		if text, ok := v["text"].(string); ok && len(text) < 40 {
			return text
		}
	}
	return p.Tool.Poetry.License
}

func (p *pyproject) homepage() string {
	for _, key := range []string{"Homepage", "homepage", "Documentation"} {
		if u := p.Project.URLs[key]; u != "" {
			return u
		}
	}
	return p.Tool.Poetry.Homepage
}

func (p *pyproject) repository() string {
	for _, key := range []string{"Repository", "repository", "Source"} {
		if u := p.Project.URLs[key]; u != "" {
			return u
		}
	}
	return p.Tool.Poetry.Repository
}

// pythonVersion returns the declared interpreter constraint.
func (p *pyproject) pythonVersion() string {
	if p.Project.RequiresPython != "" {
		return p.Project.RequiresPython
	}
	return poetryVersion(p.Tool.Poetry.Dependencies["python"])
}

// scripts returns console script name to entry target.
func (p *pyproject) scripts() map[string]string {
	out := map[string]string{}
	for name, target := range p.Project.Scripts {
		out[name] = target
	}
	for name, target := range p.Tool.Poetry.Scripts {
		if s, ok := target.(string); ok {
			out[name] = s
		}
	}
	return out
}

// dependencies buckets runtime requirements and every optional, dev or
// group requirement as dev.
func (p *pyproject) dependencies() map[string][]Dependency {
	out := map[string][]Dependency{}
	addSpec := func(bucket, spec string) {
		if name, version, ok := parseRequirement(spec); ok {
			out[bucket] = append(out[bucket], Dependency{Name: name, Version: version, Type: bucket, Source: pyprojectFile})
		}
	}
	addPoetry := func(bucket string, deps map[string]any) {
		for _, name := range sortedKeys(deps) {
			if strings.EqualFold(name, "python") {
				continue
			}
			out[bucket] = append(out[bucket], Dependency{Name: name, Version: poetryVersion(deps[name]), Type: bucket, Source: pyprojectFile})
		}
	}

	for _, spec := range p.Project.Dependencies {
		addSpec(DepRuntime, spec)
	}
	for _, group := range sortedKeys(p.Project.OptionalDependencies) {
		for _, spec := range p.Project.OptionalDependencies[group] {
			addSpec(DepDev, spec)
		}
	}
	addPoetry(DepRuntime, p.Tool.Poetry.Dependencies)
	addPoetry(DepDev, p.Tool.Poetry.DevDependencies)
	for _, group := range sortedKeys(p.Tool.Poetry.Group) {
		addPoetry(DepDev, p.Tool.Poetry.Group[group].Dependencies)
	}
	return out
}

// poetryVersion reads a Poetry constraint written either as a string or as
// a table with a version key.
func poetryVersion(spec any) string {
	switch v := spec.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
