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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// wellKnownConfig lists the root files recorded in the config inventory.
var wellKnownConfig = []struct {
	file        string
	typ         string
	description string
}{
	{"package.json", "json", "Node.js package configuration"},
	{"requirements.txt", "text", "Python dependencies"},
	{"setup.py", "python", "Python package setup"},
	{"pyproject.toml", "toml", "Python project configuration"},
	{"pom.xml", "xml", "Maven project configuration"},
	{"build.gradle", "gradle", "Gradle build configuration"},
	{"build.gradle.kts", "gradle", "Gradle build configuration"},
	{"tsconfig.json", "json", "TypeScript configuration"},
	{"vite.config.ts", "typescript", "Vite build configuration"},
	{"vite.config.js", "javascript", "Vite build configuration"},
	{"action.yml", "yaml", "GitHub Action configuration"},
	{"action.yaml", "yaml", "GitHub Action configuration"},
	{"config.yaml", "yaml", "YAML configuration"},
	{"config.yml", "yaml", "YAML configuration"},
	{".env", "env", "Environment variables"},
	{"docker-compose.yml", "yaml", "Docker Compose configuration"},
	{"docker-compose.yaml", "yaml", "Docker Compose configuration"},
	{"Dockerfile", "docker", "Docker container definition"},
}

var composeFiles = []string{"docker-compose.yml", "docker-compose.yaml", "compose.yaml", "compose.yml"}

func (e *Extractor) rootFileExists(name string) bool {
	if e.root == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(e.root, name))
	return err == nil && info.Mode().IsRegular()
}

// readEnvFile parses the root .env file. Values are not expanded into the
// process environment.
func (e *Extractor) readEnvFile() map[string]string {
	data, ok := e.readRootFile(".env")
	if !ok {
		return nil
	}
	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		e.logger.Warn("facts.manifest.invalid", "file", ".env", "err", err)
		return nil
	}
	return env
}

type actionManifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Runs        struct {
		Using string `yaml:"using"`
	} `yaml:"runs"`
}

func (e *Extractor) readAction(name string) *actionManifest {
	data, ok := e.readRootFile(name)
	if !ok {
		return nil
	}
	var a actionManifest
	if err := yaml.Unmarshal(data, &a); err != nil {
		e.logger.Warn("facts.manifest.invalid", "file", name, "err", err)
		return nil
	}
	return &a
}

// extractConfigFiles inventories well-known root files plus root *.tf.
func (e *Extractor) extractConfigFiles(env map[string]string) []ConfigFile {
	var out []ConfigFile
	for _, c := range wellKnownConfig {
		if !e.rootFileExists(c.file) {
			continue
		}
		cf := ConfigFile{File: c.file, Type: c.typ, Description: c.description, EnvVars: []string{}}
		switch c.file {
		case ".env":
			cf.EnvVars = sortedKeys(env)
		case "action.yml", "action.yaml":
			if a := e.readAction(c.file); a != nil && strings.TrimSpace(a.Description) != "" {
				cf.Description = strings.TrimSpace(a.Description)
			}
		}
		out = append(out, cf)
	}
	if e.root != "" {
		matches, _ := filepath.Glob(filepath.Join(e.root, "*.tf"))
		sort.Strings(matches)
		for _, m := range matches {
			out = append(out, ConfigFile{
				File:        filepath.Base(m),
				Type:        "terraform",
				Description: "Terraform infrastructure configuration",
				EnvVars:     []string{},
			})
		}
	}
	return out
}

// =============================================================================
// RUNTIME
// =============================================================================

const maxPorts = 5

var (
	summaryPortPattern = regexp.MustCompile(`(?i)port[=\s:]+(\d{4,5})`)
	exposePattern      = regexp.MustCompile(`(?im)^\s*EXPOSE\s+(.+)$`)
)

// parsePort accepts "8080", "8080/tcp" and ranges like "3000-3005", which
// yield their first port.
func parsePort(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, "-")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return 0, false
	}
	return n, true
}

type composeFile struct {
	Services map[string]struct {
		Ports []any `yaml:"ports"`
	} `yaml:"services"`
}

// composePorts returns host-side ports published by compose services.
// Short syntax "[ip:]host:container" and long syntax {published: n} are
// both understood.
func composePorts(data []byte) ([]int, error) {
	var cf composeFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	var ports []int
	for _, name := range sortedKeys(cf.Services) {
		for _, entry := range cf.Services[name].Ports {
			var spec string
			switch v := entry.(type) {
			case int:
				spec = strconv.Itoa(v)
			case string:
				parts := strings.Split(v, ":")
				spec = parts[0]
				if len(parts) == 3 {
					spec = parts[1]
				}
			case map[string]any:
				spec = fmt.Sprint(v["published"])
				if v["published"] == nil {
					spec = fmt.Sprint(v["target"])
				}
			}
			if p, ok := parsePort(spec); ok {
				ports = append(ports, p)
			}
		}
	}
	return ports, nil
}

// extractRuntime gathers ports, host and environment name.
func (e *Extractor) extractRuntime(files []ladom.File, env map[string]string) RuntimeInfo {
	var ports []int
	for i := range files {
		for _, m := range summaryPortPattern.FindAllStringSubmatch(files[i].Summary, -1) {
			if p, ok := parsePort(m[1]); ok {
				ports = append(ports, p)
			}
		}
	}
	for _, name := range composeFiles {
		data, ok := e.readRootFile(name)
		if !ok {
			continue
		}
		found, err := composePorts(data)
		if err != nil {
			e.logger.Warn("facts.manifest.invalid", "file", name, "err", err)
			continue
		}
		ports = append(ports, found...)
	}
	if p, ok := parsePort(env["PORT"]); ok {
		ports = append(ports, p)
	}
	if data, ok := e.readRootFile("Dockerfile"); ok {
		for _, m := range exposePattern.FindAllStringSubmatch(string(data), -1) {
			for _, field := range strings.Fields(m[1]) {
				if p, ok := parsePort(field); ok {
					ports = append(ports, p)
				}
			}
		}
	}

	rt := RuntimeInfo{Ports: uniquePorts(ports), Host: env["HOST"]}
	for _, key := range []string{"ENV", "NODE_ENV", "APP_ENV"} {
		if v := env[key]; v != "" {
			rt.Environment = v
			break
		}
	}
	return rt
}

// uniquePorts deduplicates, sorts and caps a port list.
func uniquePorts(ports []int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, p := range ports {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	if len(out) > maxPorts {
		out = out[:maxPorts]
	}
	return out
}
