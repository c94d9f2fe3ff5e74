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
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"
)

// pomProject is the subset of a Maven POM the extractor reads. Field tags
// carry no namespace, so elements match by local name whether or not the
// file declares the Maven namespace.
type pomProject struct {
	XMLName     xml.Name `xml:"project"`
	GroupID     string   `xml:"groupId"`
	ArtifactID  string   `xml:"artifactId"`
	Version     string   `xml:"version"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	URL         string   `xml:"url"`
	Parent      struct {
		Version string `xml:"version"`
	} `xml:"parent"`
	Properties struct {
		Entries []pomProperty `xml:",any"`
	} `xml:"properties"`
	Licenses     []string        `xml:"licenses>license>name"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Plugins      []pomDependency `xml:"build>plugins>plugin"`
	SCM          struct {
		URL string `xml:"url"`
	} `xml:"scm"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
}

func (d pomDependency) key() string {
	return d.GroupID + ":" + d.ArtifactID
}

func parsePOM(data []byte) (*pomProject, error) {
	var pom pomProject
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&pom); err != nil {
		return nil, err
	}
	return &pom, nil
}

// projectVersion falls back to the parent's version, which children
// inherit when they omit their own.
func (p *pomProject) projectVersion() string {
	if v := strings.TrimSpace(p.Version); v != "" {
		return v
	}
	return strings.TrimSpace(p.Parent.Version)
}

func (p *pomProject) property(name string) string {
	for _, e := range p.Properties.Entries {
		if e.XMLName.Local == name {
			return strings.TrimSpace(e.Value)
		}
	}
	return ""
}

// javaVersion reads the compiler level from the usual properties.
func (p *pomProject) javaVersion() string {
	for _, name := range []string{"java.version", "maven.compiler.release", "maven.compiler.source"} {
		if v := p.property(name); v != "" {
			return v
		}
	}
	return ""
}

// mavenScopeBucket maps a Maven scope to a dependency bucket.
func mavenScopeBucket(scope string) string {
	if strings.EqualFold(strings.TrimSpace(scope), "test") {
		return DepDev
	}
	return DepRuntime
}

// dependencies returns declared dependencies bucketed by scope. Entries of
// dependencyManagement that are also declared directly are dropped; the
// rest are kept as optional since they only pin versions.
func (p *pomProject) dependencies() map[string][]Dependency {
	out := map[string][]Dependency{}
	declared := map[string]bool{}
	for _, d := range p.Dependencies {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		declared[d.key()] = true
		bucket := mavenScopeBucket(d.Scope)
		out[bucket] = append(out[bucket], Dependency{
			Name:    strings.TrimSpace(d.ArtifactID),
			Version: strings.TrimSpace(d.Version),
			Type:    bucket,
			Source:  pomFile,
		})
	}
	for _, d := range p.Managed {
		if d.GroupID == "" || d.ArtifactID == "" || declared[d.key()] {
			continue
		}
		declared[d.key()] = true
		out[DepOptional] = append(out[DepOptional], Dependency{
			Name:    strings.TrimSpace(d.ArtifactID),
			Version: strings.TrimSpace(d.Version),
			Type:    DepOptional,
			Source:  pomFile,
		})
	}
	return out
}

// pluginIDs returns the artifactIds of build plugins.
func (p *pomProject) pluginIDs() []string {
	ids := make([]string, 0, len(p.Plugins))
	for _, pl := range p.Plugins {
		if pl.ArtifactID != "" {
			ids = append(ids, strings.TrimSpace(pl.ArtifactID))
		}
	}
	return ids
}
