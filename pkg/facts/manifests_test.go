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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		spec        string
		wantName    string
		wantVersion string
		wantOK      bool
	}{
		{"requests>=2.0.0", "requests", "2.0.0", true},
		{"flask==2.3.1", "flask", "2.3.1", true},
		{"Django ~= 4.2", "Django", "4.2", true},
		{"uvicorn[standard]>=0.20; python_version > '3.8'", "uvicorn", "0.20", true},
		{"numpy", "numpy", "", true},
		{"mypkg @ https://example.com/mypkg.zip", "mypkg", "", true},
		{"zope.interface!=5.0", "zope.interface", "5.0", true},
		{">=1.0", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			name, version, ok := parseRequirement(tt.spec)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestParseRequirementsTxt(t *testing.T) {
	data := []byte(`# web stack
requests>=2.0.0
-r base.txt
-e git+https://github.com/acme/lib.git#egg=lib
--index-url https://pypi.example.com/simple

flask==2.3.1  # pinned
`)
	deps := parseRequirementsTxt(data)
	require.Len(t, deps, 2)
	assert.Equal(t, Dependency{Name: "requests", Version: "2.0.0", Type: DepRuntime, Source: requirementsTxt}, deps[0])
	assert.Equal(t, "flask", deps[1].Name)
	assert.Equal(t, "2.3.1", deps[1].Version)
}

func TestParsePackageJSON(t *testing.T) {
	pkg, err := parsePackageJSON([]byte(`{
  "name": "@acme/tool",
  "version": "1.4.0",
  "license": {"type": "MIT"},
  "repository": {"type": "git", "url": "https://github.com/acme/tool"},
  "bin": "./bin/tool.js",
  "engines": {"node": ">=18"},
  "dependencies": {"express": "^4.18.0", "commander": "^11.0.0"},
  "devDependencies": {"jest": "^29.0.0"},
  "peerDependencies": {"react": ">=18"},
  "optionalDependencies": {"fsevents": "^2.3.0"}
}`))
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/acme/tool", pkg.repositoryURL())
	assert.Equal(t, "MIT", pkg.license())
	assert.Equal(t, map[string]string{"tool": "./bin/tool.js"}, pkg.bins())

	deps := pkg.dependencies()
	require.Len(t, deps[DepRuntime], 2)
	assert.Equal(t, "commander", deps[DepRuntime][0].Name)
	assert.Equal(t, "express", deps[DepRuntime][1].Name)
	assert.Equal(t, "jest", deps[DepDev][0].Name)
	assert.Equal(t, DepPeer, deps[DepPeer][0].Type)
	assert.Equal(t, "fsevents", deps[DepOptional][0].Name)

	_, err = parsePackageJSON([]byte(`{"name": `))
	assert.Error(t, err)
}

func TestPackageJSON_BinMap(t *testing.T) {
	pkg, err := parsePackageJSON([]byte(`{"name": "multi", "bin": {"a": "bin/a.js", "b": "bin/b.js"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "bin/a.js", "b": "bin/b.js"}, pkg.bins())
}

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0"
         xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>org.springframework.boot</groupId>
    <artifactId>spring-boot-starter-parent</artifactId>
    <version>3.2.0</version>
  </parent>
  <groupId>com.acme</groupId>
  <artifactId>orders</artifactId>
  <description>Order service</description>
  <properties>
    <java.version>17</java.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>5.10.0</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>org.projectlombok</groupId>
      <artifactId>lombok</artifactId>
      <scope>provided</scope>
    </dependency>
    <dependency>
      <artifactId>no-group</artifactId>
    </dependency>
  </dependencies>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.springframework.boot</groupId>
        <artifactId>spring-boot-starter-web</artifactId>
        <version>3.2.0</version>
      </dependency>
      <dependency>
        <groupId>com.fasterxml.jackson</groupId>
        <artifactId>jackson-bom</artifactId>
        <version>2.16.0</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <build>
    <plugins>
      <plugin>
        <groupId>org.jacoco</groupId>
        <artifactId>jacoco-maven-plugin</artifactId>
      </plugin>
    </plugins>
  </build>
</project>
`

func TestParsePOM(t *testing.T) {
	pom, err := parsePOM([]byte(samplePOM))
	require.NoError(t, err)

	assert.Equal(t, "orders", pom.ArtifactID)
	assert.Equal(t, "3.2.0", pom.projectVersion())
	assert.Equal(t, "17", pom.javaVersion())
	assert.Equal(t, []string{"jacoco-maven-plugin"}, pom.pluginIDs())

	deps := pom.dependencies()
	require.Len(t, deps[DepRuntime], 2)
	assert.Equal(t, "spring-boot-starter-web", deps[DepRuntime][0].Name)
	assert.Equal(t, "lombok", deps[DepRuntime][1].Name)
	require.Len(t, deps[DepDev], 1)
	assert.Equal(t, Dependency{Name: "junit-jupiter", Version: "5.10.0", Type: DepDev, Source: pomFile}, deps[DepDev][0])
	require.Len(t, deps[DepOptional], 1, "declared dependency must not be repeated from dependencyManagement")
	assert.Equal(t, "jackson-bom", deps[DepOptional][0].Name)
}

func TestParsePOM_Malformed(t *testing.T) {
	_, err := parsePOM([]byte(`<project><dependencies>`))
	assert.Error(t, err)
}

func TestMavenScopeBucket(t *testing.T) {
	assert.Equal(t, DepDev, mavenScopeBucket("test"))
	assert.Equal(t, DepDev, mavenScopeBucket(" TEST "))
	for _, scope := range []string{"", "compile", "runtime", "provided", "system"} {
		assert.Equal(t, DepRuntime, mavenScopeBucket(scope), scope)
	}
}

const samplePyproject = `[project]
name = "acme"
version = "0.3.0"
description = "Acme tools"
requires-python = ">=3.10"
dependencies = ["requests>=2.0.0", "click"]

[project.optional-dependencies]
test = ["pytest>=7"]

[project.scripts]
acme = "acme.cli:main"

[tool.poetry.dependencies]
python = "^3.10"
httpx = { version = "^0.27", optional = true }

[tool.poetry.group.dev.dependencies]
ruff = "^0.4"
`

func TestParsePyproject(t *testing.T) {
	py, err := parsePyproject([]byte(samplePyproject))
	require.NoError(t, err)

	assert.Equal(t, "acme", py.name())
	assert.Equal(t, "0.3.0", py.version())
	assert.Equal(t, "Acme tools", py.description())
	assert.Equal(t, ">=3.10", py.pythonVersion())
	assert.Equal(t, map[string]string{"acme": "acme.cli:main"}, py.scripts())

	deps := py.dependencies()
	require.Len(t, deps[DepRuntime], 3)
	assert.Equal(t, Dependency{Name: "requests", Version: "2.0.0", Type: DepRuntime, Source: pyprojectFile}, deps[DepRuntime][0])
	assert.Equal(t, "click", deps[DepRuntime][1].Name)
	assert.Equal(t, Dependency{Name: "httpx", Version: "^0.27", Type: DepRuntime, Source: pyprojectFile}, deps[DepRuntime][2])

	require.Len(t, deps[DepDev], 2)
	assert.Equal(t, "pytest", deps[DepDev][0].Name)
	assert.Equal(t, "7", deps[DepDev][0].Version)
	assert.Equal(t, "ruff", deps[DepDev][1].Name)
}

func TestDetectLicense(t *testing.T) {
	tests := map[string]string{
		"MIT License\n\nCopyright (c) 2024":         "MIT",
		"Apache License\nVersion 2.0, January 2004": "Apache-2.0",
		"GNU GENERAL PUBLIC LICENSE\nVersion 3":     "GPL",
		"BSD 3-Clause License":                      "BSD",
		"All rights reserved.":                      "",
	}
	for text, want := range tests {
		assert.Equal(t, want, detectLicense([]byte(text)), text)
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"8080", 8080, true},
		{"9090/tcp", 9090, true},
		{"3000-3005", 3000, true},
		{"$PORT", 0, false},
		{"70000", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePort(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestComposePorts(t *testing.T) {
	ports, err := composePorts([]byte(`services:
  web:
    ports:
      - "3000:3000"
      - "127.0.0.1:9229:9229"
  db:
    ports:
      - target: 5432
        published: 5433
  worker:
    image: busybox
`))
	require.NoError(t, err)
	assert.Equal(t, []int{5433, 3000, 9229}, ports)

	_, err = composePorts([]byte("services: [unclosed"))
	assert.Error(t, err)
}
