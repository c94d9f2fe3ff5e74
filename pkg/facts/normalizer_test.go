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
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	rftesting "github.com/kraklabs/repofacts/internal/testing"
	"github.com/kraklabs/repofacts/pkg/ladom"
)

func TestNormalizePath(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "elsewhere", "x.py")

	tests := []struct {
		in   string
		want string
	}{
		{filepath.Join(root, "src", "app", "main.py"), "src/app/main.py"},
		{"./cli.py", "cli.py"},
		{"././lib//util.js", "lib/util.js"},
		{"src/app.py", "src/app.py"},
		{outside, filepath.ToSlash(outside)},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(root, tt.in), tt.in)
	}
	assert.Equal(t, "pkg/a.go", normalizePath("", "./pkg/a.go"))
}

func TestNormalize_Languages(t *testing.T) {
	f := &RepoFacts{Languages: []Language{
		{Name: LangPython, FileCount: 2},
		{Name: LangJavaScript, FileCount: 3},
		{Name: LangPython, FileCount: 2, Version: ">=3.9"},
	}}
	Normalize(f, "")

	assert.Equal(t, []Language{
		{Name: LangPython, FileCount: 4, Primary: true, Version: ">=3.9"},
		{Name: LangJavaScript, FileCount: 3},
	}, f.Languages)
}

func TestNormalize_KeepsExistingPrimary(t *testing.T) {
	f := &RepoFacts{Languages: []Language{
		{Name: LangPython, FileCount: 5},
		{Name: LangJava, FileCount: 1, Primary: true},
		{Name: LangGo, FileCount: 1, Primary: true},
	}}
	Normalize(f, "")

	primaries := 0
	for _, l := range f.Languages {
		if l.Primary {
			primaries++
			assert.Equal(t, LangGo, l.Name, "first primary after sorting is kept")
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestNormalize_EntryPoints(t *testing.T) {
	root := t.TempDir()
	f := &RepoFacts{EntryPoints: []EntryPoint{
		{File: "tests.py", Type: EntryTest},
		{File: filepath.Join(root, "cli.py"), Type: EntryCLI},
		{File: "./cli.py", Type: EntryCLI},
		{File: "server.py", Type: EntryMain},
		{File: "app.py", Type: EntryMain},
		{File: "routes.py", Type: EntryAPI},
		{File: "setup.py", Type: EntryScript},
	}}
	Normalize(f, root)

	var got []string
	for _, ep := range f.EntryPoints {
		got = append(got, ep.Type+":"+ep.File)
	}
	assert.Equal(t, []string{"main:app.py", "main:server.py", "cli:cli.py", "api:routes.py", "script:setup.py", "test:tests.py"}, got)
}

func TestNormalize_EntryPointCap(t *testing.T) {
	t.Run("drops tests first", func(t *testing.T) {
		f := &RepoFacts{}
		for i := 0; i < 8; i++ {
			f.EntryPoints = append(f.EntryPoints, EntryPoint{File: fmt.Sprintf("svc%d/main.py", i), Type: EntryMain})
		}
		for i := 0; i < 4; i++ {
			f.EntryPoints = append(f.EntryPoints, EntryPoint{File: fmt.Sprintf("t%d/tests.py", i), Type: EntryTest})
		}
		Normalize(f, "")
		assert.Len(t, f.EntryPoints, 8)
		for _, ep := range f.EntryPoints {
			assert.NotEqual(t, EntryTest, ep.Type)
		}
	})

	t.Run("then truncates", func(t *testing.T) {
		f := &RepoFacts{}
		for i := 0; i < 13; i++ {
			f.EntryPoints = append(f.EntryPoints, EntryPoint{File: fmt.Sprintf("svc%02d/main.py", i), Type: EntryMain})
		}
		Normalize(f, "")
		require.Len(t, f.EntryPoints, MaxEntryPoints)
		assert.Equal(t, "svc00/main.py", f.EntryPoints[0].File)
		assert.Equal(t, "svc09/main.py", f.EntryPoints[9].File)
	})

	t.Run("ten or fewer keeps tests", func(t *testing.T) {
		f := &RepoFacts{EntryPoints: []EntryPoint{{File: "main.py", Type: EntryMain}, {File: "tests.py", Type: EntryTest}}}
		Normalize(f, "")
		assert.Len(t, f.EntryPoints, 2)
	})
}

func TestNormalize_Dependencies(t *testing.T) {
	f := &RepoFacts{Dependencies: map[string][]Dependency{
		DepRuntime: {
			{Name: "requests", Source: requirementsTxt},
			{Name: "os", Source: requirementsTxt},
			{Name: "Flask", Source: requirementsTxt},
			{Name: "requests", Version: "2.0", Source: requirementsTxt},
			{Name: "typing", Source: pyprojectFile},
			{Name: "aiohttp", Source: requirementsTxt},
		},
		DepDev: {
			{Name: "pytest", Source: requirementsTxt},
		},
	}}
	Normalize(f, "")

	var names []string
	for _, d := range f.Dependencies[DepRuntime] {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"aiohttp", "Flask", "requests", "typing"}, names)
	assert.Empty(t, f.Dependencies[DepRuntime][2].Version, "first occurrence wins")
	assert.Len(t, f.Dependencies[DepDev], 1)
	assert.NotNil(t, f.Dependencies[DepPeer])
	assert.NotNil(t, f.Dependencies[DepOptional])
}

func TestNormalize_SortsInventories(t *testing.T) {
	f := &RepoFacts{
		ConfigFiles: []ConfigFile{{File: "tsconfig.json"}, {File: ".env", EnvVars: []string{"PORT", "HOST"}}, {File: "package.json"}},
		Directories: []DirectorySummary{{Path: "src/b"}, {Path: "docs"}, {Path: "src/a"}},
		Runtime:     RuntimeInfo{Ports: []int{9000, 80, 8080, 80, 3000, 5000, 4000}},
	}
	Normalize(f, "")

	assert.Equal(t, ".env", f.ConfigFiles[0].File)
	assert.Equal(t, []string{"HOST", "PORT"}, f.ConfigFiles[0].EnvVars)
	assert.Equal(t, "package.json", f.ConfigFiles[1].File)
	assert.Equal(t, []string{}, f.ConfigFiles[1].EnvVars)
	assert.Equal(t, "docs", f.Directories[0].Path)
	assert.Equal(t, "src/a", f.Directories[1].Path)
	assert.Equal(t, []int{80, 3000, 4000, 5000, 8080}, f.Runtime.Ports)
}

func TestNormalize_SynthesizesInterface(t *testing.T) {
	cli := Normalize(&RepoFacts{Project: ProjectMetadata{Type: ProjectCLI}}, "")
	require.NotNil(t, cli.Interface.CLI)
	assert.Equal(t, "CLI", cli.InterfaceType())

	web := Normalize(&RepoFacts{Project: ProjectMetadata{Type: ProjectWebAPI}}, "")
	require.NotNil(t, web.Interface.WebAPI)
	assert.Equal(t, "/", web.Interface.WebAPI.BasePath)

	lib := Normalize(&RepoFacts{Project: ProjectMetadata{Type: ProjectLibrary}}, "")
	assert.False(t, lib.HasInterface())

	existing := Normalize(&RepoFacts{
		Project:   ProjectMetadata{Type: ProjectCLI},
		Interface: ProjectInterface{GRPC: &GRPCInterface{}},
	}, "")
	assert.Nil(t, existing.Interface.CLI)
}

func TestCleanProjectName(t *testing.T) {
	tests := map[string]string{
		"my_cool/project": "my-cool-project",
		"acme\\tools":     "acme-tools",
		"--__api--":       "api",
		"__":              "project",
		"":                "project",
		"Unnamed Project": "Unnamed Project",
		"a__b--c":         "a-b-c",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanProjectName(in), in)
	}
}

func TestNormalize_Caps(t *testing.T) {
	f := Normalize(&RepoFacts{
		TotalFiles:     20000,
		TotalLines:     20000000,
		TotalFunctions: 5,
		TotalClasses:   10001,
	}, "")
	assert.Equal(t, MaxTotalFiles, f.TotalFiles)
	assert.Equal(t, MaxTotalLines, f.TotalLines)
	assert.Equal(t, 5, f.TotalFunctions)
	assert.Equal(t, MaxTotalClasses, f.TotalClasses)
}

func TestNormalize_Nil(t *testing.T) {
	f := Normalize(nil, "")
	require.NotNil(t, f)
	assert.Equal(t, "project", f.Project.Name)
	assert.Equal(t, ProjectUnknown, f.Project.Type)
	assert.Equal(t, PatternCustom, f.Architecture.Pattern)
	assert.NotNil(t, f.Languages)
	assert.NotNil(t, f.Scripts)
}

func TestNormalize_Idempotent(t *testing.T) {
	root := t.TempDir()
	rftesting.WriteTree(t, root, map[string]string{
		"requirements.txt": "flask>=2.0\nos\nrequests\n",
		"package.json":     `{"name": "mixed", "version": "0.1.0", "scripts": {"start": "node index.js"}, "devDependencies": {"jest": "^29"}}`,
		".env":             "PORT=5000\nAPP_ENV=dev\n",
	})
	doc := &ladom.Document{ProjectName: "mixed_repo", Files: []ladom.File{
		{Path: filepath.Join(root, "api", "routes.py"), Imports: []string{"flask"}},
		{Path: "index.js", Imports: []string{"express"}},
		{Path: "./models/user.py"},
		{Path: "views/user.py"},
		{Path: "controllers/user_controller.py"},
		{Path: "tests/test_routes.py", Imports: []string{"pytest"}},
	}}

	f := Normalize(NewExtractor(root, rftesting.DiscardLogger()).Extract(doc), root)
	first, err := json.Marshal(f)
	require.NoError(t, err)

	Normalize(f, root)
	second, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	assert.Equal(t, "mixed-repo", f.Project.Name)
	assert.Equal(t, PatternMVC, f.Architecture.Pattern)
	assert.Equal(t, "api/routes.py", f.EntryPoints[1].File)
	assert.Equal(t, "npm run start", f.RunCommand())
}

func TestRepoFacts_YAMLRoundTrip(t *testing.T) {
	f := Normalize(&RepoFacts{
		Project:      ProjectMetadata{Name: "svc", Type: ProjectGRPCService, Version: "1.0.0"},
		Languages:    []Language{{Name: LangJava, FileCount: 3}},
		Dependencies: map[string][]Dependency{DepRuntime: {{Name: "grpc-netty", Type: DepRuntime, Source: pomFile}}},
		Interface: ProjectInterface{GRPC: &GRPCInterface{
			Services:   []GRPCService{{Name: "Greeter", File: "greeter.proto", RPCs: []RPC{{Name: "SayHello", Request: "HelloRequest", Response: "HelloReply"}}}},
			ProtoFiles: []string{"greeter.proto"},
		}},
		TotalFiles: 4,
	}, "")

	data, err := yaml.Marshal(f)
	require.NoError(t, err)
	var back RepoFacts
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, f, &back)
}

func TestRepoFacts_Commands(t *testing.T) {
	py := &RepoFacts{
		Languages:   []Language{{Name: LangPython, FileCount: 1}},
		ConfigFiles: []ConfigFile{{File: "pyproject.toml"}},
		EntryPoints: []EntryPoint{{File: "main.py", Type: EntryMain, Command: "python main.py"}},
	}
	assert.Equal(t, "pip install .", py.InstallCommand())
	assert.Equal(t, "python main.py", py.RunCommand())
	assert.Equal(t, LangPython, py.PrimaryLanguage().Name)

	java := &RepoFacts{
		Languages:   []Language{{Name: LangJava, FileCount: 1}},
		ConfigFiles: []ConfigFile{{File: "build.gradle.kts"}},
	}
	assert.Equal(t, "gradle build", java.InstallCommand())
	assert.Empty(t, java.RunCommand())

	assert.Nil(t, (&RepoFacts{}).PrimaryLanguage())
	assert.Empty(t, (&RepoFacts{}).InterfaceType())
}
