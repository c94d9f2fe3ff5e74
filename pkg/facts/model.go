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

import "strings"

// ProjectType classifies what a repository builds.
type ProjectType string

const (
	ProjectCLI         ProjectType = "cli"
	ProjectLibrary     ProjectType = "library"
	ProjectWebAPI      ProjectType = "web_api"
	ProjectGraphQLAPI  ProjectType = "graphql_api"
	ProjectGRPCService ProjectType = "grpc_service"
	ProjectBatchJob    ProjectType = "batch_job"
	ProjectEventDriven ProjectType = "event_driven"
	ProjectFrontend    ProjectType = "frontend"
	ProjectDesktop     ProjectType = "desktop"
	ProjectExtension   ProjectType = "extension"
	ProjectIaC         ProjectType = "iac"
	ProjectUnknown     ProjectType = "unknown"
)

// ArchitecturePattern is the detected code organization.
type ArchitecturePattern string

const (
	PatternMVC             ArchitecturePattern = "mvc"
	PatternLayered         ArchitecturePattern = "layered"
	PatternClean           ArchitecturePattern = "clean"
	PatternMicroservices   ArchitecturePattern = "microservices"
	PatternModularMonolith ArchitecturePattern = "modular_monolith"
	PatternSimple          ArchitecturePattern = "simple"
	PatternCustom          ArchitecturePattern = "custom"
)

// Entry point types, in normalized sort order.
const (
	EntryMain   = "main"
	EntryCLI    = "cli"
	EntryAPI    = "api"
	EntryScript = "script"
	EntryTest   = "test"
)

// Dependency buckets.
const (
	DepRuntime  = "runtime"
	DepDev      = "dev"
	DepPeer     = "peer"
	DepOptional = "optional"
)

// DependencyTypes lists every bucket in output order.
var DependencyTypes = []string{DepRuntime, DepDev, DepPeer, DepOptional}

// ProjectMetadata holds identity fields read from manifests.
type ProjectMetadata struct {
	Name        string      `json:"name" yaml:"name"`
	Type        ProjectType `json:"type" yaml:"type"`
	Description string      `json:"description" yaml:"description"`
	Version     string      `json:"version" yaml:"version"`
	License     string      `json:"license" yaml:"license"`
	Homepage    string      `json:"homepage" yaml:"homepage"`
	Repository  string      `json:"repository" yaml:"repository"`
}

// Language is one programming language and the number of files using it.
type Language struct {
	Name      string `json:"name" yaml:"name"`
	FileCount int    `json:"file_count" yaml:"file_count"`
	Primary   bool   `json:"primary" yaml:"primary"`
	Version   string `json:"version" yaml:"version"`
}

// EntryPoint is a file the project is started from.
type EntryPoint struct {
	File        string `json:"file" yaml:"file"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Command     string `json:"command" yaml:"command"`
}

// Script is a named build or run command from a manifest.
type Script struct {
	Name        string `json:"name" yaml:"name"`
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description" yaml:"description"`
}

// Dependency is one declared package. Source names the manifest it came
// from.
type Dependency struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Type    string `json:"type" yaml:"type"`
	Source  string `json:"source" yaml:"source"`
}

// CLICommand is a subcommand of a CLI interface.
type CLICommand struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Arguments   []string `json:"arguments" yaml:"arguments"`
}

// APIEndpoint is one HTTP route.
type APIEndpoint struct {
	Method      string `json:"method" yaml:"method"`
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description" yaml:"description"`
	File        string `json:"file" yaml:"file"`
}

// GraphQLType is a named type of a GraphQL schema.
type GraphQLType struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// RPC is one method of a gRPC service.
type RPC struct {
	Name     string `json:"name" yaml:"name"`
	Request  string `json:"request" yaml:"request"`
	Response string `json:"response" yaml:"response"`
}

// GRPCService is a protobuf service definition.
type GRPCService struct {
	Name string `json:"name" yaml:"name"`
	File string `json:"file" yaml:"file"`
	RPCs []RPC  `json:"rpcs" yaml:"rpcs"`
}

// EventTopic is a message channel an event-driven project uses.
type EventTopic struct {
	Name      string `json:"name" yaml:"name"`
	Direction string `json:"direction" yaml:"direction"`
}

type CLIInterface struct {
	Framework  string       `json:"framework" yaml:"framework"`
	EntryPoint string       `json:"entry_point" yaml:"entry_point"`
	Commands   []CLICommand `json:"commands" yaml:"commands"`
}

type WebAPIInterface struct {
	Framework string        `json:"framework" yaml:"framework"`
	BasePath  string        `json:"base_path" yaml:"base_path"`
	Endpoints []APIEndpoint `json:"endpoints" yaml:"endpoints"`
}

type GraphQLInterface struct {
	Framework  string        `json:"framework" yaml:"framework"`
	SchemaFile string        `json:"schema_file" yaml:"schema_file"`
	Types      []GraphQLType `json:"types" yaml:"types"`
}

type GRPCInterface struct {
	Services   []GRPCService `json:"services" yaml:"services"`
	ProtoFiles []string      `json:"proto_files" yaml:"proto_files"`
}

type EventInterface struct {
	Framework string       `json:"framework" yaml:"framework"`
	Topics    []EventTopic `json:"topics" yaml:"topics"`
}

type IaCInterface struct {
	Tool      string   `json:"tool" yaml:"tool"`
	Resources []string `json:"resources" yaml:"resources"`
	Variables []string `json:"variables" yaml:"variables"`
	Outputs   []string `json:"outputs" yaml:"outputs"`
}

// ProjectInterface holds at most one populated variant.
type ProjectInterface struct {
	CLI         *CLIInterface     `json:"cli,omitempty" yaml:"cli,omitempty"`
	WebAPI      *WebAPIInterface  `json:"web_api,omitempty" yaml:"web_api,omitempty"`
	GraphQL     *GraphQLInterface `json:"graphql,omitempty" yaml:"graphql,omitempty"`
	GRPC        *GRPCInterface    `json:"grpc,omitempty" yaml:"grpc,omitempty"`
	EventDriven *EventInterface   `json:"event_driven,omitempty" yaml:"event_driven,omitempty"`
	IaC         *IaCInterface     `json:"iac,omitempty" yaml:"iac,omitempty"`
}

// RuntimeInfo describes how the project listens once started.
type RuntimeInfo struct {
	Ports       []int  `json:"ports" yaml:"ports"`
	Host        string `json:"host" yaml:"host"`
	Environment string `json:"environment" yaml:"environment"`
}

// ConfigFile is a well-known configuration file found at the project root.
type ConfigFile struct {
	File        string   `json:"file" yaml:"file"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	EnvVars     []string `json:"env_vars" yaml:"env_vars"`
}

// Architecture is the detected layout pattern.
type Architecture struct {
	Pattern     ArchitecturePattern `json:"pattern" yaml:"pattern"`
	Description string              `json:"description" yaml:"description"`
	Layers      []string            `json:"layers" yaml:"layers"`
}

// DirectorySummary describes one directory holding analyzed files.
type DirectorySummary struct {
	Path             string   `json:"path" yaml:"path"`
	Purpose          string   `json:"purpose" yaml:"purpose"`
	FileCount        int      `json:"file_count" yaml:"file_count"`
	PrimaryLanguages []string `json:"primary_languages" yaml:"primary_languages"`
}

// TestingInfo describes the project's test setup.
type TestingInfo struct {
	Framework    string `json:"framework" yaml:"framework"`
	TestCount    int    `json:"test_count" yaml:"test_count"`
	CoverageTool string `json:"coverage_tool" yaml:"coverage_tool"`
	TestCommand  string `json:"test_command" yaml:"test_command"`
}

// RepoFacts is the classified summary of one repository. It is derived
// from a LADOM document plus the manifests at the project root.
type RepoFacts struct {
	Project      ProjectMetadata         `json:"project" yaml:"project"`
	Languages    []Language              `json:"languages" yaml:"languages"`
	EntryPoints  []EntryPoint            `json:"entry_points" yaml:"entry_points"`
	Scripts      map[string]Script       `json:"scripts" yaml:"scripts"`
	Dependencies map[string][]Dependency `json:"dependencies" yaml:"dependencies"`
	Interface    ProjectInterface        `json:"interface" yaml:"interface"`
	Runtime      RuntimeInfo             `json:"runtime" yaml:"runtime"`
	ConfigFiles  []ConfigFile            `json:"config_files" yaml:"config_files"`
	Architecture Architecture            `json:"architecture" yaml:"architecture"`
	Directories  []DirectorySummary      `json:"directory_structure" yaml:"directory_structure"`
	Testing      TestingInfo             `json:"testing" yaml:"testing"`

	TotalFiles     int `json:"total_files" yaml:"total_files"`
	TotalLines     int `json:"total_lines" yaml:"total_lines"`
	TotalFunctions int `json:"total_functions" yaml:"total_functions"`
	TotalClasses   int `json:"total_classes" yaml:"total_classes"`
}

// PrimaryLanguage returns the language marked primary, or the one with the
// most files when none is marked. It returns nil when no language was
// detected.
func (f *RepoFacts) PrimaryLanguage() *Language {
	var best *Language
	for i := range f.Languages {
		if f.Languages[i].Primary {
			return &f.Languages[i]
		}
		if best == nil || f.Languages[i].FileCount > best.FileCount {
			best = &f.Languages[i]
		}
	}
	return best
}

// HasInterface reports whether any interface variant is populated.
func (f *RepoFacts) HasInterface() bool {
	i := f.Interface
	return i.CLI != nil || i.WebAPI != nil || i.GraphQL != nil || i.GRPC != nil || i.EventDriven != nil || i.IaC != nil
}

// InterfaceType returns a display name for the populated interface, or ""
// when there is none.
func (f *RepoFacts) InterfaceType() string {
	i := f.Interface
	switch {
	case i.CLI != nil:
		return "CLI"
	case i.WebAPI != nil:
		return "Web API"
	case i.GraphQL != nil:
		return "GraphQL"
	case i.GRPC != nil:
		return "gRPC"
	case i.EventDriven != nil:
		return "Event-Driven"
	case i.IaC != nil:
		return "Infrastructure as Code"
	}
	return ""
}

// HasLanguage reports whether name was detected, ignoring case.
func (f *RepoFacts) HasLanguage(name string) bool {
	for _, l := range f.Languages {
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}

// HasConfigFile reports whether a config file with the given root-relative
// path was found.
func (f *RepoFacts) HasConfigFile(name string) bool {
	for _, c := range f.ConfigFiles {
		if c.File == name {
			return true
		}
	}
	return false
}

// InstallCommand returns the package-manager install command for the
// detected ecosystem, or "".
func (f *RepoFacts) InstallCommand() string {
	if (f.HasLanguage(LangJavaScript) || f.HasLanguage(LangTypeScript)) && f.HasConfigFile("package.json") {
		return "npm install"
	}
	if f.HasLanguage(LangPython) {
		if f.HasConfigFile("requirements.txt") {
			return "pip install -r requirements.txt"
		}
		if f.HasConfigFile("pyproject.toml") {
			return "pip install ."
		}
	}
	if f.HasLanguage(LangJava) {
		if f.HasConfigFile("pom.xml") {
			return "mvn install"
		}
		if f.HasConfigFile("build.gradle") || f.HasConfigFile("build.gradle.kts") {
			return "gradle build"
		}
	}
	return ""
}

// RunCommand returns the primary run command: a start-like script first,
// then the main entry point's command.
func (f *RepoFacts) RunCommand() string {
	for _, name := range []string{"start", "dev", "run", "serve"} {
		s, ok := f.Scripts[name]
		if !ok {
			continue
		}
		if f.HasLanguage(LangJavaScript) || f.HasLanguage(LangTypeScript) {
			return "npm run " + name
		}
		if f.HasLanguage(LangPython) {
			return s.Command
		}
	}
	for _, ep := range f.EntryPoints {
		if ep.Type == EntryMain && ep.Command != "" {
			return ep.Command
		}
	}
	return ""
}

// DependencyCount returns the number of dependencies across all buckets.
func (f *RepoFacts) DependencyCount() int {
	n := 0
	for _, deps := range f.Dependencies {
		n += len(deps)
	}
	return n
}
