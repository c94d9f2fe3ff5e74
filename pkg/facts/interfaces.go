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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// framework identifies a library by import prefix and dependency name.
// Both lists are lowercase.
type framework struct {
	name    string
	imports []string
	deps    []string
}

// Catalogs are in priority order: within one file the first listed
// framework wins.
var (
	cliFrameworks = []framework{
		{"Typer", []string{"typer"}, []string{"typer"}},
		{"Click", []string{"click"}, []string{"click"}},
		{"argparse", []string{"argparse"}, nil},
		{"Commander", []string{"commander"}, []string{"commander"}},
		{"yargs", []string{"yargs"}, []string{"yargs"}},
		{"picocli", []string{"picocli"}, []string{"picocli", "picocli-spring-boot-starter"}},
	}
	webFrameworks = []framework{
		{"FastAPI", []string{"fastapi"}, []string{"fastapi"}},
		{"Flask", []string{"flask"}, []string{"flask"}},
		{"Django", []string{"django", "rest_framework"}, []string{"django", "djangorestframework"}},
		{"Express", []string{"express"}, []string{"express"}},
		{"NestJS", []string{"@nestjs"}, []string{"@nestjs/core", "@nestjs/common"}},
		{"Spring Web", []string{"org.springframework.web"}, []string{"spring-boot-starter-web", "spring-boot-starter-webflux", "spring-webmvc", "spring-web"}},
	}
	graphqlFrameworks = []framework{
		{"Apollo", []string{"@apollo/server", "apollo-server", "apollo-server-express"}, []string{"@apollo/server", "apollo-server", "apollo-server-express"}},
		{"Graphene", []string{"graphene", "graphene_django"}, []string{"graphene", "graphene-django"}},
		{"Strawberry", []string{"strawberry"}, []string{"strawberry-graphql"}},
		{"graphql-java", []string{"graphql.schema", "graphql.execution", "graphql.graphql", "com.netflix.graphql"}, []string{"graphql-java", "graphql-java-tools", "spring-boot-starter-graphql"}},
		{"GraphQL", []string{"graphql", "graphql-yoga", "type-graphql"}, []string{"graphql", "graphql-yoga", "type-graphql"}},
	}
	eventFrameworks = []framework{
		{"Kafka", []string{"kafka", "kafkajs", "confluent_kafka", "org.apache.kafka", "org.springframework.kafka"}, []string{"kafka-python", "kafkajs", "confluent-kafka", "kafka-clients", "spring-kafka"}},
		{"RabbitMQ", []string{"pika", "aio_pika", "amqplib", "com.rabbitmq", "org.springframework.amqp"}, []string{"pika", "aio-pika", "amqplib", "amqp-client", "spring-boot-starter-amqp"}},
		{"Celery", []string{"celery"}, []string{"celery"}},
		{"Bull", []string{"bull", "bullmq"}, []string{"bull", "bullmq"}},
		{"Spring Cloud Stream", []string{"org.springframework.cloud.stream"}, []string{"spring-cloud-stream", "spring-cloud-starter-stream-kafka", "spring-cloud-starter-stream-rabbit"}},
	}
	grpcMarkers = framework{"gRPC", []string{"grpc", "io.grpc", "@grpc/grpc-js", "@grpc/proto-loader"}, []string{"grpcio", "@grpc/grpc-js", "grpc-netty", "grpc-stub", "grpc-protobuf"}}
)

// importMatches reports whether an import names module or one of its
// submodules.
func importMatches(imp, module string) bool {
	imp = strings.ToLower(imp)
	if imp == module {
		return true
	}
	return strings.HasPrefix(imp, module+".") || strings.HasPrefix(imp, module+"/")
}

func (fw framework) matchesImports(imports []string) bool {
	for _, imp := range imports {
		for _, m := range fw.imports {
			if importMatches(imp, m) {
				return true
			}
		}
	}
	return false
}

func (fw framework) matchesDeps(deps []Dependency) bool {
	for _, d := range deps {
		name := strings.ToLower(d.Name)
		for _, want := range fw.deps {
			if name == want {
				return true
			}
		}
	}
	return false
}

// detectFramework scans imports file by file and returns the first match
// together with the file that produced it. Only when no file matches are
// runtime dependencies consulted.
func detectFramework(files []ladom.File, deps map[string][]Dependency, catalog []framework) (name, file string) {
	for i := range files {
		for _, fw := range catalog {
			if fw.matchesImports(files[i].Imports) {
				return fw.name, files[i].Path
			}
		}
	}
	for _, fw := range catalog {
		if fw.matchesDeps(deps[DepRuntime]) {
			return fw.name, ""
		}
	}
	return "", ""
}

// interfaceCandidates holds the result of every detector before one is
// chosen.
type interfaceCandidates struct {
	cli     *CLIInterface
	web     *WebAPIInterface
	graphql *GraphQLInterface
	grpc    *GRPCInterface
	event   *EventInterface
	iac     *IaCInterface
}

func (e *Extractor) detectInterfaces(files []ladom.File, deps map[string][]Dependency, entries []EntryPoint) interfaceCandidates {
	var c interfaceCandidates

	if name, file := detectFramework(files, deps, cliFrameworks); name != "" {
		c.cli = &CLIInterface{Framework: name, EntryPoint: file, Commands: []CLICommand{}}
		if c.cli.EntryPoint == "" {
			for _, ep := range entries {
				if ep.Type == EntryCLI {
					c.cli.EntryPoint = ep.File
					break
				}
			}
		}
	}
	if name, _ := detectFramework(files, deps, webFrameworks); name != "" {
		c.web = &WebAPIInterface{Framework: name, BasePath: "/", Endpoints: []APIEndpoint{}}
	}

	schema := ""
	for i := range files {
		if files[i].Language == ladom.LanguageGraphQL || ladom.LanguageForPath(files[i].Path) == ladom.LanguageGraphQL {
			schema = files[i].Path
			break
		}
	}
	if name, _ := detectFramework(files, deps, graphqlFrameworks); name != "" || schema != "" {
		c.graphql = &GraphQLInterface{Framework: name, SchemaFile: schema, Types: []GraphQLType{}}
	}

	c.grpc = e.detectGRPC(files, deps)

	if name, _ := detectFramework(files, deps, eventFrameworks); name != "" {
		c.event = &EventInterface{Framework: name, Topics: []EventTopic{}}
	}

	c.iac = e.detectIaC(files)
	return c
}

// detectGRPC collects protobuf services. Without .proto files, a gRPC
// import or dependency still yields an empty interface.
func (e *Extractor) detectGRPC(files []ladom.File, deps map[string][]Dependency) *GRPCInterface {
	g := &GRPCInterface{Services: []GRPCService{}, ProtoFiles: []string{}}
	for i := range files {
		f := &files[i]
		if ladom.LanguageForPath(f.Path) != ladom.LanguageProtobuf {
			continue
		}
		g.ProtoFiles = append(g.ProtoFiles, f.Path)
		for _, cls := range f.Classes {
			if cls.Kind != ladom.KindService {
				continue
			}
			svc := GRPCService{Name: cls.Name, File: f.Path, RPCs: []RPC{}}
			for _, m := range cls.Methods {
				rpc := RPC{Name: m.Name, Response: m.Returns.Type}
				if len(m.Parameters) > 0 {
					rpc.Request = m.Parameters[0].Type
				}
				svc.RPCs = append(svc.RPCs, rpc)
			}
			g.Services = append(g.Services, svc)
		}
	}
	if len(g.ProtoFiles) > 0 {
		return g
	}
	for i := range files {
		if grpcMarkers.matchesImports(files[i].Imports) {
			return g
		}
	}
	if grpcMarkers.matchesDeps(deps[DepRuntime]) {
		return g
	}
	return nil
}

var terraformBlock = regexp.MustCompile(`(?m)^\s*(resource|variable|output)\s+"([^"]+)"(?:\s+"([^"]+)")?`)

// terraformFiles returns root-level *.tf files, or the analyzed Terraform
// files when the root has none.
func (e *Extractor) terraformFiles(files []ladom.File) []string {
	var paths []string
	if e.root != "" {
		matches, _ := filepath.Glob(filepath.Join(e.root, "*.tf"))
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		for i := range files {
			if ladom.LanguageForPath(files[i].Path) == ladom.LanguageTerraform {
				paths = append(paths, e.abs(files[i].Path))
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// detectIaC reads Terraform blocks. Resources are "type.name".
func (e *Extractor) detectIaC(files []ladom.File) *IaCInterface {
	paths := e.terraformFiles(files)
	if len(paths) == 0 {
		return nil
	}
	iac := &IaCInterface{Tool: "Terraform", Resources: []string{}, Variables: []string{}, Outputs: []string{}}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			e.logger.Debug("facts.iac.unreadable", "path", p, "err", err)
			continue
		}
		for _, m := range terraformBlock.FindAllStringSubmatch(string(data), -1) {
			switch m[1] {
			case "resource":
				if m[3] != "" {
					iac.Resources = append(iac.Resources, m[2]+"."+m[3])
				}
			case "variable":
				iac.Variables = append(iac.Variables, m[2])
			case "output":
				iac.Outputs = append(iac.Outputs, m[2])
			}
		}
	}
	return iac
}

// selectInterface keeps the candidate implied by the project type, or
// else the first present in the order CLI, Web API, GraphQL, gRPC,
// event-driven, IaC.
func selectInterface(t ProjectType, c interfaceCandidates) ProjectInterface {
	switch {
	case t == ProjectCLI && c.cli != nil:
		return ProjectInterface{CLI: c.cli}
	case t == ProjectWebAPI && c.web != nil:
		return ProjectInterface{WebAPI: c.web}
	case t == ProjectGraphQLAPI && c.graphql != nil:
		return ProjectInterface{GraphQL: c.graphql}
	case t == ProjectGRPCService && c.grpc != nil:
		return ProjectInterface{GRPC: c.grpc}
	case t == ProjectEventDriven && c.event != nil:
		return ProjectInterface{EventDriven: c.event}
	case t == ProjectIaC && c.iac != nil:
		return ProjectInterface{IaC: c.iac}
	}
	switch {
	case c.cli != nil:
		return ProjectInterface{CLI: c.cli}
	case c.web != nil:
		return ProjectInterface{WebAPI: c.web}
	case c.graphql != nil:
		return ProjectInterface{GraphQL: c.graphql}
	case c.grpc != nil:
		return ProjectInterface{GRPC: c.grpc}
	case c.event != nil:
		return ProjectInterface{EventDriven: c.event}
	case c.iac != nil:
		return ProjectInterface{IaC: c.iac}
	}
	return ProjectInterface{}
}
