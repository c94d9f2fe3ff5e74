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

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// scoreboard accumulates points per project type and remembers the order
// in which types first scored. That order breaks ties.
type scoreboard struct {
	scores map[ProjectType]int
	order  []ProjectType
}

func newScoreboard() *scoreboard {
	return &scoreboard{scores: map[ProjectType]int{}}
}

func (s *scoreboard) add(t ProjectType, points int) {
	if _, ok := s.scores[t]; !ok {
		s.order = append(s.order, t)
	}
	s.scores[t] += points
}

// winner returns the highest scoring type. Equal scores go to the type that
// scored first. With no points at all the project is a library.
func (s *scoreboard) winner() ProjectType {
	best, bestScore := ProjectLibrary, 0
	for _, t := range s.order {
		if s.scores[t] > bestScore {
			best, bestScore = t, s.scores[t]
		}
	}
	return best
}

// importRule awards points when any keyword occurs in the lowercased
// import text of a file.
type importRule struct {
	typ      ProjectType
	points   int
	keywords []string
}

// pathRule awards points when any keyword occurs in the lowercased path.
type pathRule struct {
	typ      ProjectType
	points   int
	keywords []string
}

// dependencyRule matches dependency names by substring, or exactly when
// exact is set.
type dependencyRule struct {
	typ      ProjectType
	points   int
	keywords []string
	exact    bool
}

func (r dependencyRule) matches(name string) bool {
	if !r.exact {
		return containsAny(name, r.keywords)
	}
	for _, k := range r.keywords {
		if name == k {
			return true
		}
	}
	return false
}

// Rules run in declaration order for every file, so their order is also
// the tie-break order for a single file.
var (
	importRules = []importRule{
		{ProjectBatchJob, 4, []string{"spring.batch", "batch.core", "batchjob"}},
		{ProjectEventDriven, 3, []string{"kafka", "spring.cloud.stream", "spring.kafka", "rabbitmq", "amqplib", "pika", "celery", "bull"}},
		{ProjectGraphQLAPI, 4, []string{"graphql", "apollo", "graphene", "strawberry"}},
		{ProjectCLI, 3, []string{"typer", "click", "argparse", "commander", "yargs", "picocli"}},
		{ProjectWebAPI, 3, []string{"fastapi", "flask", "django", "express", "@nestjs", "spring.web", "springframework.web"}},
		{ProjectGRPCService, 3, []string{"grpc"}},
		{ProjectFrontend, 3, []string{"react", "vue", "angular", "svelte"}},
		{ProjectDesktop, 4, []string{"electron"}},
		{ProjectExtension, 2, []string{"vscode"}},
	}
	pathRules = []pathRule{
		{ProjectCLI, 1, []string{"cli", "command"}},
		{ProjectWebAPI, 1, []string{"route", "endpoint", "controller", "api"}},
		{ProjectGRPCService, 3, []string{".proto"}},
		{ProjectFrontend, 1, []string{".jsx", ".tsx", ".vue"}},
		{ProjectExtension, 2, []string{"extension"}},
		{ProjectIaC, 4, []string{".tf", "terraform"}},
	}
	// dependencyRules match dependency names, which are more reliable than
	// free-text imports and the only signal for analyzers that recover no
	// imports.
	dependencyRules = []dependencyRule{
		{ProjectBatchJob, 5, []string{"spring-boot-starter-batch", "spring-batch-core"}, false},
		{ProjectEventDriven, 5, []string{"spring-cloud-stream", "spring-kafka", "kafka-clients", "kafkajs", "kafka-python", "confluent-kafka"}, false},
		{ProjectGraphQLAPI, 5, []string{"graphql-java", "apollo-server", "@apollo/server", "spring-boot-starter-graphql"}, false},
		{ProjectDesktop, 5, []string{"electron"}, true},
	}
)

const extensionManifestBonus = 3

// pathSuffixRule reports whether keyword is an extension that must match
// the end of the path rather than any substring.
func pathSuffixRule(keyword string) bool {
	return strings.HasPrefix(keyword, ".")
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// scoreFile applies the import and path rules to one file.
func scoreFile(s *scoreboard, f *ladom.File) {
	imports := strings.ToLower(strings.Join(f.Imports, " "))
	lowerPath := strings.ToLower(f.Path)

	for _, r := range importRules {
		if imports != "" && containsAny(imports, r.keywords) {
			s.add(r.typ, r.points)
		}
	}
	for _, r := range pathRules {
		for _, k := range r.keywords {
			if (pathSuffixRule(k) && strings.HasSuffix(lowerPath, k)) || (!pathSuffixRule(k) && strings.Contains(lowerPath, k)) {
				s.add(r.typ, r.points)
				break
			}
		}
	}
}

// scoreDependencies applies the dependency rules, once per dependency.
func scoreDependencies(s *scoreboard, deps map[string][]Dependency) {
	for _, bucket := range DependencyTypes {
		for _, d := range deps[bucket] {
			name := strings.ToLower(d.Name)
			for _, r := range dependencyRules {
				if r.matches(name) {
					s.add(r.typ, r.points)
				}
			}
		}
	}
}

// detectProjectType scores every file, then dependencies, then the
// presence of an extension manifest.
func (e *Extractor) detectProjectType(files []ladom.File, deps map[string][]Dependency) ProjectType {
	s := newScoreboard()
	for i := range files {
		scoreFile(s, &files[i])
	}
	scoreDependencies(s, deps)
	if e.rootFileExists("action.yml") || e.rootFileExists("action.yaml") {
		s.add(ProjectExtension, extensionManifestBonus)
	}
	t := s.winner()
	e.logger.Debug("facts.project_type", "type", t, "scores", s.scores)
	return t
}
