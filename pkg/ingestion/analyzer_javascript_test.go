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

package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rftesting "github.com/kraklabs/repofacts/internal/testing"
	"github.com/kraklabs/repofacts/pkg/ladom"
)

const javascriptSample = `/**
 * @file HTTP helpers for the demo server.
 */

import express from 'express';
const path = require('path');

/**
 * Greets someone.
 * @param {string} name - Who to greet.
 * @param {string} [punctuation] - Trailing mark.
 * @returns {string} The greeting.
 */
function greet(name, punctuation = '!') {
  return 'Hello ' + name + punctuation;
}

export const sum = async (...nums) => {
  return nums.reduce((a, b) => a + b, 0);
};

function* ids() {
  yield 1;
}

class Server extends Base {
  constructor(port) {
    super();
    this.port = port;
  }

  async start() {
    return this.port;
  }

  handle = (req) => {
    return req;
  };
}
`

func TestJavaScriptAnalyzer(t *testing.T) {
	for _, mode := range []ParserMode{ParserModeTreeSitter, ParserModeSimplified} {
		t.Run(string(mode), func(t *testing.T) {
			f := analyzeSource(t, NewJavaScriptAnalyzer(mode, rftesting.DiscardLogger()), "src/server.js", javascriptSample)

			assert.Equal(t, ladom.LanguageJavaScript, f.Language)
			assert.Equal(t, "HTTP helpers for the demo server.", f.Summary)
			assert.Equal(t, []string{"express", "path"}, f.Imports)
			assert.Equal(t, []string{"greet", "sum", "ids"}, functionNames(f.Functions))

			greet := findFunction(t, f.Functions, "greet")
			assert.True(t, greet.Documented)
			assert.Equal(t, "Greets someone.", greet.Description)
			assert.Equal(t, "greet(name, punctuation = '!')", greet.Signature)
			require.Len(t, greet.Parameters, 2)
			assert.Equal(t, ladom.Parameter{Name: "name", Type: "string", Description: "Who to greet."}, greet.Parameters[0])
			assert.Equal(t, ladom.Parameter{Name: "punctuation", Type: "string", Default: "'!'", Description: "Trailing mark.", Optional: true}, greet.Parameters[1])
			assert.Equal(t, ladom.Returns{Type: "string", Description: "The greeting."}, greet.Returns)

			sum := findFunction(t, f.Functions, "sum")
			assert.True(t, sum.Arrow)
			assert.True(t, sum.Async)
			require.Len(t, sum.Parameters, 1)
			assert.Equal(t, "nums", sum.Parameters[0].Name)
			assert.True(t, sum.Parameters[0].Variadic)

			ids := findFunction(t, f.Functions, "ids")
			assert.True(t, ids.Generator)
			assert.False(t, ids.Arrow)

			require.Len(t, f.Classes, 1)
			server := f.Classes[0]
			assert.Equal(t, "Server", server.Name)
			assert.Equal(t, "Base", server.Bases)
			assert.Equal(t, []string{"constructor", "start", "handle"}, functionNames(server.Methods))
			assert.True(t, server.Methods[0].Constructor)
			assert.True(t, server.Methods[0].Returns.IsZero())
			assert.Equal(t, "port", server.Methods[0].Parameters[0].Name)
			assert.True(t, server.Methods[1].Async)
			assert.True(t, server.Methods[2].Arrow)
		})
	}
}

func TestJavaScriptAnalyzer_SingleParamArrow(t *testing.T) {
	src := "const double = x => x * 2;\nconst inc = (n) => n + 1;\n"
	for _, mode := range []ParserMode{ParserModeTreeSitter, ParserModeSimplified} {
		f := analyzeSource(t, NewJavaScriptAnalyzer(mode, rftesting.DiscardLogger()), "math.js", src)
		assert.Equal(t, []string{"double", "inc"}, functionNames(f.Functions), mode)
		double := findFunction(t, f.Functions, "double")
		require.Len(t, double.Parameters, 1)
		assert.Equal(t, "x", double.Parameters[0].Name)
		assert.True(t, double.Arrow)
	}
}

func TestJavaScriptAnalyzer_ParseDocumentation(t *testing.T) {
	a := NewJavaScriptAnalyzer(ParserModeAuto, rftesting.DiscardLogger())
	doc := a.ParseDocumentation("Loads the config.\n@param {string} path - File to read.\n@returns {Config} The parsed config.\n@throws {Error} When missing.")
	assert.Equal(t, "Loads the config.", doc.Summary)
	assert.Equal(t, "File to read.", doc.Params["path"])
	assert.Equal(t, "string", doc.ParamTypes["path"])
	assert.Equal(t, ladom.Returns{Type: "Config", Description: "The parsed config."}, doc.Returns)
	assert.Equal(t, []string{"Error"}, doc.Throws)
}

const typescriptSample = `import { Injectable } from '@angular/core';
import type { User } from './models';

export interface Repo<T> extends Base {
  find(id: string): Promise<T>;
}

export enum Color {
  Red,
  Green,
}

@Injectable()
export class UserService implements IUserService {
  constructor(private readonly repo: Repo<User>) {}

  /**
   * Finds a user.
   * @param id - The user id.
   */
  async find(id: string): Promise<User | undefined> {
    return undefined;
  }
}

export function parse(input: string): number {
  return Number(input);
}
`

func TestTypeScriptAnalyzer(t *testing.T) {
	for _, mode := range []ParserMode{ParserModeTreeSitter, ParserModeSimplified} {
		t.Run(string(mode), func(t *testing.T) {
			a := NewTypeScriptAnalyzer(mode, rftesting.DiscardLogger())
			assert.Equal(t, ladom.LanguageTypeScript, a.Language())
			f := analyzeSource(t, a, "src/user.service.ts", typescriptSample)

			assert.Equal(t, ladom.LanguageTypeScript, f.Language)
			assert.Equal(t, []string{"@angular/core", "./models"}, f.Imports)

			parse := findFunction(t, f.Functions, "parse")
			assert.Equal(t, "parse(input: string): number", parse.Signature)
			assert.Equal(t, "number", parse.Returns.Type)
			require.Len(t, parse.Parameters, 1)
			assert.Equal(t, ladom.Parameter{Name: "input", Type: "string"}, parse.Parameters[0])

			repo := findClass(t, f.Classes, "Repo")
			assert.Equal(t, ladom.KindInterface, repo.Kind)
			assert.Equal(t, "Base", repo.Bases)
			require.Len(t, repo.Methods, 1)
			assert.Equal(t, "find", repo.Methods[0].Name)
			assert.Equal(t, "Promise<T>", repo.Methods[0].Returns.Type)
			assert.Equal(t, "find(id: string): Promise<T>", repo.Methods[0].Signature)

			svc := findClass(t, f.Classes, "UserService")
			assert.Equal(t, ladom.KindClass, svc.Kind)
			assert.Equal(t, "IUserService", svc.Bases)
			require.Len(t, svc.Methods, 2)

			ctor := svc.Methods[0]
			assert.True(t, ctor.Constructor)
			require.Len(t, ctor.Parameters, 1)
			assert.Equal(t, "repo", ctor.Parameters[0].Name)
			assert.Equal(t, "Repo<User>", ctor.Parameters[0].Type)

			find := svc.Methods[1]
			assert.True(t, find.Async)
			assert.True(t, find.Documented)
			assert.Equal(t, "Finds a user.", find.Description)
			assert.Equal(t, "Promise<User | undefined>", find.Returns.Type)
			require.Len(t, find.Parameters, 1)
			assert.Equal(t, "The user id.", find.Parameters[0].Description)
			assert.Equal(t, "string", find.Parameters[0].Type)
		})
	}
}

func TestTypeScriptAnalyzer_TreeOnlyConstructs(t *testing.T) {
	f := analyzeSource(t, NewTypeScriptAnalyzer(ParserModeTreeSitter, rftesting.DiscardLogger()), "src/user.service.ts", typescriptSample)
	assert.Equal(t, ladom.ExtractionAST, f.Extraction)

	color := findClass(t, f.Classes, "Color")
	assert.Equal(t, ladom.KindEnum, color.Kind)

	svc := findClass(t, f.Classes, "UserService")
	assert.Equal(t, []string{"@Injectable()"}, svc.Decorators)
}

func TestTypeScriptAnalyzer_TSX(t *testing.T) {
	src := "export function App(props: Props): JSX.Element {\n  return <div>{props.title}</div>;\n}\n"
	f := analyzeSource(t, NewTypeScriptAnalyzer(ParserModeTreeSitter, rftesting.DiscardLogger()), "App.tsx", src)
	assert.Equal(t, ladom.ExtractionAST, f.Extraction)
	app := findFunction(t, f.Functions, "App")
	assert.Equal(t, "JSX.Element", app.Returns.Type)
}
