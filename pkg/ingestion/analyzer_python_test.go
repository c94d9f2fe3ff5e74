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

const pythonSample = `"""Utilities for math."""
import os
from typing import List


def add(a: int, b: int = 2) -> int:
    """Add two numbers.

    Args:
        a: First operand.
        b: Second operand.

    Returns:
        int: The sum.
    """
    return a + b


async def fetch(url, *args, **kwargs):
    yield url


class Point(Base, metaclass=Meta):
    """A 2D point."""

    def __init__(self, x, y=0):
        self.x = x
        self.y = y

    @property
    def norm(self) -> float:
        return 0.0
`

func TestPythonAnalyzer(t *testing.T) {
	for _, mode := range []ParserMode{ParserModeTreeSitter, ParserModeSimplified} {
		t.Run(string(mode), func(t *testing.T) {
			a := NewPythonAnalyzer(mode, rftesting.DiscardLogger())
			f := analyzeSource(t, a, "mathutil/ops.py", pythonSample)

			if mode == ParserModeSimplified {
				assert.Equal(t, ladom.ExtractionPattern, f.Extraction)
			} else {
				assert.Equal(t, ladom.ExtractionAST, f.Extraction)
			}
			assert.Equal(t, "mathutil/ops.py", f.Path)
			assert.Equal(t, "Utilities for math.", f.Summary)
			assert.Equal(t, []string{"os", "typing"}, f.Imports)
			assert.Equal(t, []string{"add", "fetch"}, functionNames(f.Functions))

			add := findFunction(t, f.Functions, "add")
			assert.Equal(t, "def add(a: int, b: int = 2) -> int", add.Signature)
			assert.Equal(t, "Add two numbers.", add.Description)
			assert.True(t, add.Documented)
			assert.Equal(t, 6, add.Lines.Start)
			require.Len(t, add.Parameters, 2)
			assert.Equal(t, ladom.Parameter{Name: "a", Type: "int", Description: "First operand."}, add.Parameters[0])
			assert.Equal(t, ladom.Parameter{Name: "b", Type: "int", Default: "2", Description: "Second operand.", Optional: true}, add.Parameters[1])
			assert.Equal(t, ladom.Returns{Type: "int", Description: "The sum."}, add.Returns)

			fetch := findFunction(t, f.Functions, "fetch")
			assert.True(t, fetch.Async)
			assert.True(t, fetch.Generator)
			assert.False(t, fetch.Documented)
			assert.Equal(t, "async def fetch(url, *args, **kwargs)", fetch.Signature)
			require.Len(t, fetch.Parameters, 3)
			assert.False(t, fetch.Parameters[0].Variadic)
			assert.True(t, fetch.Parameters[1].Variadic)
			assert.True(t, fetch.Parameters[2].Variadic)

			require.Len(t, f.Classes, 1)
			point := f.Classes[0]
			assert.Equal(t, "Point", point.Name)
			assert.Equal(t, ladom.KindClass, point.Kind)
			assert.Equal(t, "Base", point.Bases)
			assert.Equal(t, "A 2D point.", point.Description)
			assert.True(t, point.Documented)
			assert.Equal(t, []string{"__init__", "norm"}, functionNames(point.Methods))

			ctor := point.Methods[0]
			assert.True(t, ctor.Constructor)
			require.Len(t, ctor.Parameters, 2)
			assert.Equal(t, "x", ctor.Parameters[0].Name)
			assert.Equal(t, "0", ctor.Parameters[1].Default)
			assert.True(t, ctor.Parameters[1].Optional)

			norm := point.Methods[1]
			assert.False(t, norm.Constructor)
			assert.Equal(t, []string{"@property"}, norm.Decorators)
			assert.Equal(t, "float", norm.Returns.Type)
			assert.Equal(t, "mathutil/ops.py", norm.FilePath)
			assert.Equal(t, ladom.LanguagePython, norm.Language)
		})
	}
}

func TestPythonAnalyzer_CommentBeforeDocstring(t *testing.T) {
	src := "def f():\n    # note\n    \"\"\"Does f.\"\"\"\n    return 1\n"
	for _, mode := range []ParserMode{ParserModeTreeSitter, ParserModeSimplified} {
		f := analyzeSource(t, NewPythonAnalyzer(mode, rftesting.DiscardLogger()), "f.py", src)
		require.Len(t, f.Functions, 1, mode)
		assert.Equal(t, "Does f.", f.Functions[0].Description, mode)
	}
}

func TestPythonAnalyzer_NestedFunctionsStayInside(t *testing.T) {
	src := `def outer():
    def inner():
        return 1
    return inner


class A:
    def m(self):
        def helper():
            pass
        return helper
`
	for _, mode := range []ParserMode{ParserModeTreeSitter, ParserModeSimplified} {
		f := analyzeSource(t, NewPythonAnalyzer(mode, rftesting.DiscardLogger()), "n.py", src)
		assert.Equal(t, []string{"outer"}, functionNames(f.Functions), mode)
		require.Len(t, f.Classes, 1, mode)
		assert.Equal(t, []string{"m"}, functionNames(f.Classes[0].Methods), mode)
	}
}

func TestPythonAnalyzer_ParseDocumentation(t *testing.T) {
	a := NewPythonAnalyzer(ParserModeAuto, rftesting.DiscardLogger())
	doc := a.ParseDocumentation("Open a connection.\n\nArgs:\n    host (str): Server name.\n\nReturns:\n    Connection: The live connection.\n\nRaises:\n    IOError: When unreachable.")
	assert.Equal(t, "Open a connection.", doc.Summary)
	assert.Equal(t, "Server name.", doc.Params["host"])
	assert.Equal(t, "str", doc.ParamTypes["host"])
	assert.Equal(t, ladom.Returns{Type: "Connection", Description: "The live connection."}, doc.Returns)
	assert.Equal(t, []string{"IOError"}, doc.Throws)
}
