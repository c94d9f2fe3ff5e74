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

package testing

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WriteTree creates files under root. Keys use forward slashes.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// TempRepo writes files into a fresh temporary directory and returns it.
func TempRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, files)
	return root
}

// FastAPIRepo is a small Python web service with a pytest suite.
var FastAPIRepo = map[string]string{
	"pyproject.toml": `[project]
name = "orders-api"
version = "0.3.0"
description = "Order management service"
requires-python = ">=3.11"
dependencies = ["fastapi>=0.110", "uvicorn[standard]>=0.29"]

[project.optional-dependencies]
dev = ["pytest>=8.0"]
`,
	"main.py": `from fastapi import FastAPI

app = FastAPI()


@app.get("/orders")
def list_orders(limit: int = 10) -> list:
    """List recent orders."""
    return []
`,
	"app/models.py": `class Order:
    """An order placed by a customer."""

    def __init__(self, order_id: str):
        self.order_id = order_id

    def total(self) -> float:
        return 0.0
`,
	"tests/test_orders.py": `import pytest


def test_list_orders():
    assert True
`,
	".env":       "PORT=8000\nENV=development\n",
	".gitignore": "*.log\n",
}

// ExpressRepo is a small Node.js web service.
var ExpressRepo = map[string]string{
	"package.json": `{
  "name": "catalog",
  "version": "1.4.2",
  "license": "MIT",
  "scripts": {"start": "node src/index.js", "test": "jest"},
  "dependencies": {"express": "^4.19.0"},
  "devDependencies": {"jest": "^29.7.0"}
}
`,
	"src/index.js": `const express = require('express');

/**
 * Build the HTTP application.
 * @param {object} options - server options
 * @returns {object} the express app
 */
function createApp(options) {
  const app = express();
  return app;
}

module.exports = { createApp };
`,
	"src/routes/items.js": `class ItemController {
  list(req, res) {
    res.json([]);
  }
}

module.exports = ItemController;
`,
}
