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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rftesting "github.com/kraklabs/repofacts/internal/testing"
	"github.com/kraklabs/repofacts/pkg/ladom"
)


func loadedPaths(res *LoadResult) []string {
	out := make([]string, len(res.Files))
	for i, f := range res.Files {
		out[i] = f.Path
	}
	return out
}

func TestRepoLoader_Excludes(t *testing.T) {
	root := t.TempDir()
	rftesting.WriteTree(t, root, map[string]string{
		"src/app.py":                "x = 1\n",
		"src/__pycache__/app.pyc":   "",
		"node_modules/lib/index.js": "",
		"web/node_modules/x/y.js":   "",
		"dist/bundle.js":            "",
		"README.md":                 "# demo\n",
		"docs/guide.md":             "",
		"generated/models_pb2.py":   "",
		"src/vendor_client.py":      "",
		"services/api/Server.java":  "class Server {}\n",
	})

	res, err := NewRepoLoader(rftesting.DiscardLogger()).LoadRepository(root, LoadOptions{Excludes: []string{"generated/", "*.md"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"services/api/Server.java", "src/app.py", "src/vendor_client.py"}, loadedPaths(res))
	assert.Equal(t, 3, res.FileCount)
	assert.Equal(t, map[string]int{ladom.LanguageJava: 1, ladom.LanguagePython: 2}, res.Languages)
	assert.Equal(t, 2, res.SkipReasons["excluded"])
	assert.Equal(t, 5, res.SkipReasons["excluded_dir"])

	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, abs, res.RootPath)
	assert.Equal(t, filepath.Join(abs, "src", "app.py"), res.Files[1].FullPath)
}

func TestRepoLoader_Gitignore(t *testing.T) {
	root := t.TempDir()
	rftesting.WriteTree(t, root, map[string]string{
		".gitignore":     "*.log\ntmp/\n!keep.log\n",
		"app.js":         "",
		"debug.log":      "",
		"keep.log":       "",
		"tmp/scratch.js": "",
	})

	res, err := NewRepoLoader(rftesting.DiscardLogger()).LoadRepository(root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "app.js", "keep.log"}, loadedPaths(res))
	assert.Equal(t, 1, res.SkipReasons["gitignored"])
	assert.Equal(t, 1, res.SkipReasons["excluded_dir"])

	res, err = NewRepoLoader(rftesting.DiscardLogger()).LoadRepository(root, LoadOptions{IgnoreGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "app.js", "debug.log", "keep.log", "tmp/scratch.js"}, loadedPaths(res))
}

func TestRepoLoader_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	rftesting.WriteTree(t, root, map[string]string{
		"small.py": "x = 1\n",
		"big.py":   strings.Repeat("#", 2048),
	})

	res, err := NewRepoLoader(rftesting.DiscardLogger()).LoadRepository(root, LoadOptions{MaxFileSize: 1024})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.py"}, loadedPaths(res))
	assert.Equal(t, 1, res.SkipReasons["too_large"])
	assert.Equal(t, int64(6), res.TotalSize)
}

func TestRepoLoader_Symlink(t *testing.T) {
	root := t.TempDir()
	rftesting.WriteTree(t, root, map[string]string{"real.py": "x = 1\n"})
	if err := os.Symlink(filepath.Join(root, "real.py"), filepath.Join(root, "link.py")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := NewRepoLoader(rftesting.DiscardLogger()).LoadRepository(root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"real.py"}, loadedPaths(res))
	assert.Equal(t, 1, res.SkipReasons["symlink"])
}

func TestRepoLoader_Errors(t *testing.T) {
	loader := NewRepoLoader(rftesting.DiscardLogger())

	_, err := loader.LoadRepository(filepath.Join(t.TempDir(), "missing"), LoadOptions{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.py")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = loader.LoadRepository(file, LoadOptions{})
	assert.ErrorContains(t, err, "not a directory")
}
