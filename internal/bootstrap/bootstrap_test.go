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

package bootstrap

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repofacts/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitProject_WritesDefaults(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shop-api")
	require.NoError(t, os.Mkdir(root, 0o750))

	info, err := InitProject(ProjectConfig{Root: root}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, config.Path(root), info.ConfigPath)
	assert.False(t, info.Overwritten)
	assert.False(t, info.GitignoreUpdated, "no .gitignore to update")

	cfg, err := config.LoadConfig(info.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig("shop-api"), cfg)
}

func TestInitProject_ExistingRequiresForce(t *testing.T) {
	root := t.TempDir()

	_, err := InitProject(ProjectConfig{Root: root, ProjectName: "first"}, quietLogger())
	require.NoError(t, err)

	_, err = InitProject(ProjectConfig{Root: root, ProjectName: "second"}, quietLogger())
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))

	info, err := InitProject(ProjectConfig{Root: root, ProjectName: "second", Force: true}, quietLogger())
	require.NoError(t, err)
	assert.True(t, info.Overwritten)

	cfg, err := config.LoadConfig(info.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.ProjectName)
}

func TestInitProject_CustomConfig(t *testing.T) {
	root := t.TempDir()
	custom := config.DefaultConfig("x")
	custom.Analysis.ParserMode = "simplified"

	info, err := InitProject(ProjectConfig{Root: root, Config: custom}, nil)
	require.NoError(t, err)

	cfg, err := config.LoadConfig(info.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "simplified", cfg.Analysis.ParserMode)
}

func TestInitProject_InvalidRoot(t *testing.T) {
	_, err := InitProject(ProjectConfig{}, quietLogger())
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = InitProject(ProjectConfig{Root: file}, quietLogger())
	assert.ErrorContains(t, err, "not a directory")
}

func TestAddToGitignore(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantUpdated bool
		want        string
	}{
		{
			name:        "appends entry",
			content:     "node_modules/\n",
			wantUpdated: true,
			want:        "node_modules/\n\n# repofacts provider credentials\n.repofacts/.env\n",
		},
		{
			name:        "adds missing trailing newline",
			content:     "dist",
			wantUpdated: true,
			want:        "dist\n\n# repofacts provider credentials\n.repofacts/.env\n",
		},
		{
			name:    "entry present",
			content: "/.repofacts/.env\n",
			want:    "/.repofacts/.env\n",
		},
		{
			name:    "whole directory ignored",
			content: ".repofacts/\n",
			want:    ".repofacts/\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			updated, err := addToGitignore(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, updated)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestAddToGitignore_NoFile(t *testing.T) {
	updated, err := addToGitignore(t.TempDir())
	require.NoError(t, err)
	assert.False(t, updated)
}
