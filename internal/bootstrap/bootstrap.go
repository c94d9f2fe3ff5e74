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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/repofacts/internal/config"
)

// ErrAlreadyInitialized is returned when the configuration file exists and
// Force is not set.
var ErrAlreadyInitialized = errors.New("repofacts configuration already exists")

// gitignoreEntry keeps provider credentials out of version control.
const gitignoreEntry = config.DirName + "/.env"

// ProjectConfig holds the options for initializing a repository.
type ProjectConfig struct {
	// Root is the repository root. Required.
	Root string

	// ProjectName overrides the directory name as the document's project name.
	ProjectName string

	// Force overwrites an existing configuration.
	Force bool

	// Config is written as-is when set. Nil writes DefaultConfig.
	Config *config.Config
}

// ProjectInfo describes an initialized repository.
type ProjectInfo struct {
	Root       string
	ConfigPath string

	// Overwritten is set when an existing file was replaced.
	Overwritten bool

	// GitignoreUpdated is set when .gitignore gained the .env entry.
	GitignoreUpdated bool
}

// InitProject writes .repofacts/project.yaml under pc.Root.
func InitProject(pc ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pc.Root == "" {
		return nil, fmt.Errorf("root is required")
	}

	root, err := filepath.Abs(pc.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if st, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	path := config.Path(root)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !pc.Force {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, path)
	}

	cfg := pc.Config
	if cfg == nil {
		name := pc.ProjectName
		if name == "" {
			name = filepath.Base(root)
		}
		cfg = config.DefaultConfig(name)
	}

	logger.Debug("bootstrap.project.init", "root", root, "config", path, "force", pc.Force)

	if err := config.SaveConfig(cfg, path); err != nil {
		return nil, err
	}

	updated, err := addToGitignore(root)
	if err != nil {
		logger.Warn("bootstrap.gitignore.warning", "err", err)
	}

	logger.Info("bootstrap.project.init.success", "root", root, "config", path)

	return &ProjectInfo{
		Root:             root,
		ConfigPath:       path,
		Overwritten:      exists,
		GitignoreUpdated: updated,
	}, nil
}

// addToGitignore appends the .env entry to an existing .gitignore. A
// repository without .gitignore is left alone.
func addToGitignore(dir string) (bool, error) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		switch strings.TrimSpace(line) {
		case gitignoreEntry, "/" + gitignoreEntry, config.DirName, config.DirName + "/", "/" + config.DirName + "/":
			return false, nil
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString("\n# repofacts provider credentials\n" + gitignoreEntry + "\n"); err != nil {
		return false, err
	}
	return true, nil
}
