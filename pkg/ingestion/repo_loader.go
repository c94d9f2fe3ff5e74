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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/kraklabs/repofacts/pkg/ladom"
)

// DefaultExcludes are always skipped. They use gitignore syntax; a bare
// name matches at any depth.
var DefaultExcludes = []string{
	"node_modules",
	"__pycache__",
	".git",
	".venv",
	"venv",
	"dist",
	"build",
	".vscode",
	".idea",
	".pytest_cache",
	"target",
	"vendor",
}

// DefaultMaxFileSize is the size above which files are skipped.
const DefaultMaxFileSize int64 = 1 << 20

// LoadOptions controls which files RepoLoader returns.
type LoadOptions struct {
	// Excludes are extra gitignore-style patterns, applied on top of
	// DefaultExcludes.
	Excludes []string

	// MaxFileSize skips larger files. Zero or less disables the check.
	MaxFileSize int64

	// IgnoreGitignore disables the root .gitignore.
	IgnoreGitignore bool
}

// RepoLoader lists the files of a local repository.
type RepoLoader struct {
	logger *slog.Logger
}

// NewRepoLoader creates a new repository loader.
func NewRepoLoader(logger *slog.Logger) *RepoLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoLoader{logger: logger}
}

// LoadResult contains the loaded repository information.
type LoadResult struct {
	RootPath    string // Absolute path to repository root
	Files       []FileInfo
	FileCount   int
	TotalSize   int64
	Languages   map[string]int // Language -> file count
	SkipReasons map[string]int // Reason -> count (e.g., "excluded", "too_large")
}

// FileInfo represents a file in the repository.
type FileInfo struct {
	Path     string // Relative path from repo root, forward slashes
	FullPath string // Absolute path
	Size     int64
	Language string // Detected from extension, empty when unsupported
}

// LoadRepository walks root and returns every file that is not excluded.
// Files are sorted by path.
func (rl *RepoLoader) LoadRepository(root string, opts LoadOptions) (*LoadResult, error) {
	rootPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve local path: %w", err)
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local path is not a directory: %s", rootPath)
	}

	rl.logger.Info("repo.load.start", "root", rootPath)

	patterns := append(append([]string{}, DefaultExcludes...), opts.Excludes...)
	excludes := ignore.CompileIgnoreLines(patterns...)
	var gitignore *ignore.GitIgnore
	if !opts.IgnoreGitignore {
		gitignore = rl.loadGitignore(rootPath)
	}

	files, skipReasons, err := rl.walkRepository(rootPath, excludes, gitignore, opts.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	totalSize := int64(0)
	languages := make(map[string]int)
	for _, f := range files {
		totalSize += f.Size
		if f.Language != "" {
			languages[f.Language]++
		}
	}

	result := &LoadResult{
		RootPath:    rootPath,
		Files:       files,
		FileCount:   len(files),
		TotalSize:   totalSize,
		Languages:   languages,
		SkipReasons: skipReasons,
	}

	rl.logger.Info("repo.load.complete",
		"files", result.FileCount,
		"total_size", totalSize,
		"languages", languages,
	)

	return result, nil
}

func (rl *RepoLoader) loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			rl.logger.Warn("repo.gitignore.error", "path", path, "err", err)
		}
		return nil
	}
	return gi
}

// walkRepository walks the repository directory and collects files.
func (rl *RepoLoader) walkRepository(rootPath string, excludes, gitignore *ignore.GitIgnore, maxFileSize int64) ([]FileInfo, map[string]int, error) {
	var files []FileInfo
	skipReasons := make(map[string]int)

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Log but continue on permission errors
			rl.logger.Warn("repo.walk.error", "path", path, "err", err)
			return nil
		}
		if path == rootPath {
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if excludes.MatchesPath(relPath+"/") || (gitignore != nil && gitignore.MatchesPath(relPath+"/")) {
				skipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			skipReasons["symlink"]++
			return nil
		}
		if excludes.MatchesPath(relPath) {
			skipReasons["excluded"]++
			return nil
		}
		if gitignore != nil && gitignore.MatchesPath(relPath) {
			skipReasons["gitignored"]++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			skipReasons["too_large"]++
			rl.logger.Warn("repo.walk.skip_large_file",
				"path", relPath,
				"size", info.Size(),
				"limit", maxFileSize,
			)
			return nil
		}

		files = append(files, FileInfo{
			Path:     relPath,
			FullPath: path,
			Size:     info.Size(),
			Language: ladom.LanguageForPath(relPath),
		})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, skipReasons, err
}
