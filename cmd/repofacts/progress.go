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

package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled is false with --quiet or when Writer is not a terminal.
	Enabled bool

	Writer  io.Writer
	NoColor bool
}

// NewProgressConfig enables progress only when w is a terminal and --quiet
// is not set.
func NewProgressConfig(globals GlobalFlags, w io.Writer) ProgressConfig {
	return ProgressConfig{
		Enabled: !globals.Quiet && isTerminal(w),
		Writer:  w,
		NoColor: globals.NoColor,
	}
}

// isTerminal reports whether stream is an *os.File attached to a terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewProgressBar creates a progress bar with consistent styling.
// Returns nil if progress is disabled.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// analyzeProgress adapts the pipeline's per-file callback to a progress
// bar. The total is only known once loading finishes, so the bar is created
// on the first update. A nil or disabled analyzeProgress is a no-op.
type analyzeProgress struct {
	cfg ProgressConfig

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newAnalyzeProgress(cfg ProgressConfig) *analyzeProgress {
	return &analyzeProgress{cfg: cfg}
}

// Update implements ingestion.ProgressFunc. Workers call it concurrently.
func (p *analyzeProgress) Update(done, total int, _ string) {
	if p == nil || !p.cfg.Enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = NewProgressBar(p.cfg, int64(total), "Analyzing")
	}
	_ = p.bar.Set(done)
}

// Finish clears the bar.
func (p *analyzeProgress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// started reports whether a bar has been drawn.
func (p *analyzeProgress) started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bar != nil
}
