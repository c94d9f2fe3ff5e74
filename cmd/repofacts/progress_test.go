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
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name        string
		globals     GlobalFlags
		wantEnabled bool
		wantNoColor bool
	}{
		{
			name:    "buffer is never a terminal",
			globals: GlobalFlags{},
		},
		{
			name:    "quiet disables progress",
			globals: GlobalFlags{Quiet: true},
		},
		{
			name:        "no-color propagates",
			globals:     GlobalFlags{NoColor: true},
			wantNoColor: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.globals, &bytes.Buffer{})
			assert.Equal(t, tt.wantEnabled, cfg.Enabled)
			assert.Equal(t, tt.wantNoColor, cfg.NoColor)
		})
	}
}

func TestNewProgressConfig_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "progress")
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.False(t, NewProgressConfig(GlobalFlags{}, f).Enabled)
}

func TestNewProgressBar(t *testing.T) {
	assert.Nil(t, NewProgressBar(ProgressConfig{Enabled: false}, 10, "Analyzing"))

	var buf bytes.Buffer
	bar := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}, 10, "Analyzing")
	if assert.NotNil(t, bar) {
		assert.NoError(t, bar.Add(5))
		assert.NoError(t, bar.Finish())
	}
}

func TestAnalyzeProgress(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		p := newAnalyzeProgress(ProgressConfig{})
		p.Update(1, 3, "a.py")
		p.Finish()
		assert.False(t, p.started())
	})

	t.Run("nil is safe", func(t *testing.T) {
		var p *analyzeProgress
		p.Update(1, 1, "a.py")
		p.Finish()
	})

	t.Run("concurrent updates", func(t *testing.T) {
		var buf bytes.Buffer
		p := newAnalyzeProgress(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true})

		var wg sync.WaitGroup
		for i := 1; i <= 20; i++ {
			wg.Add(1)
			go func(done int) {
				defer wg.Done()
				p.Update(done, 20, "f.js")
			}(i)
		}
		wg.Wait()
		p.Finish()
		assert.True(t, p.started())
	})
}
