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

package describe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of cached descriptions.
const DefaultCacheSize = 4096

// Cache holds generated descriptions keyed by language and snippet. It is
// safe for concurrent use; concurrent writes of the same key keep the last
// value.
type Cache struct {
	entries *lru.Cache[string, string]
}

// NewCache creates a cache holding at most size entries. size <= 0 selects
// DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create description cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached description for snippet.
func (c *Cache) Get(language, snippet string) (string, bool) {
	return c.entries.Get(cacheKey(language, snippet))
}

// Put stores a description.
func (c *Cache) Put(language, snippet, text string) {
	c.entries.Add(cacheKey(language, snippet), text)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.entries.Len() }

func cacheKey(language, snippet string) string {
	sum := sha256.Sum256([]byte(language + "\x00" + snippet))
	return hex.EncodeToString(sum[:])
}
