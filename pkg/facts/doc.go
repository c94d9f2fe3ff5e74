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

// Package facts classifies a repository from its LADOM document and the
// manifest files at its root.
//
// Extraction and normalization are separate passes:
//
//	raw := facts.NewExtractor(root, logger).Extract(doc)
//	repo := facts.NewNormalizer(root, logger).Normalize(raw)
//
// The extractor scores project types from imports, paths and dependency
// names, reads requirements.txt, package.json, pyproject.toml and pom.xml,
// and inventories well-known configuration files. Missing or malformed
// manifests contribute nothing; extraction itself never fails.
//
// The normalizer deduplicates and sorts every list, rewrites paths to
// root-relative slash form and applies a few business rules. It is
// idempotent.
package facts
