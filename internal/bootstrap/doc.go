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

// Package bootstrap handles repofacts project initialization.
//
// InitProject creates .repofacts/project.yaml for a repository and keeps the
// provider secrets file (.repofacts/.env) out of version control:
//
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    Root: ".",
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Created %s\n", info.ConfigPath)
//
// # Idempotency
//
// Running InitProject again on an initialized repository returns
// ErrAlreadyInitialized unless Force is set, in which case the file is
// rewritten. The .gitignore entry is added at most once.
package bootstrap
