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

// Package describe writes descriptions for symbols that have no
// documentation comment.
//
// A [Describer] renders a prompt per undocumented function, method or class
// through the analyzer's [PromptBuilder], sends it to a [Generator] and
// parses the reply with the analyzer's own doc-comment parser, so generated
// parameter and return descriptions land in the same fields as in-source
// ones. Replies are cached by snippet and requests are throttled by a
// token-bucket [RateLimiter].
//
// Generation never fails a file: when the backend errors or answers with
// nothing, the symbol receives [Fallback].
package describe
