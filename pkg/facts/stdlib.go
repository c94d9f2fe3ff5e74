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

package facts

// pythonStdlib lists standard-library module names that sometimes end up
// in requirements.txt. They are dropped from dependencies read from it.
var pythonStdlib = map[string]struct{}{
	"abc": {}, "argparse": {}, "array": {}, "ast": {}, "asyncio": {},
	"bisect": {}, "codecs": {}, "collections": {}, "concurrent": {}, "configparser": {},
	"copy": {}, "csv": {}, "dataclasses": {}, "datetime": {}, "difflib": {},
	"email": {}, "enum": {}, "functools": {}, "hashlib": {}, "heapq": {},
	"hmac": {}, "html": {}, "http": {}, "importlib": {}, "inspect": {},
	"io": {}, "itertools": {}, "json": {}, "logging": {}, "math": {},
	"multiprocessing": {}, "operator": {}, "os": {}, "pathlib": {}, "pickle": {},
	"pkgutil": {}, "random": {}, "re": {}, "secrets": {}, "socket": {},
	"ssl": {}, "string": {}, "struct": {}, "subprocess": {}, "sys": {},
	"textwrap": {}, "threading": {}, "time": {}, "traceback": {}, "types": {},
	"typing": {}, "unicodedata": {}, "unittest": {}, "urllib": {}, "uuid": {},
	"warnings": {}, "weakref": {}, "xml": {},
}

func isPythonStdlib(name string) bool {
	_, ok := pythonStdlib[name]
	return ok
}
