// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webmirror

import (
	"fmt"
	"net/url"
	"os"
)

// FileError indicates a configuration mistake on the local filesystem
// (unreadable override file, unwritable mirror directory). Unlike network
// failures it is surfaced immediately to the caller.
type FileError struct {
	// Path is the offending file or directory
	Path string
	// Op describes the failed operation
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error { return e.Err }

// OverrideResolver substitutes externally supplied markup for the root-path
// request of the target site. The substituted content is used for both
// extraction and persistence; the Fetcher is bypassed for that one request.
// Reference resolution still uses the real target URL, not the override
// file's location.
type OverrideResolver struct {
	// Path is the override file; empty disables the resolver
	Path string
}

// Applies reports whether the override substitutes content for this URL.
// Only requests whose path component is the root ("" or "/") qualify;
// any other path always goes through the Fetcher.
func (o *OverrideResolver) Applies(u *url.URL) bool {
	if o == nil || o.Path == "" || u == nil {
		return false
	}
	return u.Path == "" || u.Path == "/"
}

// Load reads the override file. A missing or unreadable file is a FileError,
// surfaced immediately since it indicates a configuration mistake.
func (o *OverrideResolver) Load() ([]byte, error) {
	body, err := os.ReadFile(o.Path)
	if err != nil {
		return nil, &FileError{Path: o.Path, Op: "read override file", Err: err}
	}
	return body, nil
}
