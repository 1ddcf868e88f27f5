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
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
)

var (
	htmlCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// ComputeContentHash hashes raw content with the selected algorithm.
// "xxhash" (default) is the fastest and is what the duplicate detector uses;
// "md5" and "sha256" are available when a standard digest is wanted.
func ComputeContentHash(content []byte, algorithm string) (string, error) {
	switch algorithm {
	case "", "xxhash":
		return fmt.Sprintf("%016x", xxhash.Sum64(content)), nil
	case "md5":
		sum := md5.Sum(content)
		return hex.EncodeToString(sum[:]), nil
	case "sha256":
		sum := sha256.Sum256(content)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

// ComputePageHash hashes an HTML page body after light normalization so
// that comment and whitespace churn does not defeat duplicate detection.
func ComputePageHash(body []byte, algorithm string) (string, error) {
	normalized := htmlCommentPattern.ReplaceAll(body, nil)
	normalized = whitespacePattern.ReplaceAll(normalized, []byte(" "))
	return ComputeContentHash(normalized, algorithm)
}
