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

import "testing"

// TestComputeContentHash_Algorithms checks each supported algorithm
func TestComputeContentHash_Algorithms(t *testing.T) {
	content := []byte("hello world")

	def, err := ComputeContentHash(content, "")
	if err != nil {
		t.Fatalf("Default hash failed: %v", err)
	}
	xx, err := ComputeContentHash(content, "xxhash")
	if err != nil {
		t.Fatalf("xxhash failed: %v", err)
	}
	if def != xx {
		t.Error("Default algorithm should be xxhash")
	}
	if len(xx) != 16 {
		t.Errorf("xxhash hex should be 16 chars, got %d", len(xx))
	}

	md5sum, err := ComputeContentHash(content, "md5")
	if err != nil || len(md5sum) != 32 {
		t.Errorf("Unexpected md5 result %q, %v", md5sum, err)
	}
	sha, err := ComputeContentHash(content, "sha256")
	if err != nil || len(sha) != 64 {
		t.Errorf("Unexpected sha256 result %q, %v", sha, err)
	}

	if _, err := ComputeContentHash(content, "crc32"); err == nil {
		t.Error("Unsupported algorithm should fail")
	}
}

// TestComputeContentHash_Stability checks determinism and sensitivity
func TestComputeContentHash_Stability(t *testing.T) {
	a1, _ := ComputeContentHash([]byte("same"), "")
	a2, _ := ComputeContentHash([]byte("same"), "")
	b, _ := ComputeContentHash([]byte("different"), "")
	if a1 != a2 {
		t.Error("Hash should be deterministic")
	}
	if a1 == b {
		t.Error("Different content should hash differently")
	}
}

// TestComputePageHash_Normalization checks that comment and whitespace churn
// does not change the page hash while content changes do.
func TestComputePageHash_Normalization(t *testing.T) {
	a := []byte("<html><!-- build 1234 --><body>  <p>text</p>\n</body></html>")
	b := []byte("<html><!-- build 5678 --><body> <p>text</p> </body></html>")
	c := []byte("<html><body><p>other text</p></body></html>")

	ha, err := ComputePageHash(a, "")
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := ComputePageHash(b, "")
	hc, _ := ComputePageHash(c, "")

	if ha != hb {
		t.Error("Comment and whitespace differences should not change the hash")
	}
	if ha == hc {
		t.Error("Content differences should change the hash")
	}
}
