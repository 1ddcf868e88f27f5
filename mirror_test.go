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
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// TestMirrorPathDerivation checks local path mapping for pages and resources
func TestMirrorPathDerivation(t *testing.T) {
	m := NewMirrorWriter(t.TempDir(), nil, nil, 1)

	cases := []struct {
		url  string
		want string
		page bool
	}{
		{"https://example.com/", "index.html", true},
		{"https://example.com", "index.html", true},
		{"https://example.com/about", "about.html", true},
		{"https://example.com/blog/", "blog/index.html", true},
		{"https://example.com/docs/intro.html", "docs/intro.html", true},
		{"https://example.com/img/logo.png", "img/logo.png", false},
		{"https://example.com/css/main.css", "css/main.css", false},
	}
	for _, c := range cases {
		u := mustParse(t, c.url)
		var got string
		if c.page {
			got = m.PagePath(u)
		} else {
			got = m.ResourcePath(u)
		}
		if got != c.want {
			t.Errorf("path for %s = %q, want %q", c.url, got, c.want)
		}
	}
}

// TestMirrorPathQueryFolding checks that query variants map to distinct files
func TestMirrorPathQueryFolding(t *testing.T) {
	m := NewMirrorWriter(t.TempDir(), nil, nil, 1)
	a := m.ResourcePath(mustParse(t, "https://example.com/img/pic.png?size=1"))
	b := m.ResourcePath(mustParse(t, "https://example.com/img/pic.png?size=2"))
	plain := m.ResourcePath(mustParse(t, "https://example.com/img/pic.png"))

	if a == b || a == plain {
		t.Errorf("Query variants must map to distinct paths: %q %q %q", a, b, plain)
	}
	if filepath.Ext(a) != ".png" {
		t.Errorf("Folded path should keep the extension: %q", a)
	}
}

// TestMirrorPathSanitization checks that crafted paths cannot escape the root
func TestMirrorPathSanitization(t *testing.T) {
	m := NewMirrorWriter(t.TempDir(), nil, nil, 1)
	got := m.ResourcePath(mustParse(t, "https://example.com/../../etc/passwd"))
	if strings.Contains(got, "..") {
		t.Errorf("Derived path must not contain traversal segments: %q", got)
	}
}

// TestMirrorInit_UnwritableDir checks the immediate FileError
func TestMirrorInit_UnwritableDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(parent, 0o755)

	m := NewMirrorWriter(filepath.Join(parent, "mirror"), nil, nil, 1)
	err := m.Init()
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("Expected a FileError, got %T: %v", err, err)
	}
}

// TestMirrorCrawl runs a full mirroring crawl and checks the files on disk,
// the rewritten references and the index.
func TestMirrorCrawl(t *testing.T) {
	dir := t.TempDir()
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `
		<link rel="stylesheet" href="/css/main.css">
		<img src="/img/logo.png">
		<img src="https://cdn.other.net/missing.png">
		<a href="/about">about</a>`)
	mt.RegisterHTML("https://example.com/about", `<img src="/img/logo.png">`)
	mt.RegisterResource("https://example.com/css/main.css", "text/css",
		`body { background: url("/img/bg.png"); }`)
	mt.RegisterResource("https://example.com/img/logo.png", "image/png", "PNGDATA")
	mt.RegisterResource("https://example.com/img/bg.png", "image/png", "BGDATA")
	mt.RegisterError("https://cdn.other.net/missing.png", errors.New("unreachable"))

	scraper := newTestScraper(&Config{
		MaxDepth:   1,
		MirrorMode: true,
		MirrorDir:  dir,
		MaxRetries: 0,
	}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}

	for _, rel := range []string{
		"index.html", "about.html", "css/main.css", "img/logo.png", "img/bg.png",
		"mirror_index.html",
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("Expected mirror file %s: %v", rel, err)
		}
	}

	// The shared image is fetched once even though two pages reference it
	if n := mt.RequestCount("https://example.com/img/logo.png"); n != 1 {
		t.Errorf("Shared resource should be downloaded once, got %d", n)
	}

	// Saved root page references local copies; the failed download keeps
	// its absolute URL
	saved, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	page := string(saved)
	if !strings.Contains(page, `src="img/logo.png"`) {
		t.Errorf("Image reference should be rewritten to a local path:\n%s", page)
	}
	if !strings.Contains(page, `href="css/main.css"`) {
		t.Errorf("Stylesheet reference should be rewritten:\n%s", page)
	}
	if !strings.Contains(page, "https://cdn.other.net/missing.png") {
		t.Errorf("Failed download should keep the absolute URL:\n%s", page)
	}

	// Failure recorded, crawl not aborted
	var foundErr bool
	for _, e := range result.Errors {
		if e.URL == "https://cdn.other.net/missing.png" {
			foundErr = true
		}
	}
	if !foundErr {
		t.Errorf("Expected the failed download in Errors, got %v", result.Errors)
	}

	// Downloads map present, with local paths copied onto resources
	if len(result.Downloads) == 0 {
		t.Fatal("Expected downloads in the result")
	}
	var logoPath string
	for _, d := range result.Downloads {
		if d.URL == "https://example.com/img/logo.png" {
			logoPath = d.LocalPath
		}
	}
	if logoPath != "img/logo.png" {
		t.Errorf("Unexpected local path for the logo: %q", logoPath)
	}
	var annotated bool
	for _, img := range result.Images {
		if img.URL == "https://example.com/img/logo.png" && img.LocalPath == "img/logo.png" {
			annotated = true
		}
	}
	if !annotated {
		t.Errorf("Resource entries should carry their local paths, got %v", result.Images)
	}

	// The mirror index lists (local path, original URL) pairs
	index, err := os.ReadFile(filepath.Join(dir, "mirror_index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), "img/logo.png") ||
		!strings.Contains(string(index), "https://example.com/img/logo.png") {
		t.Error("Mirror index should list local paths and original URLs")
	}
}

// TestMirrorCSSSubResources checks that url() references inside a downloaded
// stylesheet are fetched as well.
func TestMirrorCSSSubResources(t *testing.T) {
	dir := t.TempDir()
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `<link rel="stylesheet" href="/css/site.css">`)
	mt.RegisterResource("https://example.com/css/site.css", "text/css",
		`@font-face { src: url('/fonts/sans.woff2'); }`)
	mt.RegisterResource("https://example.com/fonts/sans.woff2", "font/woff2", "FONTDATA")

	scraper := newTestScraper(&Config{MirrorMode: true, MirrorDir: dir}, mt)
	if _, err := scraper.ScrapeURL(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("ScrapeURL failed: %v", err)
	}

	if mt.RequestCount("https://example.com/fonts/sans.woff2") != 1 {
		t.Error("CSS-referenced font should be downloaded")
	}
	if _, err := os.Stat(filepath.Join(dir, "fonts/sans.woff2")); err != nil {
		t.Errorf("Expected the font in the mirror: %v", err)
	}
}
