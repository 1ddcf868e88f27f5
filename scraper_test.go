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
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// samplePage exercises every extraction category at once: anchors (including
// a mailto), images, a stylesheet, scripts and a phone number in visible text.
const samplePage = `<!DOCTYPE html>
<html>
<head>
	<link rel="stylesheet" href="/css/main.css">
	<script src="/js/app.js"></script>
	<script src="https://cdn.example.net/lib.js"></script>
</head>
<body>
	<a href="/about">About</a>
	<a href="https://other.example.net/page">Partner</a>
	<a href="mailto:demo@example.com">Email us</a>
	<img src="/img/logo.png">
	<img src="/img/banner.jpg">
	<p>For support call (555) 123-4567.</p>
</body>
</html>`

func newTestScraper(cfg *Config, mt *MockTransport) *Scraper {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.IgnoreRobotsTxt = true
	return NewScraper(cfg).WithTransport(mt)
}

// TestScrapeURL_SamplePage verifies the per-category counts for a page that
// contains every kind of extractable fact.
func TestScrapeURL_SamplePage(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", samplePage)

	scraper := newTestScraper(nil, mt)
	result, err := scraper.ScrapeURL(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeURL failed: %v", err)
	}

	if len(result.Pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(result.Pages))
	}
	if len(result.Links) != 2 {
		t.Errorf("Expected 2 links, got %d: %v", len(result.Links), result.Links)
	}
	if len(result.Images) != 2 {
		t.Errorf("Expected 2 images, got %d", len(result.Images))
	}
	if len(result.Stylesheets) != 1 {
		t.Errorf("Expected 1 stylesheet, got %d", len(result.Stylesheets))
	}
	if len(result.Scripts) != 2 {
		t.Errorf("Expected 2 scripts, got %d", len(result.Scripts))
	}
	if len(result.Emails) != 1 || result.Emails[0] != "demo@example.com" {
		t.Errorf("Expected email demo@example.com, got %v", result.Emails)
	}
	if len(result.Phones) != 1 {
		t.Errorf("Expected 1 phone number, got %v", result.Phones)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}

// TestScrapeWebsite_DepthZero checks that max depth 0 visits only the seed;
// discovered links are recorded but never fetched.
func TestScrapeWebsite_DepthZero(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `<a href="/page2">next</a>`)
	mt.RegisterHTML("https://example.com/page2", `<p>should not be visited</p>`)

	scraper := newTestScraper(&Config{MaxDepth: 0}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}

	if len(result.Pages) != 1 {
		t.Fatalf("Expected 1 page visited, got %d", len(result.Pages))
	}
	if len(result.Links) != 1 {
		t.Errorf("Expected the link to be recorded, got %d links", len(result.Links))
	}
	if mt.RequestCount("https://example.com/page2") != 0 {
		t.Error("Depth 0 crawl must not fetch linked pages")
	}
}

// TestScrapeWebsite_FollowsSameScope checks that same-domain links are
// traversed while cross-domain links are only recorded.
func TestScrapeWebsite_FollowsSameScope(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `
		<a href="/page2">internal</a>
		<a href="https://elsewhere.net/">external</a>`)
	mt.RegisterHTML("https://example.com/page2", `<img src="/img/deep.png">`)
	mt.RegisterHTML("https://elsewhere.net/", `<p>external</p>`)

	scraper := newTestScraper(&Config{MaxDepth: 1}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}

	if len(result.Pages) != 2 {
		t.Fatalf("Expected 2 pages visited, got %d", len(result.Pages))
	}
	if mt.RequestCount("https://elsewhere.net/") != 0 {
		t.Error("Cross-domain link must not be visited")
	}
	if len(result.Links) != 2 {
		t.Errorf("Both links should be recorded, got %d", len(result.Links))
	}
	if len(result.Images) != 1 {
		t.Errorf("Image from the linked page should be recorded, got %d", len(result.Images))
	}
}

// TestScrapeWebsite_VisitOnce checks that mutually linking pages are each
// fetched exactly once.
func TestScrapeWebsite_VisitOnce(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `<a href="/page2">two</a>`)
	mt.RegisterHTML("https://example.com/page2", `<a href="/">home</a> <a href="/page2">self</a>`)

	scraper := newTestScraper(&Config{MaxDepth: 5}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}

	if len(result.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(result.Pages))
	}
	for _, u := range []string{"https://example.com/", "https://example.com/page2"} {
		if n := mt.RequestCount(u); n != 1 {
			t.Errorf("Expected %s fetched once, got %d", u, n)
		}
	}
}

// TestScrapeWebsite_ErrorContinues checks that a failing page is recorded and
// the crawl proceeds to the remaining pages.
func TestScrapeWebsite_ErrorContinues(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `
		<a href="/broken">broken</a>
		<a href="/ok">ok</a>`)
	mt.RegisterError("https://example.com/broken", errors.New("connection refused"))
	mt.RegisterHTML("https://example.com/ok", `<p>fine</p>`)

	scraper := newTestScraper(&Config{MaxDepth: 1, MaxRetries: 0}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}

	if len(result.Pages) != 3 {
		t.Fatalf("Expected 3 page records (one failed), got %d", len(result.Pages))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 recorded error, got %v", result.Errors)
	}
	if result.Errors[0].URL != "https://example.com/broken" {
		t.Errorf("Wrong error URL: %s", result.Errors[0].URL)
	}
	if mt.RequestCount("https://example.com/ok") != 1 {
		t.Error("Crawl should have continued to the healthy page")
	}
}

// TestScrapeWebsite_MaxPages checks the per-crawl page budget
func TestScrapeWebsite_MaxPages(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `
		<a href="/a">a</a> <a href="/b">b</a> <a href="/c">c</a>`)
	for _, p := range []string{"a", "b", "c"} {
		mt.RegisterHTML("https://example.com/"+p, `<p>page</p>`)
	}

	scraper := newTestScraper(&Config{MaxDepth: 1, MaxPages: 2}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}
	if len(result.Pages) != 2 {
		t.Errorf("Expected the budget to stop the crawl at 2 pages, got %d", len(result.Pages))
	}
}

// TestScrapeWebsite_Cancellation checks that a cancelled context returns the
// partial result instead of an error.
func TestScrapeWebsite_Cancellation(t *testing.T) {
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", samplePage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := newTestScraper(nil, mt)
	result, err := scraper.ScrapeWebsite(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("Cancelled crawl should not fail: %v", err)
	}
	if result == nil {
		t.Fatal("Cancelled crawl should return a partial result")
	}
	if len(result.Pages) != 0 {
		t.Errorf("Pre-cancelled crawl should visit nothing, got %d pages", len(result.Pages))
	}
}

// TestScrapeWebsite_IndexOverride checks that the override file substitutes
// the root document while reference resolution keeps using the real site URL.
func TestScrapeWebsite_IndexOverride(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, "override.html")
	override := `<a href="/from-override">link</a> <img src="/img/o.png">`
	if err := os.WriteFile(overridePath, []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", `<p>real root, must not be used</p>`)
	mt.RegisterHTML("https://example.com/from-override", `<p>inner</p>`)

	scraper := newTestScraper(&Config{MaxDepth: 1, IndexOverride: overridePath}, mt)
	result, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("ScrapeWebsite failed: %v", err)
	}

	if mt.RequestCount("https://example.com/") != 0 {
		t.Error("Root page fetch should be bypassed by the override")
	}
	if mt.RequestCount("https://example.com/from-override") != 1 {
		t.Error("Link from the override content should be traversed")
	}
	if len(result.Images) != 1 || result.Images[0].URL != "https://example.com/img/o.png" {
		t.Errorf("Override references must resolve against the site URL, got %v", result.Images)
	}
}

// TestScrapeWebsite_IndexOverrideMissing checks that an unreadable override
// file fails immediately with a FileError.
func TestScrapeWebsite_IndexOverrideMissing(t *testing.T) {
	mt := NewMockTransport()
	scraper := newTestScraper(&Config{IndexOverride: "/nonexistent/override.html"}, mt)

	_, err := scraper.ScrapeWebsite(context.Background(), "https://example.com/")
	if err == nil {
		t.Fatal("Expected an error for a missing override file")
	}
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("Expected a FileError, got %T: %v", err, err)
	}
}

// TestParseHTMLFile checks local file extraction and its idempotence
func TestParseHTMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte(samplePage), 0o644); err != nil {
		t.Fatal(err)
	}

	scraper := NewScraper(nil)
	first, err := scraper.ParseHTMLFile(path)
	if err != nil {
		t.Fatalf("ParseHTMLFile failed: %v", err)
	}
	second, err := scraper.ParseHTMLFile(path)
	if err != nil {
		t.Fatalf("Second ParseHTMLFile failed: %v", err)
	}

	if len(first.Links) != 2 || len(first.Images) != 2 || len(first.Emails) != 1 {
		t.Errorf("Unexpected counts: links=%d images=%d emails=%d",
			len(first.Links), len(first.Images), len(first.Emails))
	}
	if len(first.Links) != len(second.Links) || len(first.Emails) != len(second.Emails) ||
		len(first.Phones) != len(second.Phones) {
		t.Error("ParseHTMLFile should be idempotent")
	}
}

// TestParseHTMLFile_Missing checks the FileError for unreadable input
func TestParseHTMLFile_Missing(t *testing.T) {
	scraper := NewScraper(nil)
	_, err := scraper.ParseHTMLFile("/nonexistent/page.html")
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("Expected a FileError, got %T: %v", err, err)
	}
}

// TestSaveResults checks serialization to disk with the format extension
func TestSaveResults(t *testing.T) {
	dir := t.TempDir()
	mt := NewMockTransport()
	mt.RegisterHTML("https://example.com/", samplePage)

	scraper := newTestScraper(&Config{OutputFormat: "json"}, mt)
	result, err := scraper.ScrapeURL(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}

	path, err := scraper.SaveResults(result, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	if filepath.Ext(path) != ".json" {
		t.Errorf("Expected .json extension, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded ScrapeResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Saved file is not valid JSON: %v", err)
	}
	if decoded.BaseURL != "https://example.com/" {
		t.Errorf("Wrong base URL in saved results: %s", decoded.BaseURL)
	}
}

// TestNormalizeSeed checks seed URL validation and scheme defaulting
func TestNormalizeSeed(t *testing.T) {
	if got, err := normalizeSeed("example.com"); err != nil || got != "https://example.com" {
		t.Errorf("Bare host should default to https, got %q, %v", got, err)
	}
	if _, err := normalizeSeed(""); err == nil {
		t.Error("Empty seed should be rejected")
	}
	if _, err := normalizeSeed("ftp://example.com"); err == nil {
		t.Error("Non-HTTP scheme should be rejected")
	}
}
