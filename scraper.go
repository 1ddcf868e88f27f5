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

// Package webmirror is a scraping and site-mirroring engine. It crawls a
// website breadth-first up to a configured depth, extracts classified
// resource references, contact details and social links from every page,
// and can persist a browsable local mirror with rewritten references.
package webmirror

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentberlin/webmirror/debug"
)

// Config holds the scraper configuration. Zero-meaningful fields (MaxDepth,
// Delay, MaxRetries, MaxPages and the booleans) are taken as given; fields
// where zero means "unset" (UserAgent, Timeout, Parallelism, MaxBodySize,
// OutputFormat, MirrorDir) fall back to the defaults of NewDefaultConfig.
type Config struct {
	// MaxDepth bounds traversal: 0 visits only the seed page, 1 adds the
	// pages it links to, and so on
	MaxDepth int
	// Delay is the politeness pause before each outbound request
	Delay time.Duration
	// RandomDelay is an extra randomized pause added on top of Delay
	RandomDelay time.Duration
	// OutputFormat selects SaveResults encoding: "json", "yaml" or "txt"
	OutputFormat string
	// MirrorMode enables persisting pages and resources locally
	MirrorMode bool
	// MirrorDir is the mirror root directory
	MirrorDir string
	// IndexOverride substitutes a local HTML file for the root page request
	IndexOverride string
	// ProcessJS enables best-effort URL scanning inside script text
	ProcessJS bool
	// UserAgent is sent with every request
	UserAgent string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transport error
	MaxRetries int
	// MaxBodySize caps response bodies in bytes
	MaxBodySize int
	// MaxPages bounds the number of visited pages per crawl. 0 = unlimited.
	MaxPages int
	// IgnoreRobotsTxt disables the per-host robots.txt gate
	IgnoreRobotsTxt bool
	// SitemapDiscovery seeds the frontier from sitemap.xml when present
	SitemapDiscovery bool
	// URLFilters, when non-empty, restricts traversal to URLs matching at
	// least one glob pattern
	URLFilters []string
	// DisallowedURLFilters excludes URLs matching any glob pattern
	DisallowedURLFilters []string
	// DetectCharset enables charset sniffing for responses that do not
	// declare an encoding
	DetectCharset bool
	// ParseHTTPErrorResponse extracts findings from non-2xx HTML bodies too
	ParseHTTPErrorResponse bool
	// Parallelism is the worker count for mirror resource downloads
	Parallelism int
	// Debugger receives engine events when set
	Debugger debug.Debugger
}

// NewDefaultConfig returns the default scraper configuration
func NewDefaultConfig() *Config {
	return &Config{
		MaxDepth:     2,
		OutputFormat: "json",
		MirrorDir:    "mirror",
		UserAgent:    "webmirror/1.0 (+https://github.com/agentberlin/webmirror)",
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		MaxBodySize:  10 * 1024 * 1024,
		Parallelism:  4,
	}
}

// merge fills unset infrastructure fields from the defaults
func (c *Config) merge(defaults *Config) {
	if c.OutputFormat == "" {
		c.OutputFormat = defaults.OutputFormat
	}
	if c.MirrorDir == "" {
		c.MirrorDir = defaults.MirrorDir
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = defaults.MaxBodySize
	}
	if c.Parallelism == 0 {
		c.Parallelism = defaults.Parallelism
	}
}

// Scraper is the engine facade. One Scraper may run any number of scrape
// operations; each operation owns its own crawl state and result.
type Scraper struct {
	cfg     *Config
	fetcher *Fetcher
}

// NewScraper creates a Scraper. A nil config uses NewDefaultConfig.
func NewScraper(config *Config) *Scraper {
	if config == nil {
		config = NewDefaultConfig()
	} else {
		config.merge(NewDefaultConfig())
	}
	return &Scraper{
		cfg:     config,
		fetcher: NewFetcher(config),
	}
}

// WithTransport replaces the HTTP transport, used by tests to route all
// requests through a MockTransport.
func (s *Scraper) WithTransport(transport http.RoundTripper) *Scraper {
	s.fetcher.WithTransport(transport)
	return s
}

// ScrapeWebsite crawls the site starting at seedURL up to the configured
// MaxDepth and returns the aggregated result. Cancelling the context stops
// the crawl and returns the partial result collected so far.
func (s *Scraper) ScrapeWebsite(ctx context.Context, seedURL string) (*ScrapeResult, error) {
	return s.run(ctx, seedURL, s.cfg.MaxDepth)
}

// ScrapeURL scrapes a single page, regardless of the configured MaxDepth.
// Mirroring still applies when enabled.
func (s *Scraper) ScrapeURL(ctx context.Context, pageURL string) (*ScrapeResult, error) {
	return s.run(ctx, pageURL, 0)
}

func (s *Scraper) run(ctx context.Context, seedURL string, maxDepth int) (*ScrapeResult, error) {
	seed, err := normalizeSeed(seedURL)
	if err != nil {
		return nil, err
	}
	c, err := newCrawler(s.cfg, s.fetcher)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, seed, maxDepth)
}

// ParseHTMLFile extracts findings from a local HTML file without any network
// traffic. The file's own location is the resolution base, so relative
// references resolve to file URLs. The operation is idempotent.
func (s *Scraper) ParseHTMLFile(path string) (*ScrapeResult, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read HTML file", Err: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	base := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	extractor := &Extractor{ProcessJS: s.cfg.ProcessJS}
	findings := extractor.Extract(doc, base)

	result := NewScrapeResult(path)
	result.Merge(findings)
	record := PageRecord{URL: path, FetchedAt: time.Now()}
	if hash, err := ComputePageHash(body, ""); err == nil {
		record.ContentHash = hash
	}
	result.AddPage(record)
	return result, nil
}

// SaveResults serializes the result in the configured OutputFormat and writes
// it to baseName plus the format extension. Returns the written path.
func (s *Scraper) SaveResults(result *ScrapeResult, baseName string) (string, error) {
	data, err := result.Serialize(s.cfg.OutputFormat)
	if err != nil {
		return "", err
	}
	path := baseName + FormatExtension(s.cfg.OutputFormat)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &FileError{Path: path, Op: "write results file", Err: err}
	}
	return path, nil
}

// PrintSummary writes the human-readable summary to stdout
func (s *Scraper) PrintSummary(result *ScrapeResult) {
	fmt.Print(result.Summary())
}

// normalizeSeed validates a seed URL, defaulting the scheme to https for
// bare host names.
func normalizeSeed(seedURL string) (string, error) {
	seedURL = strings.TrimSpace(seedURL)
	if seedURL == "" {
		return "", fmt.Errorf("empty seed URL")
	}
	if !strings.Contains(seedURL, "://") {
		seedURL = "https://" + seedURL
	}
	u, err := url.Parse(seedURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid seed URL %q", seedURL)
	}
	return u.String(), nil
}
