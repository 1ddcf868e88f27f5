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
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gobwas/glob"
	"golang.org/x/net/publicsuffix"

	"github.com/agentberlin/webmirror/debug"
	"github.com/agentberlin/webmirror/storage"
)

var errRobotsDisallowed = errors.New("blocked by robots.txt")

// frontierEntry is one pending visit: a URL and its link distance from the seed
type frontierEntry struct {
	url   string
	depth int
}

// crawler runs one bounded-depth traversal. Visits are sequential and
// deterministic; only the mirror writer's resource downloads fan out.
// A crawler instance is single-use: one seed, one result.
type crawler struct {
	cfg       *Config
	fetcher   *Fetcher
	extractor *Extractor
	state     *storage.CrawlState
	override  *OverrideResolver
	robots    *robotsCache
	mirror    *MirrorWriter

	// scope is the registrable domain of the seed; only hosts sharing it
	// are eligible for traversal
	scope        string
	allowed      []glob.Glob
	disallowed   []glob.Glob
	overrideBody []byte

	requestID uint32
	visited   int
}

func newCrawler(cfg *Config, fetcher *Fetcher) (*crawler, error) {
	c := &crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: &Extractor{ProcessJS: cfg.ProcessJS},
		state:     storage.NewCrawlState(),
	}
	if cfg.IndexOverride != "" {
		c.override = &OverrideResolver{Path: cfg.IndexOverride}
	}
	if !cfg.IgnoreRobotsTxt {
		c.robots = newRobotsCache(fetcher.Client, cfg.UserAgent)
	}
	if cfg.MirrorMode {
		c.mirror = NewMirrorWriter(cfg.MirrorDir, fetcher, c.state, cfg.Parallelism)
	}
	var err error
	if c.allowed, err = compileFilters(cfg.URLFilters); err != nil {
		return nil, err
	}
	if c.disallowed, err = compileFilters(cfg.DisallowedURLFilters); err != nil {
		return nil, err
	}
	if cfg.Debugger != nil {
		if err := cfg.Debugger.Init(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func compileFilters(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid URL filter %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Run crawls from the seed URL up to maxDepth and returns the aggregate.
// Cancellation stops the visit loop and returns the partial result; only
// setup failures (bad seed, unreadable override, unwritable mirror dir)
// return an error.
func (c *crawler) Run(ctx context.Context, seedURL string, maxDepth int) (*ScrapeResult, error) {
	seed, err := url.Parse(seedURL)
	if err != nil || seed.Host == "" {
		return nil, fmt.Errorf("invalid seed URL %q", seedURL)
	}
	c.scope = registrableDomain(seed.Hostname())

	result := NewScrapeResult(seed.String())

	// Configuration mistakes surface before the first fetch
	if c.override != nil {
		if c.overrideBody, err = c.override.Load(); err != nil {
			return nil, err
		}
	}
	if c.mirror != nil {
		if err := c.mirror.Init(); err != nil {
			return nil, err
		}
	}

	frontier := []frontierEntry{{url: seed.String(), depth: 0}}
	c.state.MarkEnqueued(seed.String())
	frontier = append(frontier, c.seedFromSitemaps(ctx, seed, maxDepth)...)

	for i := 0; i < len(frontier); i++ {
		if ctx.Err() != nil {
			break
		}
		if c.cfg.MaxPages > 0 && c.visited >= c.cfg.MaxPages {
			break
		}
		entry := frontier[i]
		u, err := url.Parse(entry.url)
		if err != nil {
			continue
		}
		if c.state.VisitIfNotVisited(storage.URLHash(entry.url)) {
			continue
		}
		if c.robots != nil && !c.robots.Allowed(ctx, u) {
			c.event("robots", map[string]string{"url": entry.url})
			result.AddError(entry.url, errRobotsDisallowed)
			continue
		}
		c.visited++
		next := c.visit(ctx, u, entry.depth, result)

		if entry.depth+1 > maxDepth {
			continue
		}
		for _, link := range next {
			if !c.eligible(link) {
				continue
			}
			if c.state.MarkEnqueued(link) {
				frontier = append(frontier, frontierEntry{url: link, depth: entry.depth + 1})
			}
		}
	}

	if c.mirror != nil {
		if err := c.mirror.WriteIndex(); err != nil {
			result.AddError(mirrorIndexName, err)
		}
		result.SetLocalPaths(c.mirror.DownloadRecords())
	}
	return result, nil
}

// visit fetches, extracts and optionally mirrors one page, and returns the
// anchor URLs eligible for enqueueing. Failures are recorded on the result;
// they never abort the crawl.
func (c *crawler) visit(ctx context.Context, u *url.URL, depth int, result *ScrapeResult) []string {
	id := atomic.AddUint32(&c.requestID, 1)
	c.event("visit", map[string]string{"url": u.String(), "depth": strconv.Itoa(depth)})

	record := PageRecord{URL: u.String(), Depth: depth, FetchedAt: time.Now()}

	var body []byte
	switch {
	case c.override.Applies(u):
		// Externally supplied markup replaces the root document; the real
		// URL stays the resolution base
		body = c.overrideBody
	default:
		res, err := c.fetcher.Fetch(ctx, u.String())
		if res != nil {
			record.Status = res.StatusCode
		}
		if err != nil {
			record.Error = err.Error()
			result.AddError(u.String(), err)
			c.event("error", map[string]string{"url": u.String(), "error": err.Error(), "request": strconv.Itoa(int(id))})

			var statusErr *StatusError
			if !errors.As(err, &statusErr) || !c.cfg.ParseHTTPErrorResponse || res == nil || !res.IsHTML() {
				result.AddPage(record)
				return nil
			}
			// Error pages still get parsed when asked for
			body = res.Body
		} else {
			if !res.IsHTML() {
				result.AddPage(record)
				return nil
			}
			body = res.Body
		}
	}

	if hash, err := ComputePageHash(body, ""); err == nil {
		record.ContentHash = hash
		record.DuplicateContent = c.state.SeenContent(hash)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		record.Error = err.Error()
		result.AddError(u.String(), err)
		result.AddPage(record)
		return nil
	}

	findings := c.extractor.Extract(doc, u)
	result.Merge(findings)
	result.AddPage(record)

	if c.mirror != nil {
		local, err := c.mirror.PersistPage(ctx, u, body, findings, func(resURL string, err error) {
			result.AddError(resURL, err)
		})
		if err != nil {
			result.AddError(u.String(), err)
		} else {
			c.event("download", map[string]string{"url": u.String(), "path": local})
		}
	}
	return findings.Anchors
}

// seedFromSitemaps probes the default sitemap locations and returns eligible
// page URLs as depth-1 frontier entries. No-op unless discovery is enabled
// and the depth bound admits depth 1.
func (c *crawler) seedFromSitemaps(ctx context.Context, seed *url.URL, maxDepth int) []frontierEntry {
	if !c.cfg.SitemapDiscovery || maxDepth < 1 {
		return nil
	}
	var entries []frontierEntry
	for _, u := range trySitemaps(ctx, c.fetcher, seed.Scheme, seed.Host) {
		if !c.eligible(u) {
			continue
		}
		if c.state.MarkEnqueued(u) {
			entries = append(entries, frontierEntry{url: u, depth: 1})
		}
	}
	return entries
}

// eligible reports whether a discovered URL may be enqueued: same registrable
// domain as the seed and passing the allow/deny filters. Cross-scope URLs are
// still recorded as findings, just never traversed.
func (c *crawler) eligible(link string) bool {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if registrableDomain(u.Hostname()) != c.scope {
		return false
	}
	for _, g := range c.disallowed {
		if g.Match(link) {
			return false
		}
	}
	if len(c.allowed) == 0 {
		return true
	}
	for _, g := range c.allowed {
		if g.Match(link) {
			return true
		}
	}
	return false
}

func (c *crawler) event(eventType string, values map[string]string) {
	if c.cfg.Debugger == nil {
		return
	}
	c.cfg.Debugger.Event(&debug.Event{
		Type:      eventType,
		RequestID: atomic.LoadUint32(&c.requestID),
		Values:    values,
	})
}

// registrableDomain returns the eTLD+1 for a host, falling back to the exact
// host for names the public suffix list cannot split (localhost, IPs).
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}
