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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentberlin/webmirror"
	"github.com/agentberlin/webmirror/debug"
	"github.com/agentberlin/webmirror/store"
)

// scrapeFlags holds all the flags for the scrape command
type scrapeFlags struct {
	// Traversal
	depth       int
	maxPages    int
	delay       time.Duration
	randomDelay time.Duration
	parallelism int

	// Behavior
	userAgent     string
	timeout       time.Duration
	retries       int
	ignoreRobots  bool
	sitemap       bool
	processJS     bool
	detectCharset bool
	parseErrors   bool
	allow         string
	deny          string

	// Mirroring
	mirror        bool
	mirrorDir     string
	indexOverride string

	// Output
	output  string
	format  string
	single  bool
	noStore bool
	debug   bool
	quiet   bool
}

func runScrape(args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)

	var flags scrapeFlags

	// Traversal
	fs.IntVar(&flags.depth, "depth", 2, "Maximum link depth from the seed (0 = seed page only)")
	fs.IntVar(&flags.depth, "d", 2, "Maximum link depth (shorthand)")
	fs.IntVar(&flags.maxPages, "max-pages", 0, "Maximum pages to visit (0 = unlimited)")
	fs.DurationVar(&flags.delay, "delay", 0, "Politeness delay before each request (e.g. 500ms)")
	fs.DurationVar(&flags.randomDelay, "random-delay", 0, "Extra randomized delay added to -delay")
	fs.IntVar(&flags.parallelism, "parallelism", 4, "Concurrent resource downloads when mirroring")
	fs.IntVar(&flags.parallelism, "p", 4, "Concurrent resource downloads (shorthand)")

	// Behavior
	fs.StringVar(&flags.userAgent, "user-agent", "", "Custom User-Agent string")
	fs.StringVar(&flags.userAgent, "A", "", "Custom User-Agent string (shorthand)")
	fs.DurationVar(&flags.timeout, "timeout", 30*time.Second, "Per-request HTTP timeout")
	fs.IntVar(&flags.retries, "retries", 2, "Extra attempts after a transport error")
	fs.BoolVar(&flags.ignoreRobots, "ignore-robots", false, "Ignore robots.txt rules")
	fs.BoolVar(&flags.sitemap, "sitemap", false, "Seed the crawl from sitemap.xml when present")
	fs.BoolVar(&flags.processJS, "process-js", false, "Scan script text for URL-shaped strings")
	fs.BoolVar(&flags.detectCharset, "detect-charset", false, "Sniff the charset of undeclared responses")
	fs.BoolVar(&flags.parseErrors, "parse-errors", false, "Extract findings from non-2xx HTML responses too")
	fs.StringVar(&flags.allow, "allow", "", "Glob pattern URLs must match to be crawled")
	fs.StringVar(&flags.deny, "deny", "", "Glob pattern for URLs to exclude from the crawl")

	// Mirroring
	fs.BoolVar(&flags.mirror, "mirror", false, "Save pages and resources to a local mirror")
	fs.BoolVar(&flags.mirror, "m", false, "Save a local mirror (shorthand)")
	fs.StringVar(&flags.mirrorDir, "mirror-dir", "mirror", "Mirror root directory")
	fs.StringVar(&flags.indexOverride, "index-override", "", "Local HTML file substituted for the root page")

	// Output
	fs.StringVar(&flags.output, "output", "scrape_results", "Base name for the results file")
	fs.StringVar(&flags.output, "o", "scrape_results", "Base name for the results file (shorthand)")
	fs.StringVar(&flags.format, "format", "json", "Output format: json, yaml, txt")
	fs.StringVar(&flags.format, "f", "json", "Output format (shorthand)")
	fs.BoolVar(&flags.single, "single", false, "Scrape only the given page, ignoring -depth")
	fs.BoolVar(&flags.noStore, "no-store", false, "Skip saving the run to the history database")
	fs.BoolVar(&flags.debug, "debug", false, "Log engine events")
	fs.BoolVar(&flags.quiet, "quiet", false, "Suppress progress output")
	fs.BoolVar(&flags.quiet, "q", false, "Suppress progress output (shorthand)")

	fs.Usage = func() {
		fmt.Println(`Usage: webmirror scrape <url> [flags]

Crawl a website, extract resources and contact details, and save the results.

Flags:`)
		fs.PrintDefaults()
		fmt.Println(`
Examples:
  # Basic scrape, two levels deep
  webmirror scrape https://example.com

  # Mirror the site locally with four download workers
  webmirror scrape https://example.com --mirror --mirror-dir ./example -p 4

  # Polite scrape restricted to the blog section
  webmirror scrape https://example.com --delay 1s --allow "https://example.com/blog/*"`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("URL argument is required")
	}
	urlStr := fs.Arg(0)

	switch flags.format {
	case "json", "yaml", "yml", "txt", "text":
	default:
		return fmt.Errorf("invalid format: %s (must be json, yaml or txt)", flags.format)
	}

	logger := newLogger(flags.quiet)

	cfg := &webmirror.Config{
		MaxDepth:               flags.depth,
		Delay:                  flags.delay,
		RandomDelay:            flags.randomDelay,
		OutputFormat:           flags.format,
		MirrorMode:             flags.mirror,
		MirrorDir:              flags.mirrorDir,
		IndexOverride:          flags.indexOverride,
		ProcessJS:              flags.processJS,
		UserAgent:              flags.userAgent,
		Timeout:                flags.timeout,
		MaxRetries:             flags.retries,
		MaxPages:               flags.maxPages,
		IgnoreRobotsTxt:        flags.ignoreRobots,
		SitemapDiscovery:       flags.sitemap,
		DetectCharset:          flags.detectCharset,
		ParseHTTPErrorResponse: flags.parseErrors,
		Parallelism:            flags.parallelism,
	}
	if flags.allow != "" {
		cfg.URLFilters = []string{flags.allow}
	}
	if flags.deny != "" {
		cfg.DisallowedURLFilters = []string{flags.deny}
	}
	if flags.debug {
		cfg.Debugger = &debug.LogDebugger{}
	}

	scraper := webmirror.NewScraper(cfg)

	// Ctrl-C cancels the crawl; the partial result is still saved
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info().Str("url", urlStr).Int("depth", flags.depth).Msg("starting scrape")
	started := time.Now()

	var (
		result *webmirror.ScrapeResult
		err    error
	)
	if flags.single {
		result, err = scraper.ScrapeURL(ctx, urlStr)
	} else {
		result, err = scraper.ScrapeWebsite(ctx, urlStr)
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Warn().Msg("scrape interrupted, saving partial results")
	}
	duration := time.Since(started)
	logger.Info().
		Int("pages", len(result.Pages)).
		Int("errors", len(result.Errors)).
		Dur("took", duration).
		Msg("scrape finished")

	path, err := scraper.SaveResults(result, flags.output)
	if err != nil {
		return err
	}
	logger.Info().Str("path", path).Msg("results saved")

	if !flags.quiet {
		scraper.PrintSummary(result)
	}

	if !flags.noStore {
		if err := saveRun(result, started, duration); err != nil {
			// History is best effort; the results file already exists
			logger.Warn().Err(err).Msg("failed to save run history")
		}
	}
	return nil
}

func saveRun(result *webmirror.ScrapeResult, started time.Time, duration time.Duration) error {
	st, err := store.NewStore()
	if err != nil {
		return err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = st.SaveRun(&store.ScrapeRun{
		BaseURL:     result.BaseURL,
		StartedAt:   started.Unix(),
		DurationMs:  duration.Milliseconds(),
		Pages:       len(result.Pages),
		Links:       len(result.Links),
		Images:      len(result.Images),
		Stylesheets: len(result.Stylesheets),
		Scripts:     len(result.Scripts),
		Emails:      len(result.Emails),
		Phones:      len(result.Phones),
		Social:      len(result.Social),
		Errors:      len(result.Errors),
		Mirrored:    len(result.Downloads),
		ResultJSON:  string(resultJSON),
	})
	return err
}
