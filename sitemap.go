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
	"strings"

	"github.com/antchfx/xmlquery"
)

// defaultSitemapPaths are the locations tried when sitemap discovery is
// enabled and no explicit sitemap URL is configured
var defaultSitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}

// fetchSitemapURLs downloads one sitemap and returns the page URLs it lists.
// Sitemap index files are followed recursively.
func fetchSitemapURLs(ctx context.Context, fetcher *Fetcher, sitemapURL string) ([]string, error) {
	res, err := fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, err
	}

	var urls []string
	// <urlset><url><loc> entries are page URLs
	for _, loc := range xmlquery.Find(doc, "//urlset/url/loc") {
		if u := strings.TrimSpace(loc.InnerText()); u != "" {
			urls = append(urls, u)
		}
	}
	// <sitemapindex><sitemap><loc> entries point at nested sitemaps
	for _, loc := range xmlquery.Find(doc, "//sitemapindex/sitemap/loc") {
		nested := strings.TrimSpace(loc.InnerText())
		if nested == "" {
			continue
		}
		nestedURLs, err := fetchSitemapURLs(ctx, fetcher, nested)
		if err != nil {
			continue
		}
		urls = append(urls, nestedURLs...)
	}
	return urls, nil
}

// trySitemaps probes the default sitemap locations for a seed URL and
// returns every page URL found. Missing sitemaps are not an error.
func trySitemaps(ctx context.Context, fetcher *Fetcher, scheme, host string) []string {
	var all []string
	for _, p := range defaultSitemapPaths {
		urls, err := fetchSitemapURLs(ctx, fetcher, scheme+"://"+host+p)
		if err != nil {
			continue
		}
		all = append(all, urls...)
	}
	return all
}
