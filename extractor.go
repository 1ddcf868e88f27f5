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
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	whatwgUrl "github.com/nlnwa/whatwg-url/url"
	"golang.org/x/net/html"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// Tolerates common separators: space, dot, hyphen, parentheses
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s.\-]?)?(?:\(\d{3}\)|\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}`)

	// Script-text scanning requires a scheme or an absolute-path prefix so
	// false positives stay rare (relative fragments are too ambiguous).
	scriptAbsURLPattern  = regexp.MustCompile(`https?://[^\s"'<>\\)]+`)
	scriptPathURLPattern = regexp.MustCompile(`["'](/[A-Za-z0-9_\-./]+\.[A-Za-z0-9]{2,5})["']`)

	cssCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	cssURLPattern     = regexp.MustCompile(`url\s*\(\s*['"]?([^'")]+)['"]?\s*\)`)
)

// socialPlatforms maps registrable host suffixes to platform identifiers
var socialPlatforms = map[string]string{
	"facebook.com":  "facebook",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"instagram.com": "instagram",
	"linkedin.com":  "linkedin",
	"youtube.com":   "youtube",
	"youtu.be":      "youtube",
	"tiktok.com":    "tiktok",
	"pinterest.com": "pinterest",
	"github.com":    "github",
}

// Extractor walks a parsed document tree and produces typed findings.
// Extraction is pure: no network or file I/O, deterministic for the same
// tree and base URL.
type Extractor struct {
	// ProcessJS enables best-effort URL scanning inside script text
	ProcessJS bool
}

// Extract produces the findings for one page. baseURL is the real page URL,
// even when the markup came from an override file. A <base href> element in
// the document takes precedence for reference resolution, matching browser
// behavior.
func (e *Extractor) Extract(doc *goquery.Document, baseURL *url.URL) *PageFindings {
	f := &PageFindings{}
	base := baseURL.String()
	if href, found := doc.Find("base[href]").Attr("href"); found {
		if resolved, ok := resolveRef(base, href); ok {
			base = resolved
		}
	}

	// Anchors: hyperlinks, mailto:, tel:
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		switch {
		case strings.HasPrefix(href, "mailto:"):
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			if emailPattern.MatchString(addr) {
				f.Emails = append(f.Emails, addr)
			}
		case strings.HasPrefix(href, "tel:"):
			num := strings.TrimPrefix(href, "tel:")
			if num != "" {
				f.Phones = append(f.Phones, num)
			}
		default:
			resolved, ok := resolveRef(base, href)
			if !ok {
				return
			}
			if platform, social := socialPlatform(resolved); social {
				f.Social = append(f.Social, SocialLink{Platform: platform, URL: resolved})
				return
			}
			f.Resources = append(f.Resources, ResourceRef{Kind: KindLink, Ref: href, URL: resolved})
			f.Anchors = append(f.Anchors, resolved)
		}
	})

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if resolved, ok := resolveRef(base, src); ok {
			f.Resources = append(f.Resources, ResourceRef{Kind: KindImage, Ref: src, URL: resolved})
		}
	})

	doc.Find("link[rel='stylesheet'][href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if resolved, ok := resolveRef(base, href); ok {
			f.Resources = append(f.Resources, ResourceRef{Kind: KindStylesheet, Ref: href, URL: resolved})
		}
	})

	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if resolved, ok := resolveRef(base, src); ok {
			f.Resources = append(f.Resources, ResourceRef{Kind: KindScript, Ref: src, URL: resolved})
		}
	})

	e.scanText(doc, f)

	if e.ProcessJS {
		doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
			if _, external := sel.Attr("src"); external {
				return
			}
			e.ScanScriptText(sel.Text(), base, f)
		})
	}

	return f
}

// scanText walks visible text nodes for email and phone patterns.
// Script and style text is skipped; it is handled by ScanScriptText when
// ProcessJS is on.
func (e *Extractor) scanText(doc *goquery.Document, f *PageFindings) {
	if len(doc.Nodes) == 0 {
		return
	}
	for _, n := range htmlquery.Find(doc.Nodes[0], "//text()") {
		if p := n.Parent; p != nil && p.Type == html.ElementNode {
			switch p.Data {
			case "script", "style", "noscript":
				continue
			}
		}
		text := n.Data
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, m := range emailPattern.FindAllString(text, -1) {
			f.Emails = append(f.Emails, m)
		}
		for _, m := range phonePattern.FindAllString(text, -1) {
			if plausiblePhone(m) {
				f.Phones = append(f.Phones, strings.TrimSpace(m))
			}
		}
	}
}

// ScanScriptText recovers URL-shaped substrings from script source. Findings
// are resource references only; they are never enqueued for traversal.
func (e *Extractor) ScanScriptText(script, base string, f *PageFindings) {
	add := func(ref, resolved string) {
		kind := inferResourceKind(resolved)
		f.Resources = append(f.Resources, ResourceRef{Kind: kind, Ref: ref, URL: resolved})
	}
	for _, m := range scriptAbsURLPattern.FindAllString(script, -1) {
		m = strings.TrimRight(m, ".,;")
		if resolved, ok := resolveRef(base, m); ok {
			add(m, resolved)
		}
	}
	for _, m := range scriptPathURLPattern.FindAllStringSubmatch(script, -1) {
		if resolved, ok := resolveRef(base, m[1]); ok {
			add(m[1], resolved)
		}
	}
}

// ExtractCSSURLs returns the url() references in a stylesheet body, with
// comments stripped first so commented-out rules are ignored. Used by the
// mirror writer to pull fonts and background images referenced from CSS.
func ExtractCSSURLs(cssContent string) []string {
	cssContent = cssCommentPattern.ReplaceAllString(cssContent, "")
	matches := cssURLPattern.FindAllStringSubmatch(cssContent, -1)

	var urls []string
	seen := make(map[string]bool)
	for _, match := range matches {
		u := strings.TrimSpace(match[1])
		if u == "" || strings.HasPrefix(u, "data:") || seen[u] {
			continue
		}
		urls = append(urls, u)
		seen[u] = true
	}
	return urls
}

// resolveRef resolves a reference against a base URL. Fragment-only and
// non-fetchable references are discarded; malformed references are dropped
// rather than aborting extraction. The resolved URL has its fragment removed.
func resolveRef(base, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}
	switch {
	case strings.HasPrefix(ref, "javascript:"),
		strings.HasPrefix(ref, "data:"),
		strings.HasPrefix(ref, "mailto:"),
		strings.HasPrefix(ref, "tel:"):
		return "", false
	}
	u, err := urlParser.ParseRef(base, ref)
	if err != nil {
		return "", false
	}
	scheme := u.Scheme()
	if scheme != "http" && scheme != "https" && scheme != "file" {
		return "", false
	}
	return u.Href(true), true
}

// socialPlatform reports whether a resolved URL belongs to a known social
// platform and which one.
func socialPlatform(resolved string) (string, bool) {
	u, err := url.Parse(resolved)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	if platform, ok := socialPlatforms[host]; ok {
		return platform, true
	}
	for suffix, platform := range socialPlatforms {
		if strings.HasSuffix(host, "."+suffix) {
			return platform, true
		}
	}
	return "", false
}

// inferResourceKind classifies a URL found outside standard attributes by
// its extension. Unknown extensions are recorded as plain links.
func inferResourceKind(urlStr string) ResourceKind {
	urlLower := strings.ToLower(urlStr)
	if i := strings.IndexAny(urlLower, "?#"); i >= 0 {
		urlLower = urlLower[:i]
	}
	switch {
	case strings.HasSuffix(urlLower, ".js") || strings.HasSuffix(urlLower, ".mjs"):
		return KindScript
	case strings.HasSuffix(urlLower, ".css"):
		return KindStylesheet
	case strings.HasSuffix(urlLower, ".jpg") || strings.HasSuffix(urlLower, ".jpeg") ||
		strings.HasSuffix(urlLower, ".png") || strings.HasSuffix(urlLower, ".gif") ||
		strings.HasSuffix(urlLower, ".webp") || strings.HasSuffix(urlLower, ".svg") ||
		strings.HasSuffix(urlLower, ".ico"):
		return KindImage
	default:
		return KindLink
	}
}

// plausiblePhone filters obvious non-phone matches by digit count
func plausiblePhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}
