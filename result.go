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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ResourceKind classifies a reference discovered in a page
type ResourceKind string

const (
	// KindLink is an anchor reference to another document
	KindLink ResourceKind = "link"
	// KindImage is an <img src> reference
	KindImage ResourceKind = "image"
	// KindStylesheet is a <link rel="stylesheet"> reference
	KindStylesheet ResourceKind = "stylesheet"
	// KindScript is a <script src> reference
	KindScript ResourceKind = "script"
)

// ResourceRef is a single classified reference extracted from a page.
// LocalPath is empty until the mirror writer downloads the target.
type ResourceRef struct {
	// Kind is the reference classification (link, image, stylesheet, script)
	Kind ResourceKind `json:"kind" yaml:"kind"`
	// Ref is the reference string as it appeared in the markup
	Ref string `json:"ref" yaml:"ref"`
	// URL is the reference resolved to an absolute URL
	URL string `json:"url" yaml:"url"`
	// LocalPath is the mirror path the target was saved to, if mirrored
	LocalPath string `json:"localPath,omitempty" yaml:"localPath,omitempty"`
}

// SocialLink is a discovered link whose host matches a known social platform
type SocialLink struct {
	// Platform is the platform identifier (e.g. "twitter", "linkedin")
	Platform string `json:"platform" yaml:"platform"`
	// URL is the profile or share URL that was discovered
	URL string `json:"url" yaml:"url"`
}

// PageRecord describes one visited page. Records are created once per unique
// URL and are not mutated after the visit completes.
type PageRecord struct {
	// URL is the page URL that was visited
	URL string `json:"url" yaml:"url"`
	// Status is the HTTP status code (0 for transport errors and local files)
	Status int `json:"status" yaml:"status"`
	// Depth is the link distance from the seed URL at discovery time
	Depth int `json:"depth" yaml:"depth"`
	// FetchedAt is when the visit happened
	FetchedAt time.Time `json:"fetchedAt" yaml:"fetchedAt"`
	// ContentHash is the hash of the page body (empty if hashing is disabled)
	ContentHash string `json:"contentHash,omitempty" yaml:"contentHash,omitempty"`
	// DuplicateContent indicates the same content hash was seen on another URL
	DuplicateContent bool `json:"duplicateContent,omitempty" yaml:"duplicateContent,omitempty"`
	// Error contains the failure message if the visit failed, empty otherwise
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// PageError records a per-page failure that did not abort the crawl
type PageError struct {
	// URL is the page or resource URL that failed
	URL string `json:"url" yaml:"url"`
	// Message is the failure description
	Message string `json:"message" yaml:"message"`
}

// DownloadRecord is one entry of the downloaded-files map, in download order
type DownloadRecord struct {
	// URL is the original remote URL
	URL string `json:"url" yaml:"url"`
	// LocalPath is where the content was saved under the mirror root
	LocalPath string `json:"localPath" yaml:"localPath"`
}

// PageFindings holds everything the extractor produced for a single page.
// The aggregator folds findings into the crawl-wide ScrapeResult.
type PageFindings struct {
	// Resources are all classified references, in document order
	Resources []ResourceRef
	// Anchors are the absolute URLs of anchor elements, the only references
	// eligible for traversal (script-scanned URLs are findings only)
	Anchors []string
	// Emails are addresses found in mailto: links and visible text
	Emails []string
	// Phones are phone numbers found in tel: links and visible text
	Phones []string
	// Social are links whose host matched a known social platform
	Social []SocialLink
}

// ScrapeResult is the terminal aggregate of one scrape operation. It is
// read-only to callers; all mutation happens through the aggregator while
// the crawl is running.
type ScrapeResult struct {
	// BaseURL is the seed URL (or file path for ParseHTMLFile)
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
	// Pages are the visited pages in visit order
	Pages []PageRecord `json:"pages" yaml:"pages"`
	// Links are anchor references, deduplicated, in first-seen order
	Links []ResourceRef `json:"links" yaml:"links"`
	// Images are image references, deduplicated, in first-seen order
	Images []ResourceRef `json:"images" yaml:"images"`
	// Stylesheets are stylesheet references, deduplicated, in first-seen order
	Stylesheets []ResourceRef `json:"stylesheets" yaml:"stylesheets"`
	// Scripts are script references, deduplicated, in first-seen order
	Scripts []ResourceRef `json:"scripts" yaml:"scripts"`
	// Emails are deduplicated addresses, scoped to the whole crawl
	Emails []string `json:"emails" yaml:"emails"`
	// Phones are deduplicated phone numbers, scoped to the whole crawl
	Phones []string `json:"phones" yaml:"phones"`
	// Social are deduplicated social platform links
	Social []SocialLink `json:"socialMedia" yaml:"socialMedia"`
	// Errors are per-page failures; the crawl continued past each of them
	Errors []PageError `json:"errors" yaml:"errors"`
	// Downloads is the downloaded-files map as ordered (url, local path) pairs
	Downloads []DownloadRecord `json:"downloads,omitempty" yaml:"downloads,omitempty"`

	// seen tracks dedup keys per container so inserts are idempotent.
	// The original kept unordered sets and serialized them directly, which
	// made output ordering unstable; dedup-on-insert keeps first-seen order.
	seen map[string]bool
}

// NewScrapeResult creates an empty aggregate for one scrape operation
func NewScrapeResult(baseURL string) *ScrapeResult {
	return &ScrapeResult{
		BaseURL: baseURL,
		seen:    make(map[string]bool),
	}
}

// AddPage appends a visited page record
func (r *ScrapeResult) AddPage(page PageRecord) {
	r.Pages = append(r.Pages, page)
}

// AddError records a per-page failure without terminating the crawl
func (r *ScrapeResult) AddError(url string, err error) {
	r.Errors = append(r.Errors, PageError{URL: url, Message: err.Error()})
}

// Merge folds per-page findings into the aggregate. Contact findings and
// social links are deduplicated globally; resource lists are deduplicated
// within their kind only, so the same URL may appear as both a link and an
// image reference.
func (r *ScrapeResult) Merge(f *PageFindings) {
	if f == nil {
		return
	}
	for _, res := range f.Resources {
		r.addResource(res)
	}
	for _, email := range f.Emails {
		if r.markSeen("email:" + strings.ToLower(email)) {
			r.Emails = append(r.Emails, email)
		}
	}
	for _, phone := range f.Phones {
		if r.markSeen("phone:" + phone) {
			r.Phones = append(r.Phones, phone)
		}
	}
	for _, s := range f.Social {
		if r.markSeen("social:" + s.URL) {
			r.Social = append(r.Social, s)
		}
	}
}

func (r *ScrapeResult) addResource(res ResourceRef) {
	if !r.markSeen(string(res.Kind) + ":" + res.URL) {
		return
	}
	switch res.Kind {
	case KindLink:
		r.Links = append(r.Links, res)
	case KindImage:
		r.Images = append(r.Images, res)
	case KindStylesheet:
		r.Stylesheets = append(r.Stylesheets, res)
	case KindScript:
		r.Scripts = append(r.Scripts, res)
	}
}

func (r *ScrapeResult) markSeen(key string) bool {
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if r.seen[key] {
		return false
	}
	r.seen[key] = true
	return true
}

// SetLocalPaths copies the downloaded-files map into the per-kind resource
// lists and the Downloads list. Called once after the crawl completes.
func (r *ScrapeResult) SetLocalPaths(downloads []DownloadRecord) {
	local := make(map[string]string, len(downloads))
	for _, d := range downloads {
		local[d.URL] = d.LocalPath
	}
	for _, list := range [][]ResourceRef{r.Links, r.Images, r.Stylesheets, r.Scripts} {
		for i := range list {
			if p, ok := local[list[i].URL]; ok {
				list[i].LocalPath = p
			}
		}
	}
	r.Downloads = downloads
}

// Summary returns a human-readable overview of the result
func (r *ScrapeResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scrape summary for %s\n", r.BaseURL)
	fmt.Fprintf(&b, "  Pages visited:  %d\n", len(r.Pages))
	fmt.Fprintf(&b, "  Links:          %d\n", len(r.Links))
	fmt.Fprintf(&b, "  Images:         %d\n", len(r.Images))
	fmt.Fprintf(&b, "  Stylesheets:    %d\n", len(r.Stylesheets))
	fmt.Fprintf(&b, "  Scripts:        %d\n", len(r.Scripts))
	fmt.Fprintf(&b, "  Emails:         %d\n", len(r.Emails))
	fmt.Fprintf(&b, "  Phone numbers:  %d\n", len(r.Phones))
	fmt.Fprintf(&b, "  Social links:   %d\n", len(r.Social))
	if len(r.Downloads) > 0 {
		fmt.Fprintf(&b, "  Files mirrored: %d\n", len(r.Downloads))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "  Errors:         %d\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "    %s: %s\n", e.URL, e.Message)
		}
	}
	return b.String()
}

// Serialize converts the result to the requested output format.
// Supported formats: "json", "yaml", "txt" (the summary text).
func (r *ScrapeResult) Serialize(format string) ([]byte, error) {
	switch format {
	case "", "json":
		return json.MarshalIndent(r, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(r)
	case "txt", "text":
		return []byte(r.Summary()), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// FormatExtension returns the file extension for an output format
func FormatExtension(format string) string {
	switch format {
	case "yaml", "yml":
		return ".yaml"
	case "txt", "text":
		return ".txt"
	default:
		return ".json"
	}
}
