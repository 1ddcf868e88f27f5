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
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/kennygrant/sanitize"
)

// mirrorIndexName is the browsable index written after the crawl completes
const mirrorIndexName = "mirror_index.html"

var mirrorIndexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Mirror index</title></head>
<body>
<h1>Mirror index</h1>
<p>{{len .}} downloaded files</p>
<ul>
{{- range .}}
<li><a href="{{.LocalPath}}">{{.LocalPath}}</a> &mdash; {{.URL}}</li>
{{- end}}
</ul>
</body>
</html>
`))

// MirrorWriter persists fetched pages and resources under a local directory,
// preserving a path hierarchy derived from each URL, and rewrites embedded
// references inside saved pages to point at the local copies.
//
// Local paths in the downloaded-files map are relative to Dir, which keeps
// the mirror relocatable and the index links working from any mount point.
type MirrorWriter struct {
	// Dir is the mirror root directory
	Dir string

	fetcher     *Fetcher
	state       crawlStateRecorder
	parallelism int
}

// crawlStateRecorder is the slice of CrawlState the mirror writer needs
type crawlStateRecorder interface {
	RecordDownload(url, localPath string) bool
	Download(url string) (string, bool)
	Downloads() [][2]string
}

// NewMirrorWriter creates a writer rooted at dir. Resource downloads fan out
// over at most parallelism workers, each applying the fetcher's delay.
func NewMirrorWriter(dir string, fetcher *Fetcher, state crawlStateRecorder, parallelism int) *MirrorWriter {
	if parallelism < 1 {
		parallelism = 1
	}
	return &MirrorWriter{Dir: dir, fetcher: fetcher, state: state, parallelism: parallelism}
}

// Init creates the mirror root and verifies it is writable. Failures are
// FileErrors: a configuration mistake, surfaced immediately.
func (m *MirrorWriter) Init() error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return &FileError{Path: m.Dir, Op: "create mirror directory", Err: err}
	}
	probe, err := os.CreateTemp(m.Dir, ".probe-*")
	if err != nil {
		return &FileError{Path: m.Dir, Op: "write to mirror directory", Err: err}
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// PagePath maps a page URL to a local path relative to the mirror root.
// Root and collection paths get an index.html-style name; pages without an
// extension get .html appended so browsers open them correctly.
func (m *MirrorWriter) PagePath(u *url.URL) string {
	p := m.derivePath(u)
	if path.Ext(p) == "" {
		p += ".html"
	}
	return p
}

// ResourcePath maps a resource URL to a local path relative to the mirror root
func (m *MirrorWriter) ResourcePath(u *url.URL) string {
	return m.derivePath(u)
}

// derivePath builds a sanitized relative path from the URL's path component.
// Segments are cleaned individually so no crafted URL can escape the mirror
// root; a query string is folded into the file name to keep variants apart.
func (m *MirrorWriter) derivePath(u *url.URL) string {
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	var clean []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		clean = append(clean, sanitize.Name(seg))
	}
	if len(clean) == 0 {
		clean = []string{"index.html"}
	}
	rel := path.Join(clean...)
	if u.RawQuery != "" {
		ext := path.Ext(rel)
		rel = strings.TrimSuffix(rel, ext) + fmt.Sprintf("_%08x", xxhash.Sum64String(u.RawQuery)&0xffffffff) + ext
	}
	return rel
}

// PersistPage saves one page and its resources. Resources that have not been
// downloaded yet are fetched concurrently and recorded in the downloaded-files
// map; the saved page is then rewritten so every successfully downloaded
// reference points at its local copy. Failed downloads keep the original
// absolute URL and are reported through onError.
// Returns the page's local path relative to the mirror root.
func (m *MirrorWriter) PersistPage(ctx context.Context, pageURL *url.URL, body []byte, findings *PageFindings, onError func(url string, err error)) (string, error) {
	pagePath := m.PagePath(pageURL)

	m.downloadResources(ctx, pageURL, findings, onError)

	rewritten := m.rewriteDocument(pageURL, pagePath, body)

	if err := m.writeFile(pagePath, rewritten); err != nil {
		return "", err
	}
	m.state.RecordDownload(pageURL.String(), pagePath)
	return pagePath, nil
}

// downloadResources fetches every not-yet-downloaded image, stylesheet and
// script referenced by the page, over a bounded worker pool. Stylesheets get
// their url() references (fonts, background images) pulled in as well, in the
// same worker to keep the pool free of nested submissions.
func (m *MirrorWriter) downloadResources(ctx context.Context, pageURL *url.URL, findings *PageFindings, onError func(url string, err error)) {
	if findings == nil {
		return
	}
	var mu sync.Mutex
	report := func(u string, err error) {
		if onError == nil {
			return
		}
		mu.Lock()
		onError(u, err)
		mu.Unlock()
	}

	pool := NewWorkerPool(ctx, m.parallelism, len(findings.Resources)+1)
	for _, ref := range findings.Resources {
		if ref.Kind == KindLink {
			continue
		}
		res := ref
		pool.Submit(func() {
			local, err := m.downloadOne(ctx, res.URL)
			if err != nil {
				report(res.URL, err)
				return
			}
			if res.Kind != KindStylesheet || local == "" {
				return
			}
			// Pull in assets the stylesheet references
			cssBody, readErr := os.ReadFile(filepath.Join(m.Dir, filepath.FromSlash(local)))
			if readErr != nil {
				return
			}
			for _, cssRef := range ExtractCSSURLs(string(cssBody)) {
				resolved, ok := resolveRef(res.URL, cssRef)
				if !ok {
					continue
				}
				if _, err := m.downloadOne(ctx, resolved); err != nil {
					report(resolved, err)
				}
			}
		})
	}
	pool.Close()
}

// downloadOne fetches a resource and stores it at its derived local path,
// recording the mapping. Returns the local path (existing one if the URL was
// already downloaded by an earlier page).
func (m *MirrorWriter) downloadOne(ctx context.Context, resourceURL string) (string, error) {
	if local, ok := m.state.Download(resourceURL); ok {
		return local, nil
	}
	u, err := url.Parse(resourceURL)
	if err != nil {
		return "", err
	}
	res, err := m.fetcher.Fetch(ctx, resourceURL)
	if err != nil {
		return "", err
	}
	local := m.ResourcePath(u)
	if !m.state.RecordDownload(resourceURL, local) {
		// Another worker won the race; its copy is authoritative
		local, _ = m.state.Download(resourceURL)
		return local, nil
	}
	if err := m.writeFile(local, res.Body); err != nil {
		return "", err
	}
	return local, nil
}

// rewriteDocument updates src/href attributes of resource elements in the
// saved page so each successfully downloaded reference resolves to its local
// file, relative to the page's own location. References whose download failed
// are left as absolute URLs.
func (m *MirrorWriter) rewriteDocument(pageURL *url.URL, pagePath string, body []byte) []byte {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	base := pageURL.String()
	pageDir := path.Dir(pagePath)

	rewrite := func(sel *goquery.Selection, attr string) {
		ref, ok := sel.Attr(attr)
		if !ok {
			return
		}
		resolved, ok := resolveRef(base, ref)
		if !ok {
			return
		}
		local, downloaded := m.state.Download(resolved)
		if !downloaded {
			// Keep the absolute URL so the reference still works online
			sel.SetAttr(attr, resolved)
			return
		}
		rel, err := filepath.Rel(pageDir, local)
		if err != nil {
			return
		}
		sel.SetAttr(attr, filepath.ToSlash(rel))
	}

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) { rewrite(sel, "src") })
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) { rewrite(sel, "src") })
	doc.Find("link[rel='stylesheet'][href]").Each(func(_ int, sel *goquery.Selection) { rewrite(sel, "href") })

	html, err := doc.Html()
	if err != nil {
		return body
	}
	return []byte(html)
}

// writeFile writes content at a root-relative path, creating parent dirs
func (m *MirrorWriter) writeFile(relPath string, content []byte) error {
	full := filepath.Join(m.Dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &FileError{Path: filepath.Dir(full), Op: "create directory", Err: err}
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return &FileError{Path: full, Op: "write file", Err: err}
	}
	return nil
}

// WriteIndex writes mirror_index.html, listing every downloaded-files entry
// as a clickable (local path, original URL) pair for manual navigation.
func (m *MirrorWriter) WriteIndex() error {
	entries := m.DownloadRecords()
	var buf bytes.Buffer
	if err := mirrorIndexTemplate.Execute(&buf, entries); err != nil {
		return err
	}
	return m.writeFile(mirrorIndexName, buf.Bytes())
}

// DownloadRecords returns the downloaded-files map in download order
func (m *MirrorWriter) DownloadRecords() []DownloadRecord {
	pairs := m.state.Downloads()
	out := make([]DownloadRecord, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, DownloadRecord{URL: p[0], LocalPath: p[1]})
	}
	return out
}
