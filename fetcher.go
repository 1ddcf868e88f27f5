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
	"io"
	"math/rand"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// StatusError is returned by the Fetcher for non-2xx responses. It is a
// recoverable per-page failure: the crawl records it and continues.
type StatusError struct {
	// URL is the request URL
	URL string
	// StatusCode is the HTTP status code that was returned
	StatusCode int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// FetchResult holds a fetched document or resource body
type FetchResult struct {
	// URL is the URL that was fetched
	URL string
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the (possibly charset-fixed) response body
	Body []byte
	// Headers are the response headers
	Headers http.Header
}

// ContentType returns the media type of the response without parameters,
// falling back to content sniffing when the header is absent.
func (r *FetchResult) ContentType() string {
	ct := r.Headers.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(r.Body)
	}
	mediatype, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(strings.ToLower(mediatype))
}

// IsHTML reports whether the response body is an HTML document
func (r *FetchResult) IsHTML() bool {
	switch r.ContentType() {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

// Fetcher retrieves documents and resources over HTTP. It applies the
// configured politeness delay before every request and caps body sizes.
// A Fetcher is safe for use by multiple goroutines; the delay is applied
// per caller, not globally, so each worker keeps its own politeness budget.
type Fetcher struct {
	// Client is the underlying HTTP client (replaceable for testing)
	Client *http.Client
	// UserAgent is the User-Agent string sent with every request
	UserAgent string
	// Delay is the pause applied before each outbound request
	Delay time.Duration
	// RandomDelay is an extra randomized pause added to Delay
	RandomDelay time.Duration
	// MaxRetries is the number of extra attempts after a transport error
	MaxRetries int
	// MaxBodySize limits the retrieved response body in bytes. 0 = unlimited.
	MaxBodySize int
	// DetectCharset enables charset detection for bodies without a
	// declared encoding, using https://github.com/saintfish/chardet
	DetectCharset bool
}

// NewFetcher creates a Fetcher with the given client configuration
func NewFetcher(cfg *Config) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: cfg.Timeout,
		},
		UserAgent:     cfg.UserAgent,
		Delay:         cfg.Delay,
		RandomDelay:   cfg.RandomDelay,
		MaxRetries:    cfg.MaxRetries,
		MaxBodySize:   cfg.MaxBodySize,
		DetectCharset: cfg.DetectCharset,
	}
}

// WithTransport sets a custom http.RoundTripper, used by tests to route
// requests through a MockTransport instead of the network.
func (f *Fetcher) WithTransport(transport http.RoundTripper) {
	f.Client.Transport = transport
}

// Fetch retrieves one URL. Non-2xx responses return both the FetchResult
// (so callers can still inspect headers and body) and a *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResult, error) {
	f.sleep(ctx)

	var lastErr error
	for attempt := 0; attempt <= f.MaxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff between retries, on top of the politeness delay
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		res, err := f.do(ctx, urlStr)
		if err == nil {
			return f.finalize(res)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *Fetcher) do(ctx context.Context, urlStr string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var bodyReader io.Reader = resp.Body
	if f.MaxBodySize > 0 {
		bodyReader = io.LimitReader(resp.Body, int64(f.MaxBodySize))
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		URL:        urlStr,
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

// finalize applies the charset fix and converts non-2xx statuses into a
// recoverable StatusError while still returning the response.
func (f *Fetcher) finalize(res *FetchResult) (*FetchResult, error) {
	if err := f.fixCharset(res); err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res, &StatusError{URL: res.URL, StatusCode: res.StatusCode}
	}
	return res, nil
}

// sleep applies the politeness delay, honoring cancellation
func (f *Fetcher) sleep(ctx context.Context) {
	d := f.Delay
	if f.RandomDelay > 0 {
		d += time.Duration(rand.Int63n(int64(f.RandomDelay)))
	}
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// fixCharset re-encodes non-UTF8 text bodies to UTF-8, best effort. Bodies
// that cannot be decoded are left untouched so parsing can still degrade
// gracefully instead of failing.
func (f *Fetcher) fixCharset(res *FetchResult) error {
	contentType := strings.ToLower(res.Headers.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "text/") &&
		!strings.Contains(contentType, "html") && !strings.Contains(contentType, "xml") {
		return nil
	}
	if strings.Contains(contentType, "charset=utf-8") || len(res.Body) == 0 {
		return nil
	}

	if !strings.Contains(contentType, "charset") {
		if !f.DetectCharset {
			return nil
		}
		d := chardet.NewTextDetector()
		r, err := d.DetectBest(res.Body)
		if err != nil {
			return nil
		}
		contentType = "text/plain; charset=" + r.Charset
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	label, ok := params["charset"]
	if !ok || strings.EqualFold(label, "utf-8") {
		return nil
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(res.Body))
	if err != nil {
		return nil
	}
	fixed, err := io.ReadAll(reader)
	if err != nil {
		return nil
	}
	res.Body = fixed
	return nil
}
