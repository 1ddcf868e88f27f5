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
	"io"
	"net/http"
	"sync"
)

// MockResponse represents a mock HTTP response
type MockResponse struct {
	// StatusCode is the HTTP status code to return (default: 200)
	StatusCode int
	// Body is the response body content
	Body string
	// Headers are the HTTP headers to include in the response
	Headers http.Header
	// Error simulates a network error
	Error error
}

// MockTransport implements http.RoundTripper for testing. It serves
// registered responses for exact URLs without touching the network, and
// records every requested URL so tests can assert on fetch behavior.
type MockTransport struct {
	mu        sync.RWMutex
	responses map[string]*MockResponse
	requested []string
}

// NewMockTransport creates a new MockTransport instance
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string]*MockResponse),
	}
}

// RegisterResponse registers a mock response for an exact URL match
func (m *MockTransport) RegisterResponse(url string, response *MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if response.StatusCode == 0 {
		response.StatusCode = 200
	}
	if response.Headers == nil {
		response.Headers = make(http.Header)
	}
	m.responses[url] = response
}

// RegisterHTML registers an HTML response with status 200
func (m *MockTransport) RegisterHTML(url, html string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{StatusCode: 200, Body: html, Headers: headers})
}

// RegisterResource registers a non-HTML response with the given content type
func (m *MockTransport) RegisterResource(url, contentType, body string) {
	headers := make(http.Header)
	headers.Set("Content-Type", contentType)
	m.RegisterResponse(url, &MockResponse{StatusCode: 200, Body: body, Headers: headers})
}

// RegisterError registers a simulated network failure for a URL
func (m *MockTransport) RegisterError(url string, err error) {
	m.RegisterResponse(url, &MockResponse{Error: err})
}

// Requested returns every URL that went through the transport, in order
func (m *MockTransport) Requested() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.requested))
	copy(out, m.requested)
	return out
}

// RequestCount returns how many times a URL was requested
func (m *MockTransport) RequestCount(url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.requested {
		if u == url {
			n++
		}
	}
	return n
}

// RoundTrip implements http.RoundTripper
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	urlStr := req.URL.String()

	m.mu.Lock()
	m.requested = append(m.requested, urlStr)
	mock := m.responses[urlStr]
	m.mu.Unlock()

	if mock == nil {
		// Unregistered URLs behave like missing pages
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     http.StatusText(http.StatusNotFound),
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Request:    req,
		}, nil
	}
	if mock.Error != nil {
		return nil, mock.Error
	}
	return &http.Response{
		StatusCode: mock.StatusCode,
		Status:     http.StatusText(mock.StatusCode),
		Header:     mock.Headers.Clone(),
		Body:       io.NopCloser(bytes.NewReader([]byte(mock.Body))),
		Request:    req,
	}, nil
}
