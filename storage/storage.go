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

// Package storage holds the mutable state of one crawl: the visited set,
// frontier bookkeeping, the downloaded-files map and seen content hashes.
// A CrawlState is exclusively owned by one traversal engine instance for
// the duration of one crawl; it is never shared across concurrent crawls.
package storage

import (
	"hash/fnv"
	"sync"
)

// CrawlState tracks visit, enqueue and download state for a single crawl.
// All methods are safe for concurrent use; the mirror writer's download
// workers share the state with the sequential visit loop.
type CrawlState struct {
	mu sync.RWMutex
	// visited tracks URL hashes that have been visited
	visited map[uint64]bool
	// enqueued tracks URLs that are already on the frontier
	enqueued map[string]bool
	// downloads maps resource URL to local path, at most one entry per URL
	downloads map[string]string
	// downloadOrder preserves first-download order for deterministic output
	downloadOrder []string
	// contentSeen tracks content hashes for duplicate detection
	contentSeen map[string]bool
}

// NewCrawlState creates an empty state for one crawl
func NewCrawlState() *CrawlState {
	return &CrawlState{
		visited:     make(map[uint64]bool),
		enqueued:    make(map[string]bool),
		downloads:   make(map[string]string),
		contentSeen: make(map[string]bool),
	}
}

// URLHash returns the visited-set key for a normalized URL
func URLHash(normalizedURL string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(normalizedURL))
	return h.Sum64()
}

// VisitIfNotVisited atomically checks whether a URL hash has been visited
// and marks it visited if not. Returns true if it was already visited.
// The atomic check-and-set is what keeps the visit-once invariant under a
// concurrent download pool.
func (s *CrawlState) VisitIfNotVisited(hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visited[hash] {
		return true
	}
	s.visited[hash] = true
	return false
}

// IsVisited reports whether a URL hash has been visited
func (s *CrawlState) IsVisited(hash uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visited[hash]
}

// VisitedCount returns the number of visited URLs
func (s *CrawlState) VisitedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visited)
}

// MarkEnqueued records a URL as queued on the frontier. Returns false if
// the URL was already queued, preventing duplicate frontier entries.
func (s *CrawlState) MarkEnqueued(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enqueued[url] {
		return false
	}
	s.enqueued[url] = true
	return true
}

// RecordDownload stores the local path for a downloaded resource URL.
// Returns false if the URL already has a local path; the first download
// wins so the map keeps at most one path per distinct URL.
func (s *CrawlState) RecordDownload(url, localPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.downloads[url]; exists {
		return false
	}
	s.downloads[url] = localPath
	s.downloadOrder = append(s.downloadOrder, url)
	return true
}

// Download returns the recorded local path for a resource URL
func (s *CrawlState) Download(url string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.downloads[url]
	return p, ok
}

// Downloads returns all (url, local path) pairs in first-download order
func (s *CrawlState) Downloads() [][2]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][2]string, 0, len(s.downloadOrder))
	for _, u := range s.downloadOrder {
		out = append(out, [2]string{u, s.downloads[u]})
	}
	return out
}

// SeenContent atomically checks whether a content hash was seen before and
// marks it seen. Returns true if the hash was already known.
func (s *CrawlState) SeenContent(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentSeen[hash] {
		return true
	}
	s.contentSeen[hash] = true
	return false
}
