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
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and caches robots.txt per host. A host whose
// robots.txt cannot be retrieved due to a transport error is treated as
// allowing everything; HTTP status semantics (4xx allow, 5xx disallow)
// follow the robotstxt library.
type robotsCache struct {
	client    *http.Client
	userAgent string

	mu   sync.Mutex
	data map[string]*robotstxt.RobotsData
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		data:      make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the crawler may fetch this URL under the host's
// robots.txt rules.
func (rc *robotsCache) Allowed(ctx context.Context, u *url.URL) bool {
	rc.mu.Lock()
	robot, ok := rc.data[u.Host]
	rc.mu.Unlock()

	if !ok {
		robot = rc.fetch(ctx, u)
		rc.mu.Lock()
		rc.data[u.Host] = robot
		rc.mu.Unlock()
	}
	if robot == nil {
		return true
	}
	return robot.TestAgent(u.Path, rc.userAgent)
}

func (rc *robotsCache) fetch(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	robot, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return robot
}
