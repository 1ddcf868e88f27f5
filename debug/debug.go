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

// Package debug provides the event hook the engine reports its internal
// activity through (fetches, visits, downloads, errors).
package debug

import (
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

// Event represents one action inside the engine
type Event struct {
	// Type is the event type ("fetch", "visit", "download", "error", ...)
	Type string
	// RequestID identifies the request the event belongs to
	RequestID uint32
	// Values contains event-specific key/value details
	Values map[string]string
}

// Debugger is an interface for different debugging backends
type Debugger interface {
	// Init initializes the backend
	Init() error
	// Event receives a new event
	Event(e *Event)
}

// LogDebugger is the simplest debugger: it prints events to any io.Writer
// (stderr by default).
type LogDebugger struct {
	// Output is the log destination, os.Stderr if nil
	Output io.Writer
	// Prefix appears at the beginning of each log line
	Prefix string
	// Flag is the log flag set, log.LstdFlags if zero
	Flag int

	logger  *log.Logger
	counter int32
	start   time.Time
}

// Init implements Debugger
func (l *LogDebugger) Init() error {
	if l.Output == nil {
		l.Output = os.Stderr
	}
	l.logger = log.New(l.Output, l.Prefix, l.Flag)
	l.counter = 0
	l.start = time.Now()
	return nil
}

// Event implements Debugger
func (l *LogDebugger) Event(e *Event) {
	i := atomic.AddInt32(&l.counter, 1)
	l.logger.Printf("[%06d] %s (req %d) %s (%s elapsed)", i, e.Type, e.RequestID, formatValues(e.Values), time.Since(l.start))
}

func formatValues(values map[string]string) string {
	s := ""
	for k, v := range values {
		if s != "" {
			s += " "
		}
		s += k + "=" + v
	}
	return s
}
