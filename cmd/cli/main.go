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

// WebMirror CLI
//
// Command-line interface for the WebMirror scraping engine. Crawls websites,
// extracts resources and contact details, and optionally mirrors the site
// locally.
//
// Usage:
//
//	webmirror <command> [flags]
//
// Commands:
//
//	scrape    Crawl a website and save the results
//	parse     Extract findings from a local HTML file
//	history   List or show previously saved runs
//	version   Show version information
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Version is the CLI version, overridable at build time via -ldflags
var Version = "1.0.0"

func newLogger(quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "scrape":
		if err := runScrape(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "parse":
		if err := runParse(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "-v", "--version":
		fmt.Printf("WebMirror CLI %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`WebMirror CLI - Website scraper and mirroring tool

Usage:
  webmirror <command> [flags]

Commands:
  scrape    Crawl a website and save the results
  parse     Extract findings from a local HTML file
  history   List or show previously saved runs
  version   Show version information
  help      Show this help message

Examples:
  # Scrape a website two levels deep
  webmirror scrape https://example.com --depth 2

  # Scrape and mirror the site locally
  webmirror scrape https://example.com --mirror --mirror-dir ./example

  # Substitute a local file for the root page
  webmirror scrape https://example.com --index-override ./index.html

  # Parse a local HTML file
  webmirror parse ./page.html

  # Show the last ten runs
  webmirror history --limit 10

Use "webmirror <command> --help" for more information about a command.`)
}
