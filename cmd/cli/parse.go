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

package main

import (
	"flag"
	"fmt"

	"github.com/agentberlin/webmirror"
)

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)

	var (
		output    string
		format    string
		processJS bool
		quiet     bool
	)
	fs.StringVar(&output, "output", "", "Base name for the results file (default: print summary only)")
	fs.StringVar(&output, "o", "", "Base name for the results file (shorthand)")
	fs.StringVar(&format, "format", "json", "Output format: json, yaml, txt")
	fs.StringVar(&format, "f", "json", "Output format (shorthand)")
	fs.BoolVar(&processJS, "process-js", false, "Scan script text for URL-shaped strings")
	fs.BoolVar(&quiet, "quiet", false, "Suppress the summary output")
	fs.BoolVar(&quiet, "q", false, "Suppress the summary output (shorthand)")

	fs.Usage = func() {
		fmt.Println(`Usage: webmirror parse <file> [flags]

Extract resources and contact details from a local HTML file. No network
requests are made.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("file argument is required")
	}
	path := fs.Arg(0)

	scraper := webmirror.NewScraper(&webmirror.Config{
		OutputFormat: format,
		ProcessJS:    processJS,
	})

	result, err := scraper.ParseHTMLFile(path)
	if err != nil {
		return err
	}

	if output != "" {
		written, err := scraper.SaveResults(result, output)
		if err != nil {
			return err
		}
		fmt.Printf("Results saved to %s\n", written)
	}
	if !quiet {
		scraper.PrintSummary(result)
	}
	return nil
}
