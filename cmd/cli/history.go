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
	"time"

	"github.com/agentberlin/webmirror/store"
)

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)

	var (
		limit int
		runID uint
	)
	fs.IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 = all)")
	fs.UintVar(&runID, "id", 0, "Show the full stored result for one run")

	fs.Usage = func() {
		fmt.Println(`Usage: webmirror history [flags]

List previously saved scrape runs, or show one run's stored result.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}

	if runID != 0 {
		run, err := st.GetRun(runID)
		if err != nil {
			return err
		}
		fmt.Println(run.ResultJSON)
		return nil
	}

	runs, err := st.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No saved runs.")
		return nil
	}

	fmt.Printf("%-5s %-40s %-20s %8s %8s %8s\n", "ID", "URL", "Started", "Pages", "Errors", "Took")
	for _, run := range runs {
		started := time.Unix(run.StartedAt, 0).Format("2006-01-02 15:04:05")
		took := time.Duration(run.DurationMs) * time.Millisecond
		url := run.BaseURL
		if len(url) > 40 {
			url = url[:37] + "..."
		}
		fmt.Printf("%-5d %-40s %-20s %8d %8d %8s\n", run.ID, url, started, run.Pages, run.Errors, took)
	}
	return nil
}
