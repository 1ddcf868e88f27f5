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

package store

// ScrapeRun represents one completed scrape operation
type ScrapeRun struct {
	ID          uint   `gorm:"primaryKey"`
	BaseURL     string `gorm:"not null;index"`
	StartedAt   int64  `gorm:"not null"`
	DurationMs  int64  `gorm:"not null"`
	Pages       int    `gorm:"not null"`
	Links       int    `gorm:"not null"`
	Images      int    `gorm:"not null"`
	Stylesheets int    `gorm:"not null"`
	Scripts     int    `gorm:"not null"`
	Emails      int    `gorm:"not null"`
	Phones      int    `gorm:"not null"`
	Social      int    `gorm:"not null"`
	Errors      int    `gorm:"not null"`
	Mirrored    int    `gorm:"not null;default:0"`
	// ResultJSON is the full serialized ScrapeResult
	ResultJSON string `gorm:"type:text"`
	CreatedAt  int64  `gorm:"autoCreateTime"`
}
