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

// Package store persists completed scrape runs to a local SQLite database,
// backing the CLI's history command.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store represents the run-history database
type Store struct {
	db *gorm.DB
}

// NewStore opens (creating if necessary) the default database under
// ~/.webmirror/webmirror.db.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".webmirror")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	return NewStoreWithPath(filepath.Join(dbDir, "webmirror.db"))
}

// NewStoreWithPath opens a database at a custom path (tests use a temp dir)
func NewStoreWithPath(dbPath string) (*Store, error) {
	// WAL keeps concurrent history reads from blocking run inserts
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(&ScrapeRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &Store{db: database}, nil
}

// SaveRun inserts one completed run and returns its ID
func (s *Store) SaveRun(run *ScrapeRun) (uint, error) {
	if err := s.db.Create(run).Error; err != nil {
		return 0, fmt.Errorf("failed to save run: %v", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(limit int) ([]ScrapeRun, error) {
	var runs []ScrapeRun
	q := s.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %v", err)
	}
	return runs, nil
}

// GetRun returns one run by ID
func (s *Store) GetRun(id uint) (*ScrapeRun, error) {
	var run ScrapeRun
	if err := s.db.First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load run %d: %v", id, err)
	}
	return &run, nil
}

// DB returns the underlying GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}
