// Copyright 2025 Emiliano Spinella (eminwux)
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
//
// SPDX-License-Identifier: Apache-2.0

// Package recent remembers the folders jlab opened, most recent first.
package recent

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eminwux/jlab/internal/errdefs"

	_ "modernc.org/sqlite"
)

type Entry struct {
	Folder    string    `json:"folder"    yaml:"folder"`
	Title     string    `json:"title"     yaml:"title"`
	OpenedAt  time.Time `json:"openedAt"  yaml:"openedAt"`
	OpenCount int       `json:"openCount" yaml:"openCount"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("%w: create db dir: %w", errdefs.ErrRecentStore, err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", errdefs.ErrRecentStore, err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if errS := s.ensureSchema(ctx); errS != nil {
		_ = db.Close()
		return nil, errS
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS recent_folders (
  folder TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  opened_at INTEGER NOT NULL,
  open_count INTEGER NOT NULL DEFAULT 1
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create recent_folders table: %w", errdefs.ErrRecentStore, err)
	}
	return nil
}

// Touch records that folder was just opened. A folder appears once; its
// timestamp moves to now and its count grows.
func (s *Store) Touch(ctx context.Context, folder, title string) error {
	const stmt = `
INSERT INTO recent_folders (folder, title, opened_at, open_count)
VALUES (?, ?, ?, 1)
ON CONFLICT(folder) DO UPDATE SET
  title=excluded.title,
  opened_at=excluded.opened_at,
  open_count=recent_folders.open_count + 1;
`
	if _, err := s.db.ExecContext(ctx, stmt, folder, title, s.now().UnixNano()); err != nil {
		return fmt.Errorf("%w: touch %s: %w", errdefs.ErrRecentStore, folder, err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT folder, title, opened_at, open_count FROM recent_folders ORDER BY opened_at DESC, folder ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", errdefs.ErrRecentStore, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			openedAt int64
		)
		if errScan := rows.Scan(&e.Folder, &e.Title, &openedAt, &e.OpenCount); errScan != nil {
			return nil, fmt.Errorf("%w: scan: %w", errdefs.ErrRecentStore, errScan)
		}
		e.OpenedAt = time.Unix(0, openedAt)
		out = append(out, e)
	}
	if errRows := rows.Err(); errRows != nil {
		return nil, fmt.Errorf("%w: list: %w", errdefs.ErrRecentStore, errRows)
	}
	return out, nil
}

// Remove forgets folder and reports whether it was known.
func (s *Store) Remove(ctx context.Context, folder string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recent_folders WHERE folder = ?`, folder)
	if err != nil {
		return false, fmt.Errorf("%w: remove %s: %w", errdefs.ErrRecentStore, folder, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: remove %s: %w", errdefs.ErrRecentStore, folder, err)
	}
	return n > 0, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
