package sqlite

import (
	"context"
	"fmt"
)

// createStoriesSQL is the DDL statement that creates the stories table.
const createStoriesSQL = `CREATE TABLE IF NOT EXISTS stories (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// createComicsSQL is the DDL statement that creates the comics table. Panels
// are stored as the encoded JSON list.
const createComicsSQL = `CREATE TABLE IF NOT EXISTS comics (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    story_id       INTEGER NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
    panels_content TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const createComicsStoryIndexSQL = `CREATE INDEX IF NOT EXISTS idx_comics_story ON comics (story_id)`

// EnsureSchema creates the tables and indexes if they do not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createStoriesSQL, createComicsSQL, createComicsStoryIndexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}
