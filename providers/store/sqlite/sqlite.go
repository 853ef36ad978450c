package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leofalp/gradedreader/providers/store"
)

// Store is an SQLite-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create database directory: %w", err)
		}
	}

	// modernc.org/sqlite registers the "sqlite" driver name (not "sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}

	if err := s.configure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.DebugContext(ctx, "sqlite store ready", "path", path)
	return s, nil
}

func (s *Store) configure(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return nil
}

// SaveStory inserts a story and returns it with its assigned ID.
func (s *Store) SaveStory(ctx context.Context, title, content string) (store.Story, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stories (title, content, created_at) VALUES (?, ?, ?)`,
		title, content, now)
	if err != nil {
		return store.Story{}, fmt.Errorf("sqlite: insert story: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return store.Story{}, fmt.Errorf("sqlite: story id: %w", err)
	}

	return store.Story{ID: id, Title: title, Content: content, CreatedAt: now}, nil
}

// Story returns the story with the given ID or store.ErrNotFound.
func (s *Store) Story(ctx context.Context, id int64) (store.Story, error) {
	var story store.Story
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at FROM stories WHERE id = ?`, id,
	).Scan(&story.ID, &story.Title, &story.Content, &story.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Story{}, fmt.Errorf("story %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Story{}, fmt.Errorf("sqlite: select story: %w", err)
	}
	return story, nil
}

// CreateComic inserts a comic for an existing story; a missing story yields store.ErrNotFound.
func (s *Store) CreateComic(ctx context.Context, storyID int64, panels string) (store.Comic, error) {
	if _, err := s.Story(ctx, storyID); err != nil {
		return store.Comic{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comics (story_id, panels_content, created_at) VALUES (?, ?, ?)`,
		storyID, panels, now)
	if err != nil {
		return store.Comic{}, fmt.Errorf("sqlite: insert comic: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return store.Comic{}, fmt.Errorf("sqlite: comic id: %w", err)
	}

	return store.Comic{ID: id, StoryID: storyID, Panels: panels, CreatedAt: now}, nil
}

// Comic returns the comic with the given ID or store.ErrNotFound.
func (s *Store) Comic(ctx context.Context, id int64) (store.Comic, error) {
	var comic store.Comic
	err := s.db.QueryRowContext(ctx,
		`SELECT id, story_id, panels_content, created_at FROM comics WHERE id = ?`, id,
	).Scan(&comic.ID, &comic.StoryID, &comic.Panels, &comic.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Comic{}, fmt.Errorf("comic %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Comic{}, fmt.Errorf("sqlite: select comic: %w", err)
	}
	return comic, nil
}

// UpdateComicPanels replaces the encoded panel list of a comic.
func (s *Store) UpdateComicPanels(ctx context.Context, id int64, panels string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comics SET panels_content = ? WHERE id = ?`, panels, id)
	if err != nil {
		return fmt.Errorf("sqlite: update comic: %w", err)
	}
	return requireAffected(res, "comic", id)
}

// DeleteComic removes a comic; a missing comic yields store.ErrNotFound.
func (s *Store) DeleteComic(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete comic: %w", err)
	}
	return requireAffected(res, "comic", id)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
