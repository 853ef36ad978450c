package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a story or comic id does not exist.
var ErrNotFound = errors.New("store: not found")

// Story is a persisted reading text.
type Story struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
}

// Comic is a persisted panel sequence. Panels holds the encoded JSON list
// exactly as written by the comic service.
type Comic struct {
	ID        int64
	StoryID   int64
	Panels    string
	CreatedAt time.Time
}

// Store persists stories and the comics generated from them. Implementations
// must be safe for concurrent use.
type Store interface {
	// SaveStory inserts a story and returns it with its assigned ID.
	SaveStory(ctx context.Context, title, content string) (Story, error)

	// Story returns the story with the given ID or ErrNotFound.
	Story(ctx context.Context, id int64) (Story, error)

	// CreateComic inserts a comic for an existing story. It returns
	// ErrNotFound when the story does not exist.
	CreateComic(ctx context.Context, storyID int64, panels string) (Comic, error)

	// Comic returns the comic with the given ID or ErrNotFound.
	Comic(ctx context.Context, id int64) (Comic, error)

	// UpdateComicPanels replaces the encoded panels of a comic.
	UpdateComicPanels(ctx context.Context, id int64, panels string) error

	// DeleteComic removes a comic. It returns ErrNotFound for unknown IDs.
	DeleteComic(ctx context.Context, id int64) error

	// Close releases underlying resources.
	Close() error
}
