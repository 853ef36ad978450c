package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leofalp/gradedreader/providers/store"
)

// Store is a simple, concurrency-safe in-memory store.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	stories map[int64]store.Story
	comics  map[int64]store.Comic
	now     func() time.Time
}

// New returns a new, empty [Store] ready for immediate use.
func New() *Store {
	return &Store{
		stories: map[int64]store.Story{},
		comics:  map[int64]store.Comic{},
		now:     time.Now,
	}
}

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// SaveStory stores a story under the next free ID.
func (s *Store) SaveStory(ctx context.Context, title, content string) (store.Story, error) {
	if err := ctx.Err(); err != nil {
		return store.Story{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	story := store.Story{ID: s.nextID, Title: title, Content: content, CreatedAt: s.now()}
	s.stories[story.ID] = story
	return story, nil
}

// Story returns the story with the given ID or store.ErrNotFound.
func (s *Store) Story(ctx context.Context, id int64) (store.Story, error) {
	if err := ctx.Err(); err != nil {
		return store.Story{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	story, ok := s.stories[id]
	if !ok {
		return store.Story{}, fmt.Errorf("story %d: %w", id, store.ErrNotFound)
	}
	return story, nil
}

// CreateComic stores a comic for an existing story; a missing story yields store.ErrNotFound.
func (s *Store) CreateComic(ctx context.Context, storyID int64, panels string) (store.Comic, error) {
	if err := ctx.Err(); err != nil {
		return store.Comic{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[storyID]; !ok {
		return store.Comic{}, fmt.Errorf("story %d: %w", storyID, store.ErrNotFound)
	}

	s.nextID++
	comic := store.Comic{ID: s.nextID, StoryID: storyID, Panels: panels, CreatedAt: s.now()}
	s.comics[comic.ID] = comic
	return comic, nil
}

// Comic returns the comic with the given ID or store.ErrNotFound.
func (s *Store) Comic(ctx context.Context, id int64) (store.Comic, error) {
	if err := ctx.Err(); err != nil {
		return store.Comic{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	comic, ok := s.comics[id]
	if !ok {
		return store.Comic{}, fmt.Errorf("comic %d: %w", id, store.ErrNotFound)
	}
	return comic, nil
}

// UpdateComicPanels replaces the encoded panel list of a comic.
func (s *Store) UpdateComicPanels(ctx context.Context, id int64, panels string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comic, ok := s.comics[id]
	if !ok {
		return fmt.Errorf("comic %d: %w", id, store.ErrNotFound)
	}
	comic.Panels = panels
	s.comics[id] = comic
	return nil
}

// DeleteComic removes a comic; a missing comic yields store.ErrNotFound.
func (s *Store) DeleteComic(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comics[id]; !ok {
		return fmt.Errorf("comic %d: %w", id, store.ErrNotFound)
	}
	delete(s.comics, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
