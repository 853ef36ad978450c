// Package storetest holds the behaviour checks every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leofalp/gradedreader/providers/store"
)

// Run exercises newStore against the store.Store contract. newStore must
// return an empty store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("story round trip", func(t *testing.T) {
		s := newStore(t)
		defer closeStore(t, s)
		ctx := context.Background()

		saved, err := s.SaveStory(ctx, "Tom and the Ball", "Tom has a red ball.")
		if err != nil {
			t.Fatalf("SaveStory: %v", err)
		}
		if saved.ID == 0 {
			t.Fatal("expected a non-zero id")
		}

		got, err := s.Story(ctx, saved.ID)
		if err != nil {
			t.Fatalf("Story: %v", err)
		}
		if got.Title != "Tom and the Ball" || got.Content != "Tom has a red ball." {
			t.Errorf("Story() = %+v", got)
		}
	})

	t.Run("unknown story", func(t *testing.T) {
		s := newStore(t)
		defer closeStore(t, s)

		if _, err := s.Story(context.Background(), 404); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("comic lifecycle", func(t *testing.T) {
		s := newStore(t)
		defer closeStore(t, s)
		ctx := context.Background()

		story, err := s.SaveStory(ctx, "t", "c")
		if err != nil {
			t.Fatalf("SaveStory: %v", err)
		}

		comic, err := s.CreateComic(ctx, story.ID, `[{"panel_number":1}]`)
		if err != nil {
			t.Fatalf("CreateComic: %v", err)
		}
		if comic.StoryID != story.ID {
			t.Errorf("StoryID = %d, want %d", comic.StoryID, story.ID)
		}

		if err := s.UpdateComicPanels(ctx, comic.ID, `[{"panel_number":2}]`); err != nil {
			t.Fatalf("UpdateComicPanels: %v", err)
		}

		got, err := s.Comic(ctx, comic.ID)
		if err != nil {
			t.Fatalf("Comic: %v", err)
		}
		if got.Panels != `[{"panel_number":2}]` {
			t.Errorf("Panels = %s", got.Panels)
		}

		if err := s.DeleteComic(ctx, comic.ID); err != nil {
			t.Fatalf("DeleteComic: %v", err)
		}
		if _, err := s.Comic(ctx, comic.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.DeleteComic(ctx, comic.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("comic requires story", func(t *testing.T) {
		s := newStore(t)
		defer closeStore(t, s)

		if _, err := s.CreateComic(context.Background(), 99, "[]"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update unknown comic", func(t *testing.T) {
		s := newStore(t)
		defer closeStore(t, s)

		if err := s.UpdateComicPanels(context.Background(), 99, "[]"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent writes", func(t *testing.T) {
		s := newStore(t)
		defer closeStore(t, s)
		ctx := context.Background()

		story, err := s.SaveStory(ctx, "t", "c")
		if err != nil {
			t.Fatalf("SaveStory: %v", err)
		}

		const workers = 8
		ids := make([]int64, workers)
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				comic, err := s.CreateComic(ctx, story.ID, "[]")
				if err != nil {
					errs <- err
					return
				}
				ids[i] = comic.ID
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Fatalf("CreateComic: %v", err)
		}

		seen := map[int64]bool{}
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("duplicate comic id %d", id)
			}
			seen[id] = true
		}
	})
}

func closeStore(t *testing.T, s store.Store) {
	t.Helper()
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
