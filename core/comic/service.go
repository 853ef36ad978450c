package comic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leofalp/gradedreader/core/extract"
	"github.com/leofalp/gradedreader/core/panel"
	"github.com/leofalp/gradedreader/providers/ai"
	"github.com/leofalp/gradedreader/providers/store"
)

const (
	defaultUploadDir       = "static/uploads"
	defaultUploadURLPrefix = "/static/uploads"
	defaultGenerateLimit   = 4
)

// Generator sends a single prompt to a language model.
// *client.Client satisfies it.
type Generator interface {
	SendMessage(ctx context.Context, prompt string) (*ai.ChatResponse, error)
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// UploadDir is the directory panel images are written to.
	UploadDir string
	// UploadURLPrefix is prepended to image file names to build panel URLs.
	UploadURLPrefix string
	// LenientRepair enables the best-effort repair tier of JSON recovery.
	LenientRepair bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Comic is a stored comic with its decoded panels.
type Comic struct {
	ID        int64
	StoryID   int64
	Panels    panel.Sequence
	CreatedAt time.Time
}

// Result is the outcome of generating the comic for one story.
type Result struct {
	StoryID int64
	Comic   Comic
	Err     error
}

// Service coordinates story storage, script generation and panel images.
type Service struct {
	store  store.Store
	llm    Generator
	opts   Options
	logger *slog.Logger
}

// NewService builds a Service. llm may be nil when only storage operations
// are used; Generate then fails with ErrGeneration.
func NewService(st store.Store, llm Generator, opts Options) *Service {
	if opts.UploadDir == "" {
		opts.UploadDir = defaultUploadDir
	}
	if opts.UploadURLPrefix == "" {
		opts.UploadURLPrefix = defaultUploadURLPrefix
	}
	opts.UploadURLPrefix = strings.TrimRight(opts.UploadURLPrefix, "/")

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: st, llm: llm, opts: opts, logger: logger}
}

// SaveStory stores a story. An empty title is derived from the content.
func (s *Service) SaveStory(ctx context.Context, title, content string) (store.Story, error) {
	if strings.TrimSpace(content) == "" {
		return store.Story{}, ErrEmptyStory
	}
	if title = strings.TrimSpace(title); title == "" {
		title = TitleFromContent(content)
	}

	story, err := s.store.SaveStory(ctx, title, content)
	if err != nil {
		return store.Story{}, fmt.Errorf("save story: %w", err)
	}
	s.logger.Info("story saved", slog.Int64("story_id", story.ID), slog.String("title", story.Title))
	return story, nil
}

// Story returns a stored story.
func (s *Service) Story(ctx context.Context, id int64) (store.Story, error) {
	return s.store.Story(ctx, id)
}

// Generate asks the model for a comic script of the story, normalizes it and
// stores the resulting comic.
func (s *Service) Generate(ctx context.Context, storyID int64) (Comic, error) {
	story, err := s.store.Story(ctx, storyID)
	if err != nil {
		return Comic{}, err
	}
	if strings.TrimSpace(story.Content) == "" {
		return Comic{}, fmt.Errorf("story %d: %w", storyID, ErrEmptyStory)
	}
	if s.llm == nil {
		return Comic{}, fmt.Errorf("%w: no model configured", ErrGeneration)
	}

	prompt, err := ScriptPrompt(story.Content)
	if err != nil {
		return Comic{}, err
	}

	resp, err := s.llm.SendMessage(ctx, prompt)
	if err != nil {
		return Comic{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if resp.Refusal != "" {
		return Comic{}, fmt.Errorf("%w: %s", ErrRefused, resp.Refusal)
	}

	var opts []extract.Option
	if s.opts.LenientRepair {
		opts = append(opts, extract.WithLenientRepair())
	}

	content := strings.ReplaceAll(resp.Content, "**", "")
	seq, err := panel.FromResponse(content, story.Content, opts...)
	if err != nil {
		s.logger.Warn("script rejected",
			slog.Int64("story_id", storyID),
			slog.String("error", err.Error()))
		return Comic{}, err
	}

	encoded, err := seq.Encode()
	if err != nil {
		return Comic{}, err
	}

	stored, err := s.store.CreateComic(ctx, storyID, encoded)
	if err != nil {
		return Comic{}, fmt.Errorf("create comic: %w", err)
	}

	s.logger.Info("comic generated",
		slog.Int64("story_id", storyID),
		slog.Int64("comic_id", stored.ID),
		slog.Int("pages", len(seq.Pages())))

	return Comic{ID: stored.ID, StoryID: storyID, Panels: seq, CreatedAt: stored.CreatedAt}, nil
}

// GenerateAll generates comics for several stories with at most limit calls
// in flight. Results keep the order of storyIDs. A failing story does not
// stop the others; only context cancellation aborts the batch.
func (s *Service) GenerateAll(ctx context.Context, storyIDs []int64, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultGenerateLimit
	}

	results := make([]Result, len(storyIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, id := range storyIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{StoryID: id, Err: err}
				return err
			}
			c, err := s.Generate(gctx, id)
			results[i] = Result{StoryID: id, Comic: c, Err: err}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Comic returns a stored comic with decoded panels.
func (s *Service) Comic(ctx context.Context, id int64) (Comic, error) {
	stored, err := s.store.Comic(ctx, id)
	if err != nil {
		return Comic{}, err
	}
	seq, err := panel.Decode(stored.Panels)
	if err != nil {
		return Comic{}, fmt.Errorf("comic %d: %w", id, err)
	}
	return Comic{ID: stored.ID, StoryID: stored.StoryID, Panels: seq, CreatedAt: stored.CreatedAt}, nil
}

// AttachImage writes a panel image to the upload directory and links it to
// the first panel with the given number. It returns the image URL.
func (s *Service) AttachImage(ctx context.Context, comicID int64, panelNumber int, image io.Reader) (string, error) {
	c, err := s.Comic(ctx, comicID)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("comic_%d_p%d_%s.png", comicID, panelNumber, strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	url := s.opts.UploadURLPrefix + "/" + name
	if !c.Panels.SetImageURL(panelNumber, url) {
		return "", fmt.Errorf("comic %d panel %d: %w", comicID, panelNumber, ErrPanelNotFound)
	}

	path, err := s.writeUpload(name, image)
	if err != nil {
		return "", err
	}

	encoded, err := c.Panels.Encode()
	if err != nil {
		removeQuietly(path)
		return "", err
	}
	if err := s.store.UpdateComicPanels(ctx, comicID, encoded); err != nil {
		removeQuietly(path)
		return "", fmt.Errorf("update comic: %w", err)
	}

	s.logger.Info("panel image attached",
		slog.Int64("comic_id", comicID),
		slog.Int("panel", panelNumber),
		slog.String("url", url))
	return url, nil
}

// DeleteComic removes a stored comic. Uploaded images are left on disk.
func (s *Service) DeleteComic(ctx context.Context, id int64) error {
	if err := s.store.DeleteComic(ctx, id); err != nil {
		return err
	}
	s.logger.Info("comic deleted", slog.Int64("comic_id", id))
	return nil
}

func (s *Service) writeUpload(name string, image io.Reader) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(s.opts.UploadDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(f, image); err != nil {
		_ = f.Close()
		removeQuietly(path)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		removeQuietly(path)
		return "", fmt.Errorf("close image: %w", err)
	}
	return path, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove upload", slog.String("path", path), slog.String("error", err.Error()))
	}
}
