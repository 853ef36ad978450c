package comic

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leofalp/gradedreader/core/extract"
	"github.com/leofalp/gradedreader/core/panel"
	"github.com/leofalp/gradedreader/providers/ai"
	"github.com/leofalp/gradedreader/providers/store"
	"github.com/leofalp/gradedreader/providers/store/inmemory"
)

const validScript = "Here you go:\n```json\n" + `{
  "panels": [
    {"panel_number": 1, "visual_description": "A **fox** in the snow", "caption": "The fox ran."},
    {"panel_number": 2, "visual_description": "A den", "caption": "It went home."}
  ],
  "back_cover": {"summary": "A fox goes home", "theme": "home", "level": "A1"}
}` + "\n```"

// stubGenerator answers every prompt through respond.
type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (*ai.ChatResponse, error)
}

func (g *stubGenerator) SendMessage(_ context.Context, prompt string) (*ai.ChatResponse, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.respond(prompt)
}

func replyWith(content string) *stubGenerator {
	return &stubGenerator{respond: func(string) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{Content: content}, nil
	}}
}

func newTestService(t *testing.T, llm Generator, opts Options) (*Service, *inmemory.Store) {
	t.Helper()
	st := inmemory.New()
	if opts.UploadDir == "" {
		opts.UploadDir = t.TempDir()
	}
	return NewService(st, llm, opts), st
}

func TestService_SaveStory_DerivesTitle(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{})

	story, err := svc.SaveStory(context.Background(), "", "# Snow Day\nIt snowed.")
	if err != nil {
		t.Fatalf("SaveStory() error = %v", err)
	}
	if story.Title != "Snow Day" {
		t.Errorf("Title = %q, want %q", story.Title, "Snow Day")
	}

	if _, err := svc.SaveStory(context.Background(), "x", "   "); !errors.Is(err, ErrEmptyStory) {
		t.Errorf("SaveStory(blank) error = %v, want ErrEmptyStory", err)
	}
}

func TestService_Generate(t *testing.T) {
	llm := replyWith(validScript)
	svc, st := newTestService(t, llm, Options{})
	ctx := context.Background()

	story, err := svc.SaveStory(ctx, "Fox", "The fox ran. It went home.")
	if err != nil {
		t.Fatalf("SaveStory() error = %v", err)
	}

	c, err := svc.Generate(ctx, story.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], story.Content) {
		t.Fatalf("prompt did not carry the story: %v", llm.prompts)
	}

	pages := c.Panels.Pages()
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Prompt != "A fox in the snow" {
		t.Errorf("bold markers not stripped: %q", pages[0].Prompt)
	}
	if _, ok := c.Panels.BackCover(); !ok {
		t.Error("expected back cover record")
	}

	stored, err := st.Comic(ctx, c.ID)
	if err != nil {
		t.Fatalf("store.Comic() error = %v", err)
	}
	decoded, err := panel.Decode(stored.Panels)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(decoded) != len(c.Panels) {
		t.Errorf("stored %d panels, want %d", len(decoded), len(c.Panels))
	}
}

func TestService_Generate_Errors(t *testing.T) {
	ctx := context.Background()
	upstream := errors.New("gateway down")

	tests := []struct {
		name    string
		llm     Generator
		wantErr error
	}{
		{name: "no json", llm: replyWith("Sorry, I cannot help."), wantErr: extract.ErrRecoveryFailed},
		{name: "no panel list", llm: replyWith(`{"panels": []}`), wantErr: panel.ErrNormalizationFailed},
		{name: "refusal", llm: &stubGenerator{respond: func(string) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{Refusal: "no"}, nil
		}}, wantErr: ErrRefused},
		{name: "upstream failure", llm: &stubGenerator{respond: func(string) (*ai.ChatResponse, error) {
			return nil, upstream
		}}, wantErr: upstream},
		{name: "no generator", llm: nil, wantErr: ErrGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t, tt.llm, Options{})
			story, err := svc.SaveStory(ctx, "t", "The fox ran.")
			if err != nil {
				t.Fatalf("SaveStory() error = %v", err)
			}

			_, err = svc.Generate(ctx, story.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Generate() error = %v, want %v", err, tt.wantErr)
			}
			if _, err := st.Comic(ctx, story.ID+1); !errors.Is(err, store.ErrNotFound) {
				t.Error("no comic should be stored on failure")
			}
		})
	}
}

func TestService_Generate_UnknownStory(t *testing.T) {
	svc, _ := newTestService(t, replyWith(validScript), Options{})
	if _, err := svc.Generate(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Generate() error = %v, want store.ErrNotFound", err)
	}
}

func TestService_Generate_LenientRepair(t *testing.T) {
	broken := `{"panels": [{"panel_number": 1, "visual_description": "A fox", "caption": "The fox ran."}`
	ctx := context.Background()

	strict, _ := newTestService(t, replyWith(broken), Options{})
	story, _ := strict.SaveStory(ctx, "t", "The fox ran.")
	if _, err := strict.Generate(ctx, story.ID); !errors.Is(err, extract.ErrRecoveryFailed) {
		t.Fatalf("strict Generate() error = %v, want ErrRecoveryFailed", err)
	}

	lenient, _ := newTestService(t, replyWith(broken), Options{LenientRepair: true})
	story, _ = lenient.SaveStory(ctx, "t", "The fox ran.")
	c, err := lenient.Generate(ctx, story.ID)
	if err != nil {
		t.Fatalf("lenient Generate() error = %v", err)
	}
	if len(c.Panels.Pages()) != 1 {
		t.Errorf("pages = %d, want 1", len(c.Panels.Pages()))
	}
}

func TestService_GenerateAll(t *testing.T) {
	var inFlight, peak atomic.Int32
	llm := &stubGenerator{respond: func(prompt string) (*ai.ChatResponse, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if strings.Contains(prompt, "BROKEN") {
			return &ai.ChatResponse{Content: "no json here"}, nil
		}
		return &ai.ChatResponse{Content: validScript}, nil
	}}
	svc, _ := newTestService(t, llm, Options{})
	ctx := context.Background()

	var ids []int64
	for _, text := range []string{"one", "BROKEN", "three", "four"} {
		s, err := svc.SaveStory(ctx, "t", text)
		if err != nil {
			t.Fatalf("SaveStory() error = %v", err)
		}
		ids = append(ids, s.ID)
	}

	results, err := svc.GenerateAll(ctx, ids, 2)
	if err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}
	if len(results) != len(ids) {
		t.Fatalf("results = %d, want %d", len(results), len(ids))
	}
	for i, r := range results {
		if r.StoryID != ids[i] {
			t.Errorf("results[%d].StoryID = %d, want %d", i, r.StoryID, ids[i])
		}
		if i == 1 {
			if !errors.Is(r.Err, extract.ErrRecoveryFailed) {
				t.Errorf("results[1].Err = %v, want ErrRecoveryFailed", r.Err)
			}
			continue
		}
		if r.Err != nil || r.Comic.ID == 0 {
			t.Errorf("results[%d] = %+v, want a stored comic", i, r)
		}
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestService_GenerateAll_Canceled(t *testing.T) {
	svc, _ := newTestService(t, replyWith(validScript), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GenerateAll(ctx, []int64{1, 2}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateAll() error = %v, want context.Canceled", err)
	}
}

func TestService_AttachImage(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, replyWith(validScript), Options{UploadDir: dir, UploadURLPrefix: "/static/uploads/"})
	ctx := context.Background()

	story, _ := svc.SaveStory(ctx, "t", "The fox ran. It went home.")
	c, err := svc.Generate(ctx, story.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	url, err := svc.AttachImage(ctx, c.ID, 2, strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
	if !strings.HasPrefix(url, "/static/uploads/comic_") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	if err != nil {
		t.Fatalf("read upload: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("upload content = %q", data)
	}

	reloaded, err := svc.Comic(ctx, c.ID)
	if err != nil {
		t.Fatalf("Comic() error = %v", err)
	}
	if reloaded.Panels[1].ImageURL != url {
		t.Errorf("panel 2 image = %q, want %q", reloaded.Panels[1].ImageURL, url)
	}
	if reloaded.Panels[0].ImageURL != "" {
		t.Errorf("panel 1 image should be unset, got %q", reloaded.Panels[0].ImageURL)
	}
}

func TestService_AttachImage_UnknownPanel(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, replyWith(validScript), Options{UploadDir: dir})
	ctx := context.Background()

	story, _ := svc.SaveStory(ctx, "t", "The fox ran.")
	c, err := svc.Generate(ctx, story.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = svc.AttachImage(ctx, c.ID, 7, strings.NewReader("x"))
	if !errors.Is(err, ErrPanelNotFound) {
		t.Fatalf("AttachImage() error = %v, want ErrPanelNotFound", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("upload dir has %d files, want 0", len(entries))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestService_AttachImage_WriteFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, replyWith(validScript), Options{UploadDir: dir})
	ctx := context.Background()

	story, _ := svc.SaveStory(ctx, "t", "The fox ran.")
	c, _ := svc.Generate(ctx, story.ID)

	if _, err := svc.AttachImage(ctx, c.ID, 1, failingReader{}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("AttachImage() error = %v, want io.ErrUnexpectedEOF", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("upload dir has %d files, want 0", len(entries))
	}
}

func TestService_DeleteComic(t *testing.T) {
	svc, _ := newTestService(t, replyWith(validScript), Options{})
	ctx := context.Background()

	story, _ := svc.SaveStory(ctx, "t", "The fox ran.")
	c, _ := svc.Generate(ctx, story.ID)

	if err := svc.DeleteComic(ctx, c.ID); err != nil {
		t.Fatalf("DeleteComic() error = %v", err)
	}
	if _, err := svc.Comic(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Comic() after delete error = %v, want store.ErrNotFound", err)
	}
	if err := svc.DeleteComic(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteComic() error = %v, want store.ErrNotFound", err)
	}
}
