package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/gradedreader/providers/ai"
)

type countingSend struct {
	calls int
	err   error
}

func (c *countingSend) send(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &ai.ChatResponse{Content: request.Messages[0].Content + " reply"}, nil
}

func userRequest(content string) ai.ChatRequest {
	return ai.ChatRequest{
		Model:    "test-model",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: content}},
	}
}

func TestCacheMiddleware_HitSkipsProvider(t *testing.T) {
	next := &countingSend{}
	chain := NewCacheMiddleware(time.Minute).Send(next.send)

	first, err := chain(context.Background(), userRequest("story"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Content = "mutated by caller"

	second, err := chain(context.Background(), userRequest("story"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if next.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", next.calls)
	}
	if second.Content != "story reply" {
		t.Errorf("cached response must not be affected by caller mutation, got %q", second.Content)
	}
}

func TestCacheMiddleware_KeyIncludesRequestFields(t *testing.T) {
	next := &countingSend{}
	chain := NewCacheMiddleware(time.Minute).Send(next.send)

	requests := []ai.ChatRequest{
		userRequest("story"),
		userRequest("other story"),
		{Model: "other-model", Messages: userRequest("story").Messages},
		{Model: "test-model", SystemPrompt: "sys", Messages: userRequest("story").Messages},
		{Model: "test-model", Messages: userRequest("story").Messages, GenerationConfig: &ai.GenerationConfig{Temperature: 0.2}},
	}

	for _, r := range requests {
		if _, err := chain(context.Background(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if next.calls != len(requests) {
		t.Errorf("expected %d distinct provider calls, got %d", len(requests), next.calls)
	}
}

func TestCacheMiddleware_ErrorsNotCached(t *testing.T) {
	next := &countingSend{err: errors.New("boom")}
	chain := NewCacheMiddleware(time.Minute).Send(next.send)

	for i := 0; i < 2; i++ {
		if _, err := chain(context.Background(), userRequest("story")); err == nil {
			t.Fatal("expected error")
		}
	}
	if next.calls != 2 {
		t.Errorf("expected errors to bypass the cache, got %d calls", next.calls)
	}
}

func TestCacheMiddleware_Disabled(t *testing.T) {
	next := &countingSend{}
	chain := NewCacheMiddleware(0).Send(next.send)

	for i := 0; i < 2; i++ {
		if _, err := chain(context.Background(), userRequest("story")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if next.calls != 2 {
		t.Errorf("expected caching disabled, got %d calls", next.calls)
	}
}
