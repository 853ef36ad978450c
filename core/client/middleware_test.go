package client

import (
	"context"
	"testing"

	"github.com/leofalp/gradedreader/providers/ai"
)

// ========== Chain construction helpers ==========

// callRecorder records whether a middleware was invoked and in what order.
type callRecorder struct {
	order      *[]string
	name       string
	calledSend bool
}

func newCallRecorder(name string, sharedOrder *[]string) *callRecorder {
	return &callRecorder{order: sharedOrder, name: name}
}

func (rec *callRecorder) sendMiddleware() Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			rec.calledSend = true
			*rec.order = append(*rec.order, rec.name)

			return next(ctx, request)
		}
	}
}

// ========== buildSendChain tests ==========

// TestBuildSendChain_EmptyMiddlewares verifies that an empty slice results in a
// direct provider call.
func TestBuildSendChain_EmptyMiddlewares(t *testing.T) {
	provider := &mockProvider{}
	chain := buildSendChain(provider, nil)

	resp, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.Content != "test response" {
		t.Errorf("expected 'test response', got %q", resp.Content)
	}
}

// TestBuildSendChain_MultipleMiddlewares verifies outermost-first execution order.
func TestBuildSendChain_MultipleMiddlewares(t *testing.T) {
	provider := &mockProvider{}
	order := []string{}
	rec1 := newCallRecorder("mw1", &order)
	rec2 := newCallRecorder("mw2", &order)
	rec3 := newCallRecorder("mw3", &order)

	chain := buildSendChain(provider, []MiddlewareConfig{
		{Send: rec1.sendMiddleware()},
		{Send: rec2.sendMiddleware()},
		{Send: rec3.sendMiddleware()},
	})

	_, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1", "mw2", "mw3"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}

	for i, name := range expected {
		if order[i] != name {
			t.Errorf("position %d: expected %q, got %q", i, name, order[i])
		}
	}
}

// TestBuildSendChain_ShortCircuit verifies that a middleware can return early
// without calling next.
func TestBuildSendChain_ShortCircuit(t *testing.T) {
	providerCalled := false
	provider := &mockProvider{
		sendMessageFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			providerCalled = true
			return &ai.ChatResponse{}, nil
		},
	}

	shortCircuit := Middleware(func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{Content: "cached"}, nil
		}
	})

	chain := buildSendChain(provider, []MiddlewareConfig{{Send: shortCircuit}})

	resp, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "cached" {
		t.Errorf("expected 'cached', got %q", resp.Content)
	}
	if providerCalled {
		t.Error("provider must not be called when middleware short-circuits")
	}
}

// TestWithMiddleware_ClientCallsChain verifies that SendMessage routes through
// configured middlewares.
func TestWithMiddleware_ClientCallsChain(t *testing.T) {
	order := []string{}
	rec := newCallRecorder("mw", &order)

	c, err := New(&mockProvider{}, WithMiddleware(MiddlewareConfig{Send: rec.sendMiddleware()}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.calledSend {
		t.Error("expected middleware to be called by SendMessage")
	}
}
