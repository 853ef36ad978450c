package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/gradedreader/providers/ai"
)

// ========== Helpers ==========

// makeSendFunc returns a SendFunc that sleeps for the given duration before
// returning, simulating a slow provider.
func makeSendFunc(sleep time.Duration, resp *ai.ChatResponse, err error) func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		select {
		case <-time.After(sleep):
			return resp, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ========== Send timeout tests ==========

// TestTimeoutMiddleware_SendCompletesBeforeTimeout verifies that a fast provider
// returns its response successfully.
func TestTimeoutMiddleware_SendCompletesBeforeTimeout(t *testing.T) {
	fast := makeSendFunc(
		0,
		&ai.ChatResponse{Content: "ok", FinishReason: "stop"},
		nil,
	)

	mw := NewTimeoutMiddleware(100 * time.Millisecond)
	chain := mw.Send(fast)

	resp, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "ok" {
		t.Errorf("expected 'ok', got %q", resp.Content)
	}
}

// TestTimeoutMiddleware_SendExceedsTimeout verifies that a slow provider causes
// the send middleware to return a DeadlineExceeded error.
func TestTimeoutMiddleware_SendExceedsTimeout(t *testing.T) {
	slow := makeSendFunc(200*time.Millisecond, nil, nil)

	mw := NewTimeoutMiddleware(20 * time.Millisecond)
	chain := mw.Send(slow)

	_, err := chain(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

// TestTimeoutMiddleware_ExistingShorterDeadline verifies that when the caller's
// context already has a deadline shorter than the middleware's timeout, the
// caller's deadline wins.
func TestTimeoutMiddleware_ExistingShorterDeadline(t *testing.T) {
	slow := makeSendFunc(200*time.Millisecond, nil, nil)

	// Middleware timeout is 100ms but caller deadline is only 20ms.
	mw := NewTimeoutMiddleware(100 * time.Millisecond)
	chain := mw.Send(slow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := chain(ctx, ai.ChatRequest{})
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	// Should have cancelled closer to 20ms (caller deadline), not 100ms.
	if elapsed > 80*time.Millisecond {
		t.Errorf("expected cancellation near 20ms, elapsed %v", elapsed)
	}
}
