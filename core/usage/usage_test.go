package usage

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leofalp/gradedreader/core/client"
	"github.com/leofalp/gradedreader/providers/ai"
)

func TestModelCost_CalculateTotalCost(t *testing.T) {
	mc := ModelCost{InputCostPerMillion: 2.0, OutputCostPerMillion: 8.0}
	got := mc.CalculateTotalCost(500_000, 250_000)
	if math.Abs(got-3.0) > 1e-9 {
		t.Errorf("CalculateTotalCost() = %v, want 3.0", got)
	}
	if !(ModelCost{}).IsZero() {
		t.Error("zero ModelCost should report IsZero")
	}
}

func TestTracker_Middleware(t *testing.T) {
	tracker := NewTracker(ModelCost{InputCostPerMillion: 1_000_000, OutputCostPerMillion: 2_000_000})
	clock := time.Unix(0, 0)
	tracker.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}

	failing := errors.New("boom")
	calls := 0
	var next client.SendFunc = func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		calls++
		if calls == 2 {
			return nil, failing
		}
		return &ai.ChatResponse{Usage: &ai.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}}, nil
	}
	send := tracker.Middleware().Send(next)

	for i := 0; i < 3; i++ {
		_, err := send(context.Background(), ai.ChatRequest{})
		if i == 1 && !errors.Is(err, failing) {
			t.Fatalf("call %d error = %v, want the provider error", i, err)
		}
	}

	s := tracker.Summary()
	if s.Calls != 3 || s.Failures != 1 {
		t.Errorf("calls/failures = %d/%d, want 3/1", s.Calls, s.Failures)
	}
	if s.Usage.TotalTokens != 10 || s.Usage.PromptTokens != 6 || s.Usage.CompletionTokens != 4 {
		t.Errorf("usage = %+v", s.Usage)
	}
	if math.Abs(s.Cost-14) > 1e-9 {
		t.Errorf("cost = %v, want 14", s.Cost)
	}
	if s.Duration != 30*time.Millisecond {
		t.Errorf("duration = %s, want 30ms", s.Duration)
	}
	if !strings.Contains(s.String(), "3 calls (1 failed)") {
		t.Errorf("String() = %q", s.String())
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(ModelCost{})
	send := tracker.Middleware().Send(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{Usage: &ai.Usage{TotalTokens: 1}}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = send(context.Background(), ai.ChatRequest{})
		}()
	}
	wg.Wait()

	s := tracker.Summary()
	if s.Calls != 50 || s.Usage.TotalTokens != 50 {
		t.Errorf("summary = %+v, want 50 calls and 50 tokens", s)
	}
	if s.Cost != 0 {
		t.Errorf("cost = %v, want 0 without pricing", s.Cost)
	}
}
