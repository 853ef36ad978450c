package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leofalp/gradedreader/core/client"
	"github.com/leofalp/gradedreader/providers/ai"
)

// ModelCost is the pricing of a model in USD per million tokens.
//
//	modelCost := usage.ModelCost{
//	    InputCostPerMillion:  1.25,
//	    OutputCostPerMillion: 10.00,
//	}
type ModelCost struct {
	InputCostPerMillion  float64 `json:"input_cost_per_million"`
	OutputCostPerMillion float64 `json:"output_cost_per_million"`
}

// IsZero reports whether no price is configured.
func (mc ModelCost) IsZero() bool {
	return mc.InputCostPerMillion == 0 && mc.OutputCostPerMillion == 0
}

// CalculateTotalCost returns the cost of the given token counts.
func (mc ModelCost) CalculateTotalCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000.0*mc.InputCostPerMillion +
		float64(outputTokens)/1_000_000.0*mc.OutputCostPerMillion
}

// Summary is a snapshot of a Tracker.
type Summary struct {
	Calls    int           `json:"calls"`
	Failures int           `json:"failures"`
	Usage    ai.Usage      `json:"usage"`
	Cost     float64       `json:"cost_usd"`
	Duration time.Duration `json:"duration"`
}

// String formats the summary for a one-line report.
func (s Summary) String() string {
	out := fmt.Sprintf("%d calls (%d failed), %d tokens (%d in, %d out) in %s",
		s.Calls, s.Failures, s.Usage.TotalTokens, s.Usage.PromptTokens, s.Usage.CompletionTokens,
		s.Duration.Round(time.Millisecond))
	if s.Cost > 0 {
		out += fmt.Sprintf(", about $%.4f", s.Cost)
	}
	return out
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	cost     ModelCost
	calls    int
	failures int
	total    ai.Usage
	busy     time.Duration
	now      func() time.Time
}

// NewTracker returns a tracker pricing usage with cost; a zero cost disables
// the estimate.
func NewTracker(cost ModelCost) *Tracker {
	return &Tracker{cost: cost, now: time.Now}
}

// Middleware returns the client middleware that feeds this tracker.
func (t *Tracker) Middleware() client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				start := t.now()
				resp, err := next(ctx, request)
				t.record(resp, err, t.now().Sub(start))
				return resp, err
			}
		},
	}
}

func (t *Tracker) record(resp *ai.ChatResponse, err error, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	t.busy += elapsed
	if err != nil {
		t.failures++
	}
	if resp == nil || resp.Usage == nil {
		return
	}
	t.total.PromptTokens += resp.Usage.PromptTokens
	t.total.CompletionTokens += resp.Usage.CompletionTokens
	t.total.TotalTokens += resp.Usage.TotalTokens
}

// Summary returns the totals so far. Duration is the summed time spent in
// provider calls, so it exceeds wall time when calls overlap.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		Calls:    t.calls,
		Failures: t.failures,
		Usage:    t.total,
		Duration: t.busy,
	}
	if !t.cost.IsZero() {
		s.Cost = t.cost.CalculateTotalCost(t.total.PromptTokens, t.total.CompletionTokens)
	}
	return s
}
