package middleware

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/leofalp/gradedreader/core/client"
	"github.com/leofalp/gradedreader/providers/ai"
)

// NewRateLimitMiddleware spaces provider calls at least interval apart, with
// burst calls allowed to start immediately. Waiting honours ctx: a canceled
// or expired context returns its error without calling the provider.
//
// A non-positive interval disables limiting. A burst below 1 is treated as 1.
func NewRateLimitMiddleware(interval time.Duration, burst int) client.MiddlewareConfig {
	if burst < 1 {
		burst = 1
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, burst)

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}
				return next(ctx, request)
			}
		},
	}
}
