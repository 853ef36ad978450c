// Package middleware provides built-in middleware implementations for the
// client. Each middleware is constructed via a New* function that returns a
// [client.MiddlewareConfig] ready to be passed to [client.WithMiddleware].
//
// # Available Middleware
//
//   - [NewRetryMiddleware]: Retries failed provider calls with exponential backoff
//     and jitter. Useful for transient HTTP 429 / 5xx errors.
//
//   - [NewTimeoutMiddleware]: Adds a per-request deadline via context.WithTimeout.
//
//   - [NewLoggingMiddleware]: Emits structured slog log entries before and after
//     every provider call, with three verbosity levels (Minimal, Standard, Verbose).
//
//   - [NewRateLimitMiddleware]: Spaces provider calls with a token bucket.
//
//   - [NewCacheMiddleware]: Memoises responses for identical requests.
//
// # Usage
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewCacheMiddleware(10*time.Minute),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 2}),
//	        middleware.NewRateLimitMiddleware(2*time.Second, 2),
//	        middleware.NewTimeoutMiddleware(5*time.Minute),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Middlewares execute outermost-first: the first entry in WithMiddleware is the
// outermost wrapper. In the example above a cache hit returns before any retry,
// each retry attempt waits for the limiter, and the timeout bounds a single
// attempt rather than the whole retry sequence.
package middleware
