// Package client provides the orchestration layer between raw LLM provider calls
// and the comic pipeline. A [Client] carries the model, system prompt and
// sampling parameters and threads every request through a [Middleware] chain
// (retry, timeout, logging, rate limiting, caching).
//
// The primary entry point is [New], which accepts an [ai.Provider] and a set of
// functional options (e.g. [WithModel], [WithSystemPrompt], [WithMiddleware]).
package client
