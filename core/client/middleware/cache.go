package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/leofalp/gradedreader/core/client"
	"github.com/leofalp/gradedreader/providers/ai"
)

// NewCacheMiddleware memoises successful responses for ttl. Entries are keyed
// by a SHA-256 digest of the model, system prompt, generation config and
// messages, so identical prompts within the window skip the provider. Errors
// are never cached. A non-positive ttl disables caching.
func NewCacheMiddleware(ttl time.Duration) client.MiddlewareConfig {
	if ttl <= 0 {
		return client.MiddlewareConfig{
			Send: func(next client.SendFunc) client.SendFunc { return next },
		}
	}

	store := cache.New(ttl, 2*ttl)

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				key, err := cacheKey(request)
				if err != nil {
					slog.WarnContext(ctx, "llm cache key failed, bypassing cache", "error", err)
					return next(ctx, request)
				}

				if hit, ok := store.Get(key); ok {
					slog.DebugContext(ctx, "llm cache hit", "model", request.Model)
					cached := *hit.(*ai.ChatResponse)
					return &cached, nil
				}

				response, err := next(ctx, request)
				if err != nil {
					return nil, err
				}

				stored := *response
				store.SetDefault(key, &stored)
				return response, nil
			}
		},
	}
}

func cacheKey(request ai.ChatRequest) (string, error) {
	encoded, err := json.Marshal(struct {
		Model            string               `json:"model"`
		SystemPrompt     string               `json:"system_prompt"`
		GenerationConfig *ai.GenerationConfig `json:"generation_config"`
		Messages         []ai.Message         `json:"messages"`
	}{request.Model, request.SystemPrompt, request.GenerationConfig, request.Messages})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
