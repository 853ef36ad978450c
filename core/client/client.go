package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/gradedreader/providers/ai"
)

// ErrNilProvider is returned by [New] when no provider is supplied.
var ErrNilProvider = errors.New("client: provider must not be nil")

// Client sends stateless single-turn prompts to an LLM provider through a
// middleware chain. A Client is immutable after construction and safe for
// concurrent use as long as its middlewares are.
type Client struct {
	provider         ai.Provider
	model            string
	systemPrompt     string
	generationConfig *ai.GenerationConfig
	middlewares      []MiddlewareConfig
	send             SendFunc
}

// Option configures a Client during [New].
type Option func(*Client)

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithGenerationConfig sets sampling parameters sent with every request.
func WithGenerationConfig(config ai.GenerationConfig) Option {
	return func(c *Client) {
		c.generationConfig = &config
	}
}

// WithMiddleware appends middlewares to the chain. The first entry passed is
// the outermost wrapper. May be called multiple times; entries accumulate.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// New builds a Client around provider. It fails when provider is nil or a
// middleware entry has a nil Send function.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	c := &Client{provider: provider}
	for _, opt := range opts {
		opt(c)
	}

	for i, mw := range c.middlewares {
		if mw.Send == nil {
			return nil, fmt.Errorf("client: middleware at index %d has nil Send", i)
		}
	}

	c.send = buildSendChain(provider, c.middlewares)
	return c, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// SendMessage sends prompt as the sole user message and returns the provider
// response. No conversation state is kept between calls.
func (c *Client) SendMessage(ctx context.Context, prompt string) (*ai.ChatResponse, error) {
	if prompt == "" {
		return nil, errors.New("client: prompt must not be empty")
	}

	request := ai.ChatRequest{
		Model:            c.model,
		SystemPrompt:     c.systemPrompt,
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		GenerationConfig: c.generationConfig,
	}

	return c.send(ctx, request)
}
