package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/leofalp/gradedreader/internal/utils"
	"github.com/leofalp/gradedreader/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

var (
	// ErrMissingAPIKey is returned by SendMessage when no API key was configured.
	ErrMissingAPIKey = errors.New("openai: API key is not set")

	// ErrEmptyResponse is returned when the gateway answers without any choices.
	ErrEmptyResponse = errors.New("openai: no choices in response")
)

// Provider implements the ai.Provider interface for OpenAI-compatible
// chat completions gateways.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*Provider)(nil)

// New creates a provider pointed at the public OpenAI endpoint. Use the With*
// methods to target another compatible gateway.
func New() *Provider {
	return &Provider{
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API. A trailing slash is ignored.
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage implements the Provider interface
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, requestToChatCompletion(request))
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w (status %s)", ErrEmptyResponse, httpResponse.Status)
	}

	return chatCompletionToGeneric(*resp), nil
}
