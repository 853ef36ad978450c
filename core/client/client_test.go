package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/leofalp/gradedreader/providers/ai"
)

// ========== Mock Types ==========

// mockProvider is a mock implementation of ai.Provider for testing
type mockProvider struct {
	sendMessageFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
	lastRequest     ai.ChatRequest
}

func (m *mockProvider) SendMessage(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	m.lastRequest = req
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, req)
	}
	return &ai.ChatResponse{
		Id:           "test-id",
		Model:        "test-model",
		Content:      "test response",
		FinishReason: "stop",
		Usage: &ai.Usage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
	}, nil
}

func (m *mockProvider) WithAPIKey(key string) ai.Provider              { return m }
func (m *mockProvider) WithBaseURL(url string) ai.Provider             { return m }
func (m *mockProvider) WithHttpClient(client *http.Client) ai.Provider { return m }

// ========== New tests ==========

func TestNew_NilProvider(t *testing.T) {
	_, err := New(nil)
	if !errors.Is(err, ErrNilProvider) {
		t.Errorf("expected ErrNilProvider, got %v", err)
	}
}

func TestNew_NilMiddlewareSend(t *testing.T) {
	_, err := New(&mockProvider{}, WithMiddleware(MiddlewareConfig{}))
	if err == nil {
		t.Fatal("expected error for nil Send middleware")
	}
}

// ========== SendMessage tests ==========

func TestSendMessage_BuildsSingleTurnRequest(t *testing.T) {
	provider := &mockProvider{}
	c, err := New(provider,
		WithModel("gemini-2.5-pro-thinking"),
		WithSystemPrompt("You are an illustrator."),
		WithGenerationConfig(ai.GenerationConfig{Temperature: 0.7}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := c.SendMessage(context.Background(), "Draw the story.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Content != "test response" {
			t.Errorf("expected 'test response', got %q", resp.Content)
		}
	}

	req := provider.lastRequest
	if req.Model != "gemini-2.5-pro-thinking" {
		t.Errorf("unexpected model %q", req.Model)
	}
	if req.SystemPrompt != "You are an illustrator." {
		t.Errorf("unexpected system prompt %q", req.SystemPrompt)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected stateless single message, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != ai.RoleUser || req.Messages[0].Content != "Draw the story." {
		t.Errorf("unexpected message %+v", req.Messages[0])
	}
	if req.GenerationConfig == nil || req.GenerationConfig.Temperature != 0.7 {
		t.Errorf("unexpected generation config %+v", req.GenerationConfig)
	}
	if c.Model() != "gemini-2.5-pro-thinking" {
		t.Errorf("Model() = %q", c.Model())
	}
}

func TestSendMessage_EmptyPrompt(t *testing.T) {
	c, err := New(&mockProvider{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.SendMessage(context.Background(), ""); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestSendMessage_ProviderError(t *testing.T) {
	providerErr := errors.New("boom")
	c, err := New(&mockProvider{
		sendMessageFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return nil, providerErr
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.SendMessage(context.Background(), "hello")
	if !errors.Is(err, providerErr) {
		t.Errorf("expected provider error, got %v", err)
	}
}
