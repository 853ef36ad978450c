package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseBytes bounds how much of a response body is read into memory.
const maxResponseBytes = 8 << 20

// StatusError is returned when a server answers with a non-2xx status code.
// Body holds a truncated preview of the response for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// DoPostSync performs a synchronous HTTP POST request with JSON body and parses the response.
// It handles authorization headers, debug logging and proper resource cleanup.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - HTTP errors (connection failures) return the error
//   - Non-2xx status codes return a [*StatusError]
//   - Response body close errors are logged but don't override primary errors
//   - JSON parsing errors include response preview for debugging
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any) (*http.Response, *OutputStruct, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	slog.DebugContext(ctx, "http request prepared", "method", http.MethodPost, "url", url, "body_size", len(jsonBody))

	res, respBody, err := do(ctx, client, req)
	if err != nil {
		return res, nil, err
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling LLM response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return res, &resStruct, nil
}

// DoGet performs a GET request and returns the raw response body. Non-2xx
// responses are reported as [*StatusError].
func DoGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return do(ctx, client, req)
}

func do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, []byte, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	url := req.URL.String()
	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		slog.DebugContext(ctx, "http request failed", "url", url, "error", err, "duration", requestDuration)
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	slog.DebugContext(ctx, "http response received",
		"url", url,
		"status", res.StatusCode,
		"body_size", len(respBody),
		"duration", requestDuration,
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, &StatusError{StatusCode: res.StatusCode, Body: TruncateString(string(respBody), 500)}
	}

	return res, respBody, nil
}

// CloseWithLog closes c and logs a warning when the close fails. It is meant
// for deferred cleanup where the close error must not override the primary one.
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close resource", "error", err.Error())
	}
}
