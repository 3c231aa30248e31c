package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Client sends a single user prompt to a language model and returns its text reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NewHTTPClient returns an HTTP client whose transport emits client spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// PostJSON posts body as JSON to url and returns the raw response body.
// Non-2xx responses are returned as *StatusError.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, body any, headers map[string]string, log *zap.Logger) ([]byte, error) {
	reqID := uuid.NewString()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debug("llm_http_request",
		zap.String("req_id", reqID),
		zap.String("provider", provider),
		zap.Int("content_length", len(bs)),
	)

	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm_http_send_error",
			zap.String("req_id", reqID),
			zap.String("provider", provider),
			zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("%s request: %w", provider, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn("llm_http_body_close_error", zap.String("req_id", reqID), zap.Error(err))
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read response: %w", provider, err)
	}

	log.Info("llm_http_response",
		zap.String("req_id", reqID),
		zap.String("provider", provider),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: truncate(string(raw), 1024)}
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
