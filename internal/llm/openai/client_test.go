package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docintake/internal/config"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(config.LLMConfig{APIKey: "  "}, nil, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"an answer"}}]}`))
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-test", MaxTokens: 256}, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "an answer", out)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "question", got.Messages[0].Content)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client(), zap.NewNop())
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "q")
	assert.ErrorContains(t, err, "no choices")
}
