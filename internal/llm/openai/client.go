package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"docintake/internal/config"
	"docintake/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Client calls an OpenAI-compatible chat/completions endpoint.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	http      *http.Client
	log       *zap.Logger
}

var _ llm.Client = (*Client)(nil)

// New builds a chat/completions client. The API key is required.
func New(cfg config.LLMConfig, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key is required", config.ErrConfiguration)
	}
	c := &Client{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		http:      httpClient,
		log:       log,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.http == nil {
		c.http = llm.NewHTTPClient(cfg.Timeout)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	raw, err := llm.PostJSON(ctx, c.http, "openai", c.baseURL+"/chat/completions", body, headers, c.log)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	return resp.Choices[0].Message.Content, nil
}
