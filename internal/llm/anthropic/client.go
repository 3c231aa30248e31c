package anthropic

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
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-3-7-sonnet-20250219"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Client calls the Anthropic Messages API.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	http      *http.Client
	log       *zap.Logger
}

var _ llm.Client = (*Client)(nil)

// New builds a Messages API client. The API key is required.
func New(cfg config.LLMConfig, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: anthropic api key is required", config.ErrConfiguration)
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
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.http == nil {
		c.http = llm.NewHTTPClient(cfg.Timeout)
	}
	return c, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Complete sends prompt as a single user message and returns the first text block.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": apiVersion,
	}

	raw, err := llm.PostJSON(ctx, c.http, "anthropic", c.baseURL+"/v1/messages", body, headers, c.log)
	if err != nil {
		return "", err
	}

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(resp.Content) == 0 || resp.Content[0].Type != "text" {
		return "", errors.New("unexpected response format from anthropic")
	}
	return resp.Content[0].Text, nil
}
