package factory

import (
	"fmt"

	"go.uber.org/zap"

	"docintake/internal/config"
	"docintake/internal/llm"
	"docintake/internal/llm/anthropic"
	"docintake/internal/llm/openai"
)

// New selects the completion client named by cfg.Provider.
func New(cfg config.LLMConfig, log *zap.Logger) (llm.Client, error) {
	httpClient := llm.NewHTTPClient(cfg.Timeout)
	switch cfg.Provider {
	case "", "anthropic":
		return anthropic.New(cfg, httpClient, log)
	case "openai":
		return openai.New(cfg, httpClient, log)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", config.ErrConfiguration, cfg.Provider)
	}
}
