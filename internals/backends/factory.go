package backends

import (
	"fmt"
	"log/slog"

	"github.com/cogniolab/hybrid/internals/conf"
	"github.com/cogniolab/hybrid/internals/env"
)

// NewFromConfig assembles the backend store for the configured agent mode.
// Stub mode needs no credentials; api mode requires both provider keys in
// the environment.
func NewFromConfig(agents conf.AgentsConfig, platform conf.PlatformConfig, environ *env.EnvStruct, logger *slog.Logger) (*Store, error) {
	store := NewStore()

	switch agents.Mode {
	case conf.AgentModeAPI:
		fast, err := NewOpenAI(OpenAIOptions{
			APIKey:     environ.OPENAI_API_KEY,
			Model:      agents.OpenAI.Model,
			BaseURL:    agents.OpenAI.BaseURL,
			MaxTokens:  agents.OpenAI.MaxTokens,
			MaxRetries: platform.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("agent mode %q: %w", agents.Mode, err)
		}
		acting, err := NewAnthropic(AnthropicOptions{
			APIKey:     environ.ANTHROPIC_API_KEY,
			Model:      agents.Anthropic.Model,
			BaseURL:    agents.Anthropic.BaseURL,
			MaxTokens:  agents.Anthropic.MaxTokens,
			MaxRetries: platform.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("agent mode %q: %w", agents.Mode, err)
		}
		if err := store.Register(fast); err != nil {
			return nil, err
		}
		if err := store.Register(acting); err != nil {
			return nil, err
		}
	default:
		if err := store.Register(NewStubOpenAI()); err != nil {
			return nil, err
		}
		if err := store.Register(NewStubClaude()); err != nil {
			return nil, err
		}
	}

	return store, nil
}
