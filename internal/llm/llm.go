// Package llm provides a provider-neutral text completion interface used by
// the relevance classifier and the same-work oracle.
package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/colmmemedsurv/sentinelnode/internal/config"
)

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer returns the model's text reply to a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, eris.New("llm: anthropic key is required")
		}
		return NewAnthropic(cfg.AnthropicKey, cfg.AnthropicModel, cfg.MaxTokens), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, eris.New("llm: gemini key is required")
		}
		return NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.MaxTokens)
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
