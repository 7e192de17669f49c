// Package perception talks to the LLM decision engine. The assistant
// never acts on engine output directly; everything flows through the
// extractor and safety layers first.
package perception

import (
	"context"
	"errors"
	"fmt"

	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
)

// LLMClient is the minimal completion surface the assistant needs.
type LLMClient interface {
	// Complete sends a prompt and returns the full response text.
	Complete(ctx context.Context, prompt string) (string, error)
	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// ListModels returns the model names the backend can serve.
	ListModels(ctx context.Context) ([]string, error)
}

// ErrNoModel is returned when a completion is requested before a model
// has been selected.
var ErrNoModel = errors.New("no model selected")

// NewClient builds an LLMClient from configuration.
func NewClient(cfg config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaClient(cfg.Host, cfg.Model), nil
	case "openai":
		return NewOpenAIClient(cfg.Host, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
