package service

import (
	"context"
	"errors"
	"fmt"

	"revelio-finance/pkg/config"

	"go.uber.org/zap"
)

// Completer sends one prompt to a text generation backend and returns the
// raw model output.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion is returned when the backend answered without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// CloseFunc releases backend resources. It is never nil.
type CloseFunc func() error

// NewCompleter builds the backend selected by cfg.LLM.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Completer, CloseFunc, error) {
	noop := func() error { return nil }

	switch cfg.LLM.Provider {
	case config.ProviderOllama, "":
		logger.Info("Using Ollama completion backend",
			zap.String("base_url", cfg.Ollama.BaseURL),
			zap.String("model", cfg.Ollama.Model),
		)
		return NewOllamaClient(cfg.Ollama, nil), noop, nil

	case config.ProviderGigaChat:
		client, err := NewGigaChatClient(ctx, &cfg.GigaChat, logger)
		if err != nil {
			return nil, noop, err
		}
		return client, client.Close, nil

	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}
