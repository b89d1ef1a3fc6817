package service

import (
	"context"
	"fmt"
	"strings"

	"revelio-finance/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const gigaChatSystemInstruction = `You classify bank statement lines for a personal finance app.
Answer with a single JSON object and nothing else: no markdown, no comments.`

// GigaChatClient completes prompts with a GigaChat generative model.
type GigaChatClient struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func NewGigaChatClient(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatClient, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}

	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = gigaChatSystemInstruction
	model.Temperature = 0.1

	logger.Info("Using GigaChat completion backend", zap.String("model", cfg.Model))

	return &GigaChatClient{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (c *GigaChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

func (c *GigaChatClient) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
