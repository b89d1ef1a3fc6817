package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"revelio-finance/pkg/config"
)

// maxOllamaBody caps how much of a backend response is read.
const maxOllamaBody = 1 << 20

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// StatusError is returned for non-2xx completion responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion backend returned status %d: %s", e.StatusCode, e.Body)
}

// EnvelopeError means the backend answered 2xx but the body was not the
// expected {"response": "..."} envelope.
type EnvelopeError struct {
	Body string
	Err  error
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("unexpected completion envelope: %v (body: %s)", e.Err, e.Body)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Err
}

// OllamaClient talks to an Ollama style /api/generate endpoint.
type OllamaClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

// NewOllamaClient returns a client for cfg. A nil httpClient uses
// http.DefaultClient; deadlines come from the request context.
func NewOllamaClient(cfg config.OllamaConfig, httpClient *http.Client) *OllamaClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaClient{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/api/generate",
		model:      cfg.Model,
	}
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOllamaBody))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope ollamaGenerateResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &EnvelopeError{Body: string(body), Err: err}
	}
	if strings.TrimSpace(envelope.Response) == "" {
		return "", &EnvelopeError{Body: string(body), Err: ErrEmptyCompletion}
	}

	return envelope.Response, nil
}
