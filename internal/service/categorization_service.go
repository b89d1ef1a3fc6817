package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"revelio-finance/internal/models"
	"revelio-finance/pkg/jsonrecover"

	"go.uber.org/zap"
)

// DefaultCategorizationTimeout bounds a single model call. Local inference is
// slow so this is generous.
const DefaultCategorizationTimeout = 30 * time.Second

// ErrInvalidCategorization means the model returned JSON without the
// required fields.
var ErrInvalidCategorization = errors.New("categorization is missing required fields")

// Categorizer is implemented by CategorizationService.
type Categorizer interface {
	Categorize(ctx context.Context, description string) models.CategorizationResult
}

type CategorizationService struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

func NewCategorizationService(completer Completer, timeout time.Duration, logger *zap.Logger) *CategorizationService {
	if timeout <= 0 {
		timeout = DefaultCategorizationTimeout
	}
	return &CategorizationService{
		completer: completer,
		timeout:   timeout,
		logger:    logger,
	}
}

func buildCategorizationPrompt(description string) string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}

	return fmt.Sprintf(`SYSTEM: You are an accounting expert specialised in analysing bank transactions. Analyse the following transaction memo and return **only** a valid JSON object. The object must contain the keys "merchantProbable" (string), "categorySuggested" (string) and "city" (string, or null when not detected). The category must be chosen exclusively from this list: [%s].

USER: %s`, strings.Join(names, ", "), description)
}

// Categorize asks the model about one description. It never fails: any
// transport, timeout or decoding problem yields the fallback result.
func (s *CategorizationService) Categorize(ctx context.Context, description string) models.CategorizationResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(ctx, buildCategorizationPrompt(description))
	if err != nil {
		s.logger.Error("Categorization request failed",
			zap.String("description", description),
			zap.Error(err),
		)
		return models.FallbackCategorization()
	}

	result, err := decodeCategorization(raw)
	if err != nil {
		s.logger.Error("Failed to decode categorization",
			zap.String("description", description),
			zap.String("response", raw),
			zap.Error(err),
		)
		return models.FallbackCategorization()
	}

	if !models.Category(result.CategorySuggested).IsKnown() {
		s.logger.Debug("Model suggested a category outside the known set",
			zap.String("description", description),
			zap.String("category", result.CategorySuggested),
		)
	}

	return result
}

type categorizationPayload struct {
	MerchantProbable  *string `json:"merchantProbable"`
	CategorySuggested *string `json:"categorySuggested"`
	City              *string `json:"city"`
}

// decodeCategorization recovers the first JSON object from model output and
// checks it has the required fields.
func decodeCategorization(text string) (models.CategorizationResult, error) {
	object, err := jsonrecover.FirstObject(text)
	if err != nil {
		return models.CategorizationResult{}, err
	}

	var payload categorizationPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return models.CategorizationResult{}, fmt.Errorf("failed to parse categorization JSON: %w", err)
	}

	if payload.MerchantProbable == nil || strings.TrimSpace(*payload.MerchantProbable) == "" ||
		payload.CategorySuggested == nil || strings.TrimSpace(*payload.CategorySuggested) == "" {
		return models.CategorizationResult{}, ErrInvalidCategorization
	}

	result := models.CategorizationResult{
		MerchantProbable:  strings.TrimSpace(*payload.MerchantProbable),
		CategorySuggested: strings.TrimSpace(*payload.CategorySuggested),
	}
	if payload.City != nil {
		if city := strings.TrimSpace(*payload.City); city != "" {
			result.City = &city
		}
	}
	return result, nil
}
