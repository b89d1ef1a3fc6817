package handlers

import (
	"bytes"
	"strings"

	"revelio-finance/internal/dto"
	"revelio-finance/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const anomalyPlaceholder = "Anomaly analysis is not available yet."

type AIHandler struct {
	categorizer service.Categorizer
	logger      *zap.Logger
}

func NewAIHandler(categorizer service.Categorizer, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		categorizer: categorizer,
		logger:      logger,
	}
}

// Categorize godoc
// @Summary Categorize one transaction
// @Description Ask the language model for the merchant, category and city of a statement memo
// @Tags ai
// @Accept json
// @Produce json
// @Param request body dto.CategorizeRequest true "Transaction description"
// @Security Bearer
// @Success 200 {object} models.CategorizationResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/ai/categorize [post]
func (h *AIHandler) Categorize(c *fiber.Ctx) error {
	var req dto.CategorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Transaction description cannot be empty.",
		})
	}

	result := h.categorizer.Categorize(c.UserContext(), description)
	return c.JSON(result)
}

// AnalyzeAnomaly godoc
// @Summary Check a transaction for anomalies
// @Description Placeholder: always answers that the transaction is not an anomaly
// @Tags ai
// @Accept json
// @Produce json
// @Param request body dto.AnalyzeAnomalyRequest true "Transaction and category history"
// @Security Bearer
// @Success 200 {object} dto.AnalyzeAnomalyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/ai/analyze-anomaly [post]
func (h *AIHandler) AnalyzeAnomaly(c *fiber.Ctx) error {
	var req dto.AnalyzeAnomalyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if isEmptyJSON(req.CurrentTransaction) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Payload must contain 'currentTransaction'.",
		})
	}

	return c.JSON(dto.AnalyzeAnomalyResponse{
		IsAnomaly:     false,
		Justification: anomalyPlaceholder,
	})
}

func isEmptyJSON(raw []byte) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", `""`:
		return true
	default:
		return false
	}
}
