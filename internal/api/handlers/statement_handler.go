package handlers

import (
	"io"
	"path/filepath"
	"strings"

	"revelio-finance/internal/dto"
	"revelio-finance/internal/models"
	"revelio-finance/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	errInvalidFileType = "Invalid file type. Please provide a .ofx or .qfx file."
	errNoTransactions  = "Could not parse the file or no transactions were found."
)

// StatementParser is implemented by service.StatementParser.
type StatementParser interface {
	Parse(raw []byte) ([]models.TransactionRecord, error)
}

type StatementHandler struct {
	parser StatementParser
	logger *zap.Logger
}

func NewStatementHandler(parser StatementParser, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{
		parser: parser,
		logger: logger,
	}
}

// UploadStatement godoc
// @Summary Upload a bank statement
// @Description Parse an OFX/QFX statement and return its transactions without enrichment
// @Tags statements
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Statement file (.ofx or .qfx)"
// @Security Bearer
// @Success 200 {object} dto.UploadStatementResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/statements/upload [post]
func (h *StatementHandler) UploadStatement(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	if !isStatementFile(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidFileType,
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		h.logger.Error("Failed to read uploaded statement", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	txs, err := h.parser.Parse(raw)
	if err != nil {
		if service.IsNoTransactions(err) {
			h.logger.Warn("Statement contains no transactions",
				zap.String("filename", file.Filename),
				zap.Error(err),
			)
		} else {
			h.logger.Error("Failed to parse statement",
				zap.String("filename", file.Filename),
				zap.Error(err),
			)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errNoTransactions,
		})
	}
	if len(txs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errNoTransactions,
		})
	}

	h.logger.Info("Statement parsed",
		zap.String("filename", file.Filename),
		zap.Int("transactions", len(txs)),
	)

	return c.JSON(dto.UploadStatementResponse{
		Filename:         file.Filename,
		TransactionCount: len(txs),
		Transactions:     txs,
	})
}

func isStatementFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ofx", ".qfx":
		return true
	default:
		return false
	}
}
