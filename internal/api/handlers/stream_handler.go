package handlers

import (
	"context"

	"revelio-finance/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StreamHandler struct {
	baseCtx   context.Context
	enricher  service.Enricher
	groupSize int
	logger    *zap.Logger
}

// NewStreamHandler serves enrichment sessions. baseCtx is cancelled on
// server shutdown.
func NewStreamHandler(baseCtx context.Context, enricher service.Enricher, groupSize int, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		baseCtx:   baseCtx,
		enricher:  enricher,
		groupSize: groupSize,
		logger:    logger,
	}
}

// RequireUpgrade rejects plain HTTP requests to the websocket route.
func (h *StreamHandler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AnalyzeStream godoc
// @Summary Stream transaction enrichment
// @Description Websocket. Send one JSON array of transactions; receive {type:"progress"} messages per group, then {type:"complete"} or {type:"error"}.
// @Tags stream
// @Param token query string false "Bearer token when auth is enabled"
// @Success 101 {string} string "Switching Protocols"
// @Failure 426 {object} dto.ErrorResponse
// @Router /ws/analyze [get]
func (h *StreamHandler) AnalyzeStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		session := service.NewEnrichmentSession(conn, h.enricher, h.groupSize, h.logger)
		h.logger.Info("Enrichment session opened",
			zap.String("session_id", session.ID()),
			zap.String("remote_addr", conn.RemoteAddr().String()),
		)
		session.Run(h.baseCtx)
	})
}
