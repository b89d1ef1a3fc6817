package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"revelio-finance/internal/dto"
	"revelio-finance/internal/models"
	"revelio-finance/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	completeMessage    = "All transactions have been analyzed."
	invalidInputPrefix = "Invalid transaction payload"
	internalErrMessage = "An unexpected error occurred while analyzing transactions."
)

// SessionConn is the part of a websocket connection a session needs.
type SessionConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Enricher is implemented by EnrichmentService.
type Enricher interface {
	Enrich(ctx context.Context, txs []models.TransactionRecord, groupSize int, onProgress ProgressFunc) error
}

type SessionState string

const (
	SessionAwaitingInput SessionState = "awaiting_input"
	SessionProcessing    SessionState = "processing"
	SessionCompleted     SessionState = "completed"
	SessionFailed        SessionState = "failed"
	SessionDisconnected  SessionState = "disconnected"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionDisconnected
}

// EnrichmentSession drives one client connection: read a JSON array of
// transactions, stream progress for each enriched group, then finish with a
// complete or error event. The connection is closed in every terminal state.
type EnrichmentSession struct {
	id        string
	conn      SessionConn
	enricher  Enricher
	groupSize int
	logger    *zap.Logger

	state       SessionState
	writeFailed bool
}

func NewEnrichmentSession(conn SessionConn, enricher Enricher, groupSize int, log *zap.Logger) *EnrichmentSession {
	id := uuid.NewString()
	return &EnrichmentSession{
		id:        id,
		conn:      conn,
		enricher:  enricher,
		groupSize: groupSize,
		logger:    logger.ForSession(log, id),
		state:     SessionAwaitingInput,
	}
}

func (s *EnrichmentSession) ID() string {
	return s.id
}

func (s *EnrichmentSession) State() SessionState {
	return s.state
}

// Run blocks until the session reaches a terminal state and returns it.
func (s *EnrichmentSession) Run(ctx context.Context) (final SessionState) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Enrichment session panicked", zap.Any("panic", r))
			s.fail(internalErrMessage)
		}
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("Failed to close connection", zap.Error(err))
		}
		s.logger.Info("Enrichment session finished", zap.String("state", string(s.state)))
		final = s.state
	}()

	_, msg, err := s.conn.ReadMessage()
	if err != nil {
		s.logger.Info("Client disconnected before sending transactions", zap.Error(err))
		s.state = SessionDisconnected
		return
	}

	txs, err := decodeTransactions(msg)
	if err != nil {
		s.logger.Warn("Received malformed transaction payload", zap.Error(err))
		s.fail(fmt.Sprintf("%s: %v", invalidInputPrefix, err))
		return
	}

	s.state = SessionProcessing
	s.logger.Info("Starting enrichment",
		zap.Int("transactions", len(txs)),
		zap.Int("group_size", s.groupSize),
	)

	err = s.enricher.Enrich(ctx, txs, s.groupSize, func(p models.BatchProgress) error {
		return s.send(dto.NewProgressMessage(p))
	})

	switch {
	case err == nil:
		if s.send(dto.NewCompleteMessage(completeMessage)) != nil {
			return
		}
		s.state = SessionCompleted
	case s.writeFailed:
		// send already moved the session to Disconnected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("Enrichment cancelled", zap.Error(err))
		s.fail("Analysis was cancelled.")
	default:
		s.logger.Error("Enrichment failed", zap.Error(err))
		s.fail(internalErrMessage)
	}
	return
}

// send writes one message. After the first write failure the session is
// Disconnected and nothing else is sent.
func (s *EnrichmentSession) send(v any) error {
	if s.writeFailed {
		return errSessionClosed
	}
	if err := s.conn.WriteJSON(v); err != nil {
		s.writeFailed = true
		s.state = SessionDisconnected
		s.logger.Info("Client disconnected during processing", zap.Error(err))
		return err
	}
	return nil
}

// fail sends a best-effort error event and marks the session Failed unless
// the peer is already gone.
func (s *EnrichmentSession) fail(message string) {
	if s.send(dto.NewErrorMessage(message)) != nil {
		return
	}
	s.state = SessionFailed
}

var errSessionClosed = errors.New("session connection is closed")

// decodeTransactions accepts a JSON array of transaction objects.
func decodeTransactions(msg []byte) ([]models.TransactionRecord, error) {
	var txs []models.TransactionRecord
	if err := json.Unmarshal(msg, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		return nil, errors.New("expected a JSON array of transactions")
	}
	return txs, nil
}
