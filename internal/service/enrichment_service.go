package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"revelio-finance/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultGroupSize bounds concurrent model calls per session.
const DefaultGroupSize = 4

// ErrProgressAborted wraps the error returned by a progress callback.
var ErrProgressAborted = errors.New("progress delivery aborted")

// ProgressFunc receives one event per completed group. Returning an error
// stops enrichment before the next group.
type ProgressFunc func(models.BatchProgress) error

type EnrichmentService struct {
	categorizer Categorizer
	logger      *zap.Logger
}

func NewEnrichmentService(categorizer Categorizer, logger *zap.Logger) *EnrichmentService {
	return &EnrichmentService{
		categorizer: categorizer,
		logger:      logger,
	}
}

// Enrich categorizes txs in contiguous groups of groupSize. Members of a group
// run concurrently; groups run one after another. Results are merged in
// input order and reported through onProgress after each group.
//
// A nil return means every group was processed and delivered. Calls already
// in flight when ctx is cancelled are allowed to finish; cancellation is
// observed between groups.
func (s *EnrichmentService) Enrich(ctx context.Context, txs []models.TransactionRecord, groupSize int, onProgress ProgressFunc) error {
	if groupSize < 1 {
		groupSize = DefaultGroupSize
	}

	total := len(txs)
	processed := 0

	for start := 0; start < total; start += groupSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+groupSize, total)
		enriched := s.enrichGroup(ctx, txs[start:end])
		processed += len(enriched)

		progress := models.BatchProgress{
			ProcessedCount:  processed,
			TotalCount:      total,
			PercentComplete: percent(processed, total),
			Items:           enriched,
		}

		s.logger.Debug("Enrichment group completed",
			zap.Int("processed", processed),
			zap.Int("total", total),
		)

		if err := onProgress(progress); err != nil {
			return fmt.Errorf("%w: %w", ErrProgressAborted, err)
		}
	}

	return nil
}

// enrichGroup categorizes one group. Each task stores its own result and
// never returns an error, so Wait only joins.
func (s *EnrichmentService) enrichGroup(ctx context.Context, group []models.TransactionRecord) []models.TransactionRecord {
	results := make([]models.CategorizationResult, len(group))

	var g errgroup.Group
	for i, tx := range group {
		g.Go(func() error {
			results[i] = s.categorize(ctx, tx.Description)
			return nil
		})
	}
	_ = g.Wait()

	enriched := make([]models.TransactionRecord, len(group))
	for i, tx := range group {
		enriched[i] = tx.WithCategorization(results[i])
	}
	return enriched
}

func (s *EnrichmentService) categorize(ctx context.Context, description string) (result models.CategorizationResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Categorization panicked",
				zap.String("description", description),
				zap.Any("panic", r),
			)
			result = models.FallbackCategorization()
		}
	}()
	// in-flight calls outlive caller cancellation
	return s.categorizer.Categorize(context.WithoutCancel(ctx), description)
}

func percent(processed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(processed) * 100 / float64(total)))
}
