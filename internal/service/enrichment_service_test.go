package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"revelio-finance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCategorizer answers with the description as merchant after an
// optional per-description delay, and records peak concurrency.
type fakeCategorizer struct {
	delays map[string]time.Duration
	panics map[string]bool

	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	calls []string
}

func (f *fakeCategorizer) Categorize(ctx context.Context, description string) models.CategorizationResult {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, description)
	f.mu.Unlock()

	if d := f.delays[description]; d > 0 {
		time.Sleep(d)
	}
	if f.panics[description] {
		panic("backend exploded")
	}
	return models.CategorizationResult{MerchantProbable: "M-" + description, CategorySuggested: "Other"}
}

func records(descriptions ...string) []models.TransactionRecord {
	txs := make([]models.TransactionRecord, len(descriptions))
	for i, d := range descriptions {
		txs[i] = models.TransactionRecord{Date: "2024-01-01", Amount: -float64(i + 1), Description: d}
	}
	return txs
}

func descriptions(txs []models.TransactionRecord) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Description
	}
	return out
}

func TestEnrich_GroupOrdering(t *testing.T) {
	// later members finish first inside the group
	fake := &fakeCategorizer{delays: map[string]time.Duration{
		"A": 40 * time.Millisecond,
		"B": 30 * time.Millisecond,
		"C": 20 * time.Millisecond,
		"D": 10 * time.Millisecond,
	}}
	svc := NewEnrichmentService(fake, zap.NewNop())

	var events []models.BatchProgress
	err := svc.Enrich(context.Background(), records("A", "B", "C", "D", "E"), 4, func(p models.BatchProgress) error {
		events = append(events, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, 4, events[0].ProcessedCount)
	assert.Equal(t, 5, events[0].TotalCount)
	assert.Equal(t, 80, events[0].PercentComplete)
	assert.Equal(t, []string{"A", "B", "C", "D"}, descriptions(events[0].Items))

	assert.Equal(t, 5, events[1].ProcessedCount)
	assert.Equal(t, 100, events[1].PercentComplete)
	assert.Equal(t, []string{"E"}, descriptions(events[1].Items))

	for _, ev := range events {
		for _, tx := range ev.Items {
			require.True(t, tx.Enriched())
			assert.Equal(t, "M-"+tx.Description, *tx.MerchantProbable)
		}
	}
	assert.Equal(t, -1.0, events[0].Items[0].Amount)
	assert.LessOrEqual(t, fake.peak.Load(), int32(4))
}

func TestEnrich_GroupsRunConcurrently(t *testing.T) {
	delays := map[string]time.Duration{}
	for _, d := range []string{"A", "B", "C", "D"} {
		delays[d] = 20 * time.Millisecond
	}
	fake := &fakeCategorizer{delays: delays}

	err := NewEnrichmentService(fake, zap.NewNop()).Enrich(context.Background(), records("A", "B", "C", "D"), 4, func(models.BatchProgress) error { return nil })
	require.NoError(t, err)
	assert.Greater(t, fake.peak.Load(), int32(1))
}

func TestEnrich_DefaultGroupSize(t *testing.T) {
	fake := &fakeCategorizer{}
	var counts []int

	err := NewEnrichmentService(fake, zap.NewNop()).Enrich(context.Background(), records("1", "2", "3", "4", "5", "6", "7", "8", "9"), 0, func(p models.BatchProgress) error {
		counts = append(counts, len(p.Items))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 1}, counts)
}

func TestEnrich_PercentRounding(t *testing.T) {
	var percents []int
	err := NewEnrichmentService(&fakeCategorizer{}, zap.NewNop()).Enrich(context.Background(), records("a", "b", "c"), 1, func(p models.BatchProgress) error {
		percents = append(percents, p.PercentComplete)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{33, 67, 100}, percents)
}

func TestEnrich_Empty(t *testing.T) {
	called := false
	err := NewEnrichmentService(&fakeCategorizer{}, zap.NewNop()).Enrich(context.Background(), nil, 4, func(models.BatchProgress) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestEnrich_CallbackErrorStops(t *testing.T) {
	fake := &fakeCategorizer{}
	sendErr := errors.New("websocket: close sent")
	events := 0

	err := NewEnrichmentService(fake, zap.NewNop()).Enrich(context.Background(), records("A", "B", "C", "D", "E"), 2, func(models.BatchProgress) error {
		events++
		return sendErr
	})

	assert.ErrorIs(t, err, ErrProgressAborted)
	assert.ErrorIs(t, err, sendErr)
	assert.Equal(t, 1, events)
	assert.Len(t, fake.calls, 2)
}

func TestEnrich_ContextCancelledBetweenGroups(t *testing.T) {
	fake := &fakeCategorizer{}
	ctx, cancel := context.WithCancel(context.Background())

	err := NewEnrichmentService(fake, zap.NewNop()).Enrich(ctx, records("A", "B", "C"), 1, func(models.BatchProgress) error {
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.calls, 1)
}

func TestEnrich_PanicBecomesFallback(t *testing.T) {
	fake := &fakeCategorizer{panics: map[string]bool{"B": true}}
	var items []models.TransactionRecord

	err := NewEnrichmentService(fake, zap.NewNop()).Enrich(context.Background(), records("A", "B", "C"), 4, func(p models.BatchProgress) error {
		items = append(items, p.Items...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "M-A", *items[0].MerchantProbable)
	assert.Equal(t, models.UnknownMerchant, *items[1].MerchantProbable)
	assert.Equal(t, "M-C", *items[2].MerchantProbable)
}
