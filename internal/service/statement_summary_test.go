package service

import (
	"testing"

	"revelio-finance/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	txs := []models.TransactionRecord{
		{Date: "2024-01-12", Amount: 2500.00},
		{Date: "2024-01-05", Amount: -15.10},
		{Date: "2024-01-20", Amount: -42.37},
		{Date: "2024-01-06", Amount: 0.1},
		{Date: "2024-01-07", Amount: 0.2},
	}

	s := Summarize(txs)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, "-57.47", s.Debits.StringFixed(2))
	assert.Equal(t, "2500.30", s.Credits.StringFixed(2))
	assert.Equal(t, "2442.83", s.Net.StringFixed(2))
	assert.Equal(t, "2024-01-05", s.From)
	assert.Equal(t, "2024-01-20", s.To)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.True(t, s.Net.IsZero())
	assert.Empty(t, s.From)
}
