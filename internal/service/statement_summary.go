package service

import (
	"revelio-finance/internal/models"

	"github.com/shopspring/decimal"
)

type StatementSummary struct {
	Count   int             `json:"count"`
	Debits  decimal.Decimal `json:"totalDebit"`
	Credits decimal.Decimal `json:"totalCredit"`
	Net     decimal.Decimal `json:"net"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
}

// Summarize totals a statement. Debits are reported as a negative sum.
func Summarize(txs []models.TransactionRecord) StatementSummary {
	summary := StatementSummary{
		Count:   len(txs),
		Debits:  decimal.Zero,
		Credits: decimal.Zero,
	}

	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount).Round(2)
		if amount.IsNegative() {
			summary.Debits = summary.Debits.Add(amount)
		} else {
			summary.Credits = summary.Credits.Add(amount)
		}

		// YYYY-MM-DD sorts lexically
		if summary.From == "" || tx.Date < summary.From {
			summary.From = tx.Date
		}
		if tx.Date > summary.To {
			summary.To = tx.Date
		}
	}

	summary.Net = summary.Credits.Add(summary.Debits)
	return summary
}
