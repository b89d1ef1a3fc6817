package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"revelio-finance/internal/models"
)

// CSVWriter writes transaction records as CSV. Enrichment columns are empty
// for records that have not been categorized.
type CSVWriter struct {
	IncludeEnrichment bool
}

func (w *CSVWriter) Write(out io.Writer, txs []models.TransactionRecord) error {
	writer := csv.NewWriter(out)

	header := []string{"Date", "Amount", "Description"}
	if w.IncludeEnrichment {
		header = append(header, "Merchant", "Category", "City")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, tx := range txs {
		row := []string{
			tx.Date,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Description,
		}
		if w.IncludeEnrichment {
			row = append(row, deref(tx.MerchantProbable), deref(tx.CategorySuggested), deref(tx.City))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
