package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"revelio-finance/internal/models"
	"revelio-finance/internal/service"
	"revelio-finance/internal/writer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func newParseCommand() *cobra.Command {
	var format string
	var summary bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an OFX/QFX statement without enrichment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatCSV {
				return fmt.Errorf("unsupported format %q (use json or csv)", format)
			}

			txs, err := parseStatementFile(args[0], zap.NewNop())
			if err != nil {
				return err
			}

			if err := writeRecords(cmd.OutOrStdout(), format, txs, false); err != nil {
				return err
			}
			if summary {
				printSummary(cmd.ErrOrStderr(), service.Summarize(txs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or csv")
	cmd.Flags().BoolVar(&summary, "summary", false, "print totals to stderr")

	return cmd
}

func parseStatementFile(path string, log *zap.Logger) ([]models.TransactionRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}

	txs, err := service.NewStatementParser(log).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return txs, nil
}

func writeRecords(out io.Writer, format string, txs []models.TransactionRecord, enriched bool) error {
	if format == formatCSV {
		w := &writer.CSVWriter{IncludeEnrichment: enriched}
		return w.Write(out, txs)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(txs)
}

func printSummary(out io.Writer, s service.StatementSummary) {
	fmt.Fprintf(out, "Transactions: %d (%s to %s)\n", s.Count, s.From, s.To)
	fmt.Fprintf(out, "Debits:       %s\n", s.Debits.StringFixed(2))
	fmt.Fprintf(out, "Credits:      %s\n", s.Credits.StringFixed(2))
	fmt.Fprintf(out, "Net:          %s\n", s.Net.StringFixed(2))
}
