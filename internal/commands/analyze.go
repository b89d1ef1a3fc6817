package commands

import (
	"fmt"

	"revelio-finance/internal/models"
	"revelio-finance/internal/service"
	"revelio-finance/pkg/logger"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand() *cobra.Command {
	var format string
	var groupSize int

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Parse a statement and enrich every transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatCSV {
				return fmt.Errorf("unsupported format %q (use json or csv)", format)
			}

			cfg, appLogger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			txs, err := parseStatementFile(args[0], appLogger)
			if err != nil {
				return err
			}

			completer, closeCompleter, err := service.NewCompleter(cmd.Context(), cfg, appLogger)
			if err != nil {
				return fmt.Errorf("initializing completion backend: %w", err)
			}
			defer closeCompleter()

			if !cmd.Flags().Changed("group-size") {
				groupSize = cfg.LLM.GroupSize
			}

			categorizer := service.NewCategorizationService(completer, cfg.LLM.Timeout, appLogger)
			enricher := service.NewEnrichmentService(categorizer, appLogger)

			enriched := make([]models.TransactionRecord, 0, len(txs))
			progress := cmd.ErrOrStderr()
			err = enricher.Enrich(cmd.Context(), txs, groupSize, func(p models.BatchProgress) error {
				enriched = append(enriched, p.Items...)
				_, err := fmt.Fprintf(progress, "[%3d%%] %d/%d transactions analyzed\n", p.PercentComplete, p.ProcessedCount, p.TotalCount)
				return err
			})
			if err != nil {
				return fmt.Errorf("enriching transactions: %w", err)
			}

			return writeRecords(cmd.OutOrStdout(), format, enriched, true)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or csv")
	cmd.Flags().IntVar(&groupSize, "group-size", service.DefaultGroupSize, "concurrent model calls per group")

	return cmd
}
