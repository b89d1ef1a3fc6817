package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"revelio-finance/internal/service"
	"revelio-finance/pkg/logger"

	"github.com/spf13/cobra"
)

func newCategorizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <description>",
		Short: "Categorize a single transaction memo with the configured backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.TrimSpace(strings.Join(args, " "))
			if description == "" {
				return fmt.Errorf("description cannot be empty")
			}

			cfg, appLogger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			completer, closeCompleter, err := service.NewCompleter(cmd.Context(), cfg, appLogger)
			if err != nil {
				return fmt.Errorf("initializing completion backend: %w", err)
			}
			defer closeCompleter()

			result := service.NewCategorizationService(completer, cfg.LLM.Timeout, appLogger).
				Categorize(cmd.Context(), description)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
