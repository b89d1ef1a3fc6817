package commands

import (
	"fmt"
	"os"

	"revelio-finance/internal/buildinfo"
	"revelio-finance/pkg/config"
	"revelio-finance/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "revelio",
		Short:   "Bank statement parsing and AI transaction enrichment",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				return os.Setenv(config.PathEnv, configPath)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides "+config.PathEnv+")")

	rootCmd.AddCommand(
		newServeCommand(),
		newParseCommand(),
		newCategorizeCommand(),
		newAnalyzeCommand(),
		newTokenCommand(),
	)

	return rootCmd
}

// loadRuntime loads configuration and initializes the global logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(cfg.Logger.Level); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, logger.Get(), nil
}
