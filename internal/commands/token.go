package commands

import (
	"fmt"

	"revelio-finance/pkg/auth"
	"revelio-finance/pkg/config"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token for the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if !cfg.AuthEnabled() {
				return fmt.Errorf("JWT_SECRET_KEY is not set, authentication is disabled")
			}

			token, err := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration).GenerateToken(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
