package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"revelio-finance/internal/api"
	"revelio-finance/internal/api/handlers"
	"revelio-finance/internal/buildinfo"
	"revelio-finance/internal/service"
	"revelio-finance/pkg/auth"
	"revelio-finance/pkg/config"
	"revelio-finance/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var accessLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, appLogger, accessLog)
		},
	}

	cmd.Flags().BoolVar(&accessLog, "access-log", true, "log every HTTP request")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, appLogger *zap.Logger, accessLog bool) error {
	appLogger.Info("Starting Revelio Finance", zap.String("version", buildinfo.Version))

	completer, closeCompleter, err := service.NewCompleter(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("initializing completion backend: %w", err)
	}
	defer closeCompleter()

	parser := service.NewStatementParser(appLogger)
	categorizer := service.NewCategorizationService(completer, cfg.LLM.Timeout, appLogger)
	enricher := service.NewEnrichmentService(categorizer, appLogger)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtManager = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
		appLogger.Info("Bearer authentication enabled")
	} else {
		appLogger.Warn("JWT_SECRET_KEY is not set, API is unauthenticated")
	}

	app := api.SetupRouter(api.Handlers{
		Statement: handlers.NewStatementHandler(parser, appLogger),
		AI:        handlers.NewAIHandler(categorizer, appLogger),
		Stream:    handlers.NewStreamHandler(ctx, enricher, cfg.LLM.GroupSize, appLogger),
		Health:    handlers.NewHealthHandler(buildinfo.Version),
	}, api.RouterConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTManager:   jwtManager,
		AccessLog:    accessLog,
	}, appLogger)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
		return err
	}
	return nil
}
