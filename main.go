package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"holder-contest-system/config"
	"holder-contest-system/handlers"
	"holder-contest-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const programName = "holder-contest"

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, envErr, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, nil, err
	}
	if envErr != nil {
		logger.Info("⚠️  No .env file found, reading environment variables directly")
	}
	return cfg, logger, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the enforcement sweep and the snapshot job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	server := fiber.New(fiber.Config{
		AppName:               programName,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	handlers.SetupOpsRoutes(server, a.store, a.registry)
	handlers.SetupContestRoutes(server, &handlers.ContestAPI{
		Participants: a.participants,
		Checker:      a.checker,
		Contest:      a.contest,
		Ranking:      a.ranking,
		Sweep:        a.sweep,
		Mint:         cfg.TokenMint,
		MinUSD:       cfg.MinHoldUSD,
		DefaultDays:  cfg.ContestDaysDefault,
		IsAdmin:      cfg.IsAdmin,
		Logger:       logger,
	}, cfg.ServiceToken)

	go a.sweep.Run(ctx)

	sched, err := a.snapshots.Start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sched.Shutdown() }()

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- server.Listen(cfg.ListenAddr)
	}()

	logger.Info("✅ Server running", zap.String("addr", cfg.ListenAddr))
	logger.Info("✅ Enforcement sweep running", zap.Duration("every", cfg.SweepInterval()))

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

func sweepOnceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-once",
		Short: "Run a single enforcement cycle and print its report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			report, err := a.sweep.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return st.Close()
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveCmd := serveCommand()
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Token-holder contest service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, sweepOnceCommand(), migrateCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		stop()
		os.Exit(1)
	}
}
