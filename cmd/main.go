package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/insightpath-backend/internal/app"
	"github.com/yungbote/insightpath-backend/internal/platform/envutil"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

var (
	configPath string
	logMode    string
	demoUser   string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "insightpath",
		Short:         "Adaptive learning progression API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./config.yaml if present)")
	root.PersistentFlags().StringVar(&logMode, "log-mode", "", "development or production (overrides log.mode)")

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in domain catalog",
		RunE:  runSeed,
	}
	seed.Flags().StringVar(&demoUser, "demo-user", "", "also ensure a learner with this email")

	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP API", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Apply the database schema", RunE: runMigrate},
		seed,
	)
	return root
}

func setup() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return app.Config{}, nil, err
	}
	mode := logMode
	if mode == "" {
		mode = envutil.String("LOG_MODE", cfg.Log.Mode)
	}
	log, err := logger.New(mode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if err := app.Migrate(cfg, log); err != nil {
		return err
	}
	log.Info("schema up to date")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	return a.Seed(ctx, demoUser)
}
