package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unalone/chat-service/internal/app"
	"github.com/unalone/chat-service/internal/config"
	"github.com/unalone/chat-service/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
		natsURL    string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "chat-service",
		Short: "Room-scoped real-time chat service",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLog := log.New(logLevel)

			cfg, path, err := config.Load(bootstrapLog, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Flags override file and environment values.
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = dbPath
			}
			if cmd.Flags().Changed("nats-url") {
				cfg.NATSURL = natsURL
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting chat service")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	rootCmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS URL for multi-instance fan-out")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
