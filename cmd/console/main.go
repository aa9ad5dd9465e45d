package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/console"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "clinic-console",
		Short:        "Interactive practitioner session",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
				cfg.DataDir = dir
			}
			if backend, _ := cmd.Flags().GetString("store"); backend != "" {
				cfg.StoreBackend = backend
			}

			// Diagnostics go to stderr so they never interleave with prompts.
			level, _ := cmd.Flags().GetString("log-level")
			log := logging.New(level, logging.FormatConsole, os.Stderr)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := storage.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			c, err := clinic.Load(ctx, backend, clinic.WithLogger(log))
			if err != nil {
				_ = backend.Close()
				return err
			}
			defer c.Close()

			session := console.New(c, cmd.InOrStdin(), cmd.OutOrStdout(),
				console.WithPageSize(cfg.PageSize),
				console.WithLogger(log),
			)
			return session.Run(ctx)
		},
	}
	cmd.Flags().String("data-dir", "", "Directory holding the CSV data files (overrides DATA_DIR)")
	cmd.Flags().String("store", "", "Store backend: csv or postgres (overrides STORE_BACKEND)")
	cmd.Flags().String("log-level", "warn", "Log level for diagnostics written to stderr")
	return cmd
}
