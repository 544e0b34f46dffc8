package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inventiv/ivs/internal/config"
	"github.com/inventiv/ivs/internal/mockapi"
)

func newDemoCmd() *cobra.Command {
	var (
		cfg  = mockapi.Config{Dataset: mockapi.DefaultDataset()}
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve a mock control plane for trying ivs out",
		Long: `demo serves seeded instances, users and action logs over the search and
change stream endpoints, advancing instance lifecycles in the background.

Point ivs at it with:
  ivs --endpoint http://` + mockapi.DefaultAddr,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := config.ParseLevel(*ivsFlags.LogLevel)
			if err != nil {
				return err
			}
			cfg.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cfg.Dataset.Seed = seed

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serveDemo(ctx, cfg)
		},
	}

	ff := cmd.Flags()
	ff.StringVar(&cfg.Addr, "addr", mockapi.DefaultAddr, "Listen address")
	ff.StringVar(&cfg.Token, "token", "", "Require this bearer token")
	ff.Uint64Var(&seed, "seed", cfg.Dataset.Seed, "Dataset seed")
	ff.IntVar(&cfg.Dataset.Instances, "instances", cfg.Dataset.Instances, "Number of seeded instances")
	ff.IntVar(&cfg.Dataset.Users, "users", cfg.Dataset.Users, "Number of seeded users")
	ff.IntVar(&cfg.Dataset.ActionLogs, "actions", cfg.Dataset.ActionLogs, "Number of seeded action logs")
	ff.DurationVar(&cfg.MutateEvery, "mutate", 2*time.Second, "Lifecycle mutation period, negative disables")

	return cmd
}

func serveDemo(ctx context.Context, cfg mockapi.Config) error {
	start := time.Now()
	s, err := mockapi.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to seed mock control plane: %w", err)
	}
	defer func() { _ = s.Close() }()
	cfg.Logger.Info("dataset seeded",
		"instances", cfg.Dataset.Instances,
		"users", cfg.Dataset.Users,
		"actions", cfg.Dataset.ActionLogs,
		"took", time.Since(start).Round(time.Millisecond),
	)

	return s.Serve(ctx)
}
