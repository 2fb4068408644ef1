package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/storefront/internal/crypto"
	"github.com/iudanet/storefront/internal/server"
	"github.com/iudanet/storefront/internal/server/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions once and exit",
		RunE:  runSessionsSweep,
	})

	return cmd
}

func runSessionsSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := server.NewLogger(cfg.Log, os.Stderr)
	ctx := cmd.Context()

	store, err := server.OpenStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	manager := session.NewManager(store, store, crypto.NewTokenGenerator(nil),
		session.Config{Lifetime: cfg.Auth.SessionLifetime}, logger)

	count, err := manager.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}

	logger.Info("Expired sessions swept", "count", count)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired sessions\n", count)
	return nil
}
