package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/storefront/internal/server/jwt"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin utilities",
	}

	token := &cobra.Command{
		Use:   "token",
		Short: "Print an admin bearer token for the maintenance endpoints",
		RunE:  runAdminToken,
	}
	token.Flags().String("subject", "ops", "Token subject")
	token.Flags().Duration("ttl", time.Hour, "Token lifetime")

	cmd.AddCommand(token)
	return cmd
}

func runAdminToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Admin.JWTSecret == "" {
		return errors.New("admin jwt secret is not configured")
	}

	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := jwt.NewService(cfg.Admin.JWTSecret).Issue(subject, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
