package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/storefront/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront authentication and session server",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Path to YAML config file")
	config.RegisterFlags(root.PersistentFlags())

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("Storefront Server\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		Version, BuildDate, GitCommit))

	root.AddCommand(newServeCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newAdminCmd())
	root.AddCommand(newMigrateCmd())

	return root
}

// loadConfig собирает конфигурацию: defaults -> файл -> env -> флаги
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}
