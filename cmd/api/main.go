package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/config"
	pkglogger "github.com/egner-npc/pengaduan-masyarakat-app/pkg/logger"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "pengaduan-api",
	Short:         "Pengaduan Masyarakat API",
	Long:          `Backend for citizen complaint reporting: accounts, sessions and complaint triage.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)

	// running the binary with no subcommand starts the server
	rootCmd.RunE = serveCmd.RunE
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := pkglogger.New(os.Stdout, cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	return cfg, logger, nil
}
