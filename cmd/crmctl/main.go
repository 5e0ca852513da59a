// Command crmctl runs maintenance tasks against the CRM database: schema
// migrations and aggregate reconciliation.
package main

import (
	"fmt"
	"os"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals carries the persistent flags shared by every subcommand
type globals struct {
	logLevel string
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "CRM maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(migrateCmd(g), reconcileCmd(g))
	return cmd
}

func (g *globals) logger() (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      g.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
}

// setup loads configuration and a console logger
func (g *globals) setup() (*config.Config, *zap.Logger, error) {
	log, err := g.logger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, log, nil
}
