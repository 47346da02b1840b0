package cli

import (
	"github.com/spf13/cobra"

	"github.com/allyplatform/ally-config/pkg/logger"
)

// RootCmd builds the ally-config command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ally-config",
		Short: "White-label configuration service",
		Long: "ally-config serves layered white-label configuration: file defaults, " +
			"environment overrides and per-tenant database overrides, resolved and " +
			"cached behind a versioned HTTP API.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("settings", "", "Path to the runtime settings file (YAML)")
	logger.RegisterFlags(root)
	root.AddCommand(
		ServeCmd(),
		MigrateCmd(),
		ValidateCmd(),
	)
	return root
}
