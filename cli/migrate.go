package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allyplatform/ally-config/engine/infra/postgres"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// MigrateCmd creates the migrate command.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply tenant override database migrations",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cfg, err := setupCommand(cmd)
	if err != nil {
		return err
	}
	if !cfg.DatabaseEnabled() {
		return fmt.Errorf("no tenant database configured; set database.conn_string or ALLY_DATABASE_CONN_STRING")
	}
	if err := postgres.ApplyMigrations(ctx, cfg.Database.DSN()); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("migrations applied")
	return nil
}
