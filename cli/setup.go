package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allyplatform/ally-config/pkg/appconfig"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// setupCommand loads runtime settings and attaches a configured logger to
// the command context. Every subcommand starts here.
func setupCommand(cmd *cobra.Command) (context.Context, *appconfig.Config, error) {
	settingsPath, err := cmd.Flags().GetString("settings")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settings flag: %w", err)
	}
	cfg, err := appconfig.Load(settingsPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.SetupFromFlags(cmd)
	if err != nil {
		return nil, nil, err
	}
	ctx := logger.ContextWithLogger(cmd.Context(), log)
	return ctx, cfg, nil
}
