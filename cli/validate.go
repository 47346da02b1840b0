package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allyplatform/ally-config/engine/configstore"
	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// ValidateCmd creates the validate command. It checks a base document file
// against the configuration schema without starting the server.
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a base configuration document",
		Long: "Validate a configuration document file against the schema and " +
			"report how it differs from the compiled-in defaults.",
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setupCommand(cmd)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	path := cfg.Store.Path
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no document to validate; pass a file or set store.path")
	}
	store := configstore.NewStore(path, nil)
	doc, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, configstore.ErrConfigValidation) {
			return fmt.Errorf("document %s failed schema validation: %w", path, err)
		}
		return fmt.Errorf("document %s could not be loaded: %w", path, err)
	}
	diff := document.Compare(configstore.DefaultDocument(), doc)
	if diff.Empty() {
		log.Info("document valid, identical to compiled-in defaults", "path", path)
		return nil
	}
	log.Info("document valid", "path", path, "changes", diff.String())
	return nil
}
