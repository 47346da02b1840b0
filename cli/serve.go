package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/allyplatform/ally-config/engine/configstore"
	"github.com/allyplatform/ally-config/engine/configsvc"
	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/engine/infra/postgres"
	"github.com/allyplatform/ally-config/engine/infra/server"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// ServeCmd creates the serve command.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the configuration server",
		Long:    "Start the HTTP server that resolves and serves white-label configuration.",
		RunE:    runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cfg, err := setupCommand(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx)

	store := configstore.NewStore(cfg.Store.Path, nil)
	if _, err := store.Load(ctx); err != nil {
		log.Warn("base document load failed, serving fallback defaults", "error", err)
	}

	var (
		shared   cache.RedisInterface
		notifier cache.NotificationSystem
	)
	if cfg.RedisEnabled() {
		redisConn, err := cache.NewRedis(ctx, &cfg.Cache)
		if err != nil {
			log.Warn("shared cache tier unavailable, running in-process only", "error", err)
		} else {
			defer redisConn.Close()
			shared = redisConn
			ns, err := cache.NewRedisNotificationSystem(redisConn, &cfg.Cache)
			if err != nil {
				log.Warn("invalidation broadcasts disabled", "error", err)
			} else {
				defer ns.Close()
				notifier = ns
			}
		}
	}
	configCache := cache.NewConfigCache(&cfg.Cache, shared)

	opts := []configsvc.Option{}
	if cfg.DatabaseEnabled() {
		pgStore, err := postgres.NewStore(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to tenant override database: %w", err)
		}
		defer pgStore.Close(ctx)
		if err := postgres.ApplyMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("applying tenant override migrations: %w", err)
		}
		opts = append(opts, configsvc.WithTenantRepository(postgres.NewTenantRepo(pgStore)))
	} else {
		log.Info("no tenant database configured, serving base scope only")
	}

	service := configsvc.NewService(store, configCache, opts...)
	controller := configsvc.NewController(service, notifier)

	if notifier != nil {
		if err := listenForInvalidations(ctx, notifier, configCache); err != nil {
			log.Warn("invalidation listener failed to start", "error", err)
		}
	}

	srv, err := server.NewServer(ctx, cfg, service, controller)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}

// listenForInvalidations purges the in-process tier when another instance
// broadcasts a purge. The shared tier was already cleared by the
// originator.
func listenForInvalidations(
	ctx context.Context,
	notifier cache.NotificationSystem,
	configCache *cache.ConfigCache,
) error {
	messages, err := notifier.SubscribeInvalidations(ctx)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With("component", "invalidation_listener")
	go func() {
		for msg := range messages {
			var event cache.InvalidationEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Warn("dropping malformed invalidation event", "error", err)
				continue
			}
			configCache.InvalidateLocal(event.Keys...)
			log.Debug("applied invalidation broadcast",
				"record_id", event.RecordID,
				"reason", event.Reason,
				"keys", len(event.Keys),
			)
		}
	}()
	return nil
}
