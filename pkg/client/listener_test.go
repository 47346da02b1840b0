package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/pkg/logger"
)

func TestClientListen(t *testing.T) {
	t.Run("Should purge the local cache on an invalidation broadcast", func(t *testing.T) {
		ctx, cancel := context.WithCancel(logger.ContextWithLogger(t.Context(), logger.NewForTests()))
		defer cancel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"data": remoteDoc(), "message": "Success"})
		}))
		t.Cleanup(srv.Close)

		mr := miniredis.RunT(t)
		redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = redisClient.Close() })
		ns, err := cache.NewRedisNotificationSystem(redisClient, &cache.Config{KeyPrefix: "test:config"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = ns.Close() })

		c := New(srv.URL, WithCacheTTL(time.Hour))
		listenErr := make(chan error, 1)
		go func() { listenErr <- c.Listen(ctx, ns) }()

		c.Config(ctx)
		c.Config(ctx)
		require.Equal(t, int64(1), hits.Load())

		// Republish until the listener's subscription is live and the purge
		// shows up as a refetch.
		require.Eventually(t, func() bool {
			_ = ns.PublishInvalidation(ctx, &cache.InvalidationEvent{
				RecordID: "rec-1", Reason: "reload", Timestamp: time.Now().UTC(),
			})
			c.Config(ctx)
			return hits.Load() >= 2
		}, 2*time.Second, 20*time.Millisecond)

		cancel()
		select {
		case err := <-listenErr:
			if err != nil {
				assert.ErrorIs(t, err, context.Canceled)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("listener did not stop on context cancel")
		}
	})
}
