package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNotificationSystem(t *testing.T) {
	t.Run("Should deliver invalidation events to subscribers", func(t *testing.T) {
		ctx := testCtx(t)
		_, client := testRedis(t)
		cfg := &Config{KeyPrefix: "test:config"}
		ns, err := NewRedisNotificationSystem(client, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ns.Close() })

		messages, err := ns.SubscribeInvalidations(ctx)
		require.NoError(t, err)

		event := &InvalidationEvent{
			RecordID:  "rec-1",
			Keys:      []string{"base/full"},
			Reason:    "reload",
			Timestamp: time.Now().UTC(),
		}
		require.NoError(t, ns.PublishInvalidation(ctx, event))

		select {
		case msg := <-messages:
			var received InvalidationEvent
			require.NoError(t, json.Unmarshal(msg.Payload, &received))
			assert.Equal(t, "rec-1", received.RecordID)
			assert.Equal(t, "reload", received.Reason)
			assert.Equal(t, []string{"base/full"}, received.Keys)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for invalidation event")
		}
	})

	t.Run("Should require a channel on Subscribe", func(t *testing.T) {
		_, client := testRedis(t)
		ns, err := NewRedisNotificationSystem(client, &Config{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = ns.Close() })
		_, err = ns.Subscribe(testCtx(t))
		assert.Error(t, err)
	})

	t.Run("Should reject a nil client", func(t *testing.T) {
		_, err := NewRedisNotificationSystem(nil, &Config{})
		assert.Error(t, err)
	})

	t.Run("Should close idempotently", func(t *testing.T) {
		_, client := testRedis(t)
		ns, err := NewRedisNotificationSystem(client, &Config{})
		require.NoError(t, err)
		require.NoError(t, ns.Close())
		assert.NoError(t, ns.Close())
	})
}
