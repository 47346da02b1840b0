package client

import (
	"context"
	"encoding/json"

	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// InvalidationFeed is the subset of the notification system a client needs
// to follow purge broadcasts.
type InvalidationFeed interface {
	SubscribeInvalidations(ctx context.Context) (<-chan cache.Message, error)
}

// Listen follows the invalidation broadcast and purges the local cache
// whenever the service announces a reload or cache clear, so the next read
// fetches the new state instead of waiting out the TTL. Blocks until the
// context is canceled or the feed closes.
func (c *Client) Listen(ctx context.Context, feed InvalidationFeed) error {
	messages, err := feed.SubscribeInvalidations(ctx)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With("component", "config_client")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event cache.InvalidationEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Warn("dropping malformed invalidation event", "error", err)
				continue
			}
			c.Purge()
			log.Debug("purged local configuration cache",
				"record_id", event.RecordID, "reason", event.Reason)
		}
	}
}
