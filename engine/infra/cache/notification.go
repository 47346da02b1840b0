package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
	Close() error
}

// Subscriber defines the interface for subscribing to messages
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Close() error
}

// Message represents a pub/sub message
type Message struct {
	Channel string    `json:"channel"`
	Payload []byte    `json:"payload"`
	Time    time.Time `json:"time"`
}

// InvalidationEvent is broadcast whenever the reload/invalidation controller
// purges cache state, so every service instance and connected client can
// drop its local copies. The shared-storage "cross-tab" signal of the
// browser world maps to this event.
type InvalidationEvent struct {
	RecordID  string    `json:"record_id"`
	Scope     string    `json:"scope,omitempty"`
	Keys      []string  `json:"keys,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationSystem combines publisher and subscriber functionality for
// cache invalidation broadcasts.
type NotificationSystem interface {
	Publisher
	Subscriber
	PublishInvalidation(ctx context.Context, event *InvalidationEvent) error
	SubscribeInvalidations(ctx context.Context) (<-chan Message, error)
}

const (
	// DefaultNotificationBufferSize bounds the per-subscriber channel.
	DefaultNotificationBufferSize = 100

	invalidationChannelSuffix = ":invalidate"
)

// RedisNotificationSystem implements NotificationSystem on Redis pub/sub.
type RedisNotificationSystem struct {
	client     RedisInterface
	channel    string
	closeCh    chan struct{}
	wg         sync.WaitGroup
	closed     bool
	mu         sync.Mutex
	bufferSize int
}

// NewRedisNotificationSystem creates a Redis-backed notification system.
func NewRedisNotificationSystem(client RedisInterface, cfg *Config) (*RedisNotificationSystem, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	bufferSize := DefaultNotificationBufferSize
	if cfg != nil && cfg.NotificationBufferSize > 0 {
		bufferSize = cfg.NotificationBufferSize
	}
	return &RedisNotificationSystem{
		client:     client,
		channel:    cfg.keyPrefix() + invalidationChannelSuffix,
		closeCh:    make(chan struct{}),
		bufferSize: bufferSize,
	}, nil
}

// Publish sends a message to the specified channel.
func (ns *RedisNotificationSystem) Publish(ctx context.Context, channel string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := ns.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe subscribes to one or more channels and returns a message channel.
func (ns *RedisNotificationSystem) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one channel must be specified")
	}
	pubsub := ns.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to confirm subscription: %w", err)
	}
	msgChan := make(chan Message, ns.bufferSize) // Buffered to prevent blocking
	ns.wg.Add(1)
	go ns.receiveMessages(ctx, pubsub, msgChan)
	return msgChan, nil
}

// PublishInvalidation broadcasts an invalidation event on the deployment's
// invalidation channel.
func (ns *RedisNotificationSystem) PublishInvalidation(ctx context.Context, event *InvalidationEvent) error {
	return ns.Publish(ctx, ns.channel, event)
}

// SubscribeInvalidations subscribes to the deployment's invalidation
// channel.
func (ns *RedisNotificationSystem) SubscribeInvalidations(ctx context.Context) (<-chan Message, error) {
	return ns.Subscribe(ctx, ns.channel)
}

// Close shuts down the notification system.
func (ns *RedisNotificationSystem) Close() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.closed {
		return nil
	}
	ns.closed = true
	close(ns.closeCh)
	ns.wg.Wait()
	return nil
}

// receiveMessages forwards Redis pub/sub messages to the subscriber channel.
// Delivery is non-blocking: a slow consumer drops messages rather than
// stalling the receiver.
func (ns *RedisNotificationSystem) receiveMessages(
	ctx context.Context,
	pubsub *redis.PubSub,
	msgChan chan<- Message,
) {
	defer ns.wg.Done()
	defer close(msgChan)
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ns.closeCh:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			message := Message{
				Channel: msg.Channel,
				Payload: []byte(msg.Payload),
				Time:    time.Now(),
			}
			select {
			case msgChan <- message:
			default:
			}
		}
	}
}
