// Package reload resolves spec §9's open design point on cache refresh
// timing: a Redis pub/sub channel lets the administrative CLI tell a
// running daemon its cache snapshot is stale immediately after a commit,
// instead of the daemon polling or only refreshing on SIGHUP.
package reload

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying reload notifications.
const Channel = "consulns:reload"

// Publisher announces that the store has changed and cached snapshots
// should be rebuilt.
type Publisher struct {
	client *redis.Client
}

// NewPublisher wraps an existing Redis client as a Publisher.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends one reload notification naming zone (the zone whose
// commit triggered it, for log context on the receiving end; empty means
// "reload everything").
func (p *Publisher) Publish(ctx context.Context, zone string) error {
	return p.client.Publish(ctx, Channel, zone).Err()
}

// Subscriber listens for reload notifications and invokes a callback for
// each one received.
type Subscriber struct {
	client *redis.Client
	pubsub *redis.PubSub
	log    *slog.Logger
}

// NewSubscriber subscribes client to the reload channel.
func NewSubscriber(client *redis.Client, log *slog.Logger) *Subscriber {
	return &Subscriber{client: client, pubsub: client.Subscribe(context.Background(), Channel), log: log}
}

// Run blocks, invoking onReload(zone) for every notification received,
// until ctx is cancelled or the subscription's channel closes.
func (s *Subscriber) Run(ctx context.Context, onReload func(zone string)) error {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return s.pubsub.Close()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.log.Info("cache reload notification received", "zone", msg.Payload)
			onReload(msg.Payload)
		}
	}
}

// Close releases the underlying subscription.
func (s *Subscriber) Close() error {
	return s.pubsub.Close()
}
