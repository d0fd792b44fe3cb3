package redis

// Package redis provides Redis-based adapters for the job board system.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/openhire/jobboard-api/internal/core"
)

// DefaultChannelPrefix is the pub/sub channel prefix for user notifications.
const DefaultChannelPrefix = "notify:user:"

// Notifier publishes lifecycle events to Redis pub/sub, one channel per
// recipient. It implements core.Notifier. Delivery is fire-and-forget;
// subscribers that are offline simply miss the message.
type Notifier struct {
	client redis.UniversalClient
	prefix string
}

// NewNotifier creates a new Redis-based notifier.
func NewNotifier(client redis.UniversalClient) *Notifier {
	return &Notifier{
		client: client,
		prefix: DefaultChannelPrefix,
	}
}

// NewNotifierWithPrefix creates a Redis notifier with a custom channel prefix.
func NewNotifierWithPrefix(client redis.UniversalClient, prefix string) *Notifier {
	return &Notifier{
		client: client,
		prefix: prefix,
	}
}

// Notify publishes the event to the recipient's channel.
func (n *Notifier) Notify(ctx context.Context, event core.Event) error {
	if event.UserID == "" {
		return errors.New("event recipient cannot be empty")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channel := n.prefix + event.UserID
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

var _ core.Notifier = (*Notifier)(nil)
