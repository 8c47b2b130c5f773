package redis

import (
	"context"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// ResultBus fans finished reports out to every instance holding a live
// stream for the requester.
type ResultBus struct {
	client *Client
	logger logging.Logger
}

// NewResultBus builds a bus on client.
func NewResultBus(client *Client, logger logging.Logger) *ResultBus {
	return &ResultBus{client: client, logger: logger}
}

// Channel is the Pub/Sub channel of a requester.
func (b *ResultBus) Channel(requesterID string) string {
	return b.client.KeyPrefix() + "results:" + requesterID
}

// Publish sends payload to the requester's channel.
func (b *ResultBus) Publish(ctx context.Context, requesterID string, payload []byte) error {
	n, err := b.client.Publish(ctx, b.Channel(requesterID), payload).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to publish result")
	}
	b.logger.Debug("result published", logging.String("uid", requesterID), logging.Int64("receivers", n))
	return nil
}

// Subscribe streams payloads for requesterID until ctx ends. The returned
// channel is closed when the subscription stops.
func (b *ResultBus) Subscribe(ctx context.Context, requesterID string) (<-chan []byte, error) {
	ps, err := b.client.Subscribe(ctx, b.Channel(requesterID))
	if err != nil {
		return nil, err
	}
	// Wait for the confirmation so no publish after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to subscribe")
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
