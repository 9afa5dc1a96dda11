package queue

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subscribe opens a durable pull subscription bound to streamName,
// grounded on the PullSubscribe/BindStream call in
// apps/privacy-service/internal/consumer/consent_consumer.go.
func (c *Client) Subscribe(subject, durable, streamName string) (*nats.Subscription, error) {
	return c.JS.PullSubscribe(subject, durable, nats.BindStream(streamName))
}

// Run fetches messages in batches and hands each to handle until ctx is
// cancelled. handle is responsible for Ack/Nak/Term — see each
// consumer's processMessage. Shared by the coordinator and exporter
// consumers, which otherwise duplicated this identical loop.
func Run(ctx context.Context, sub *nats.Subscription, batchSize int, logger *zap.Logger, handle func(ctx context.Context, msg *nats.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msgs, err := sub.Fetch(batchSize, nats.Context(ctx))
			if err != nil {
				continue
			}
			for _, msg := range msgs {
				handle(ctx, msg)
			}
		}
	}
}
