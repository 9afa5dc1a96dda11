// Package queue is the Work Queues adapter (spec §4.2): durable,
// at-least-once delivery from the CLI to the Study Coordinator, and to the
// Exporter. The Anonymisation Engine is reached over HTTP, not a queue.
//
// The spec's "AMQP broker" contract (durable queues, manual ack/nack,
// redelivery) is implemented here on NATS JetStream rather than an AMQP
// client — grounded on packages/go-core/natsclient, the only message
// broker client anywhere in the retrieval pack. JetStream's pull-consumer
// model with manual Ack/Nak/Term maps directly onto the spec's
// requeue/discard/poison-pill vocabulary; see SPEC_FULL.md §B for the
// explicit substitution note.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Client wraps a JetStream connection, adapted from
// packages/go-core/natsclient/client.go.
type Client struct {
	Conn   *nats.Conn
	JS     nats.JetStreamContext
	logger *zap.Logger
}

// Connect dials the broker at url and obtains a JetStream context.
func Connect(url string, logger *zap.Logger) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("queue: connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: jetstream context: %w", err)
	}

	return &Client{Conn: conn, JS: js, logger: logger}, nil
}

// Close drains in-flight messages before disconnecting, falling back to a
// hard close if draining fails — the same shutdown sequence as
// natsclient.Client.Close.
func (c *Client) Close() {
	if err := c.Conn.Drain(); err != nil {
		c.logger.Warn("queue: drain failed, closing directly", zap.Error(err))
		c.Conn.Close()
		return
	}
}

// Publish sends payload to subject, durable per the bound stream's
// retention policy.
func (c *Client) Publish(ctx context.Context, subject string, payload []byte) error {
	_, err := c.JS.Publish(subject, payload, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("queue: publish %s: %w", subject, err)
	}
	return nil
}
