package coordinator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
	"github.com/UCLH-Foundry/PIXL/internal/queue"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

const (
	subjectImagingStudy = "pixl.imaging.study"
	durableCoordinator  = "pixl-study-coordinator"
)

// Consumer is the NATS-facing half of the Study Coordinator, grounded on
// apps/privacy-service/internal/consumer/consent_consumer.go's
// Start/processMessage/processEvent split.
type Consumer struct {
	queueClient *queue.Client
	coordinator *Coordinator
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewConsumer constructs a Consumer.
func NewConsumer(q *queue.Client, c *Coordinator, logger *zap.Logger) *Consumer {
	return &Consumer{
		queueClient: q,
		coordinator: c,
		logger:      logger,
		tracer:      otel.Tracer("pixl-study-coordinator"),
	}
}

// Start opens the durable pull subscription and runs the fetch loop until
// ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, streamName string) error {
	sub, err := c.queueClient.Subscribe(subjectImagingStudy, durableCoordinator, streamName)
	if err != nil {
		return fmt.Errorf("coordinator consumer: subscribe: %w", err)
	}

	c.logger.Info("study coordinator consumer started",
		zap.String("subject", subjectImagingStudy),
		zap.String("durable", durableCoordinator),
	)

	queue.Run(ctx, sub, 10, c.logger, c.processMessage)
	return nil
}

// processMessage handles Ack/Nak/Term, keeping processEvent free of any
// broker dependency so it can be unit-tested directly.
func (c *Consumer) processMessage(ctx context.Context, msg *nats.Msg) {
	ctx, span := c.tracer.Start(ctx, "coordinator.process_message")
	defer span.End()

	err := c.processEvent(ctx, msg.Data)
	if err == nil {
		msg.Ack()
		return
	}

	kind, ok := errkind.As(err)
	if !ok {
		c.logger.Error("unclassified error processing study message, requeueing", zap.Error(err))
		msg.Nak()
		return
	}

	switch kind.Kind {
	case errkind.Programmer:
		// Fatal to this task; surfaced, not acked. Left pending so it
		// redelivers after ack-wait rather than being silently dropped.
		c.logger.Error("programmer error processing study message", zap.Error(err))
	case errkind.Discard, errkind.Configuration:
		c.logger.Warn("discarding study message", zap.Error(err))
		msg.Term()
	default:
		c.logger.Warn("requeueing study message", zap.Error(err))
		msg.Nak()
	}
}

func (c *Consumer) processEvent(ctx context.Context, data []byte) error {
	var msg registry.StudyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errkind.Discardf(err, "malformed study message")
	}
	return c.coordinator.ProcessEvent(ctx, msg)
}
