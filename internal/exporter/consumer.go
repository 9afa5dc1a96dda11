package exporter

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
)

const (
	subjectExportPatient = "pixl.export.patient"
	durableExporter      = "pixl-exporter"
)

// Consumer is the NATS-facing half of the Exporter, grounded on
// apps/privacy-service/internal/consumer/consent_consumer.go's
// Start/processMessage/processEvent split, as internal/coordinator.Consumer
// already is.
type Consumer struct {
	queueClient *queue.Client
	exporter    *Exporter
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewConsumer constructs a Consumer.
func NewConsumer(q *queue.Client, e *Exporter, logger *zap.Logger) *Consumer {
	return &Consumer{
		queueClient: q,
		exporter:    e,
		logger:      logger,
		tracer:      otel.Tracer("pixl-exporter"),
	}
}

// Start opens the durable pull subscription and runs the fetch loop until
// ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, streamName string) error {
	sub, err := c.queueClient.Subscribe(subjectExportPatient, durableExporter, streamName)
	if err != nil {
		return fmt.Errorf("exporter consumer: subscribe: %w", err)
	}

	c.logger.Info("exporter consumer started",
		zap.String("subject", subjectExportPatient),
		zap.String("durable", durableExporter),
	)

	queue.Run(ctx, sub, 10, c.logger, c.processMessage)
	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg *nats.Msg) {
	ctx, span := c.tracer.Start(ctx, "exporter.process_message")
	defer span.End()

	err := c.processEvent(ctx, msg.Data)
	if err == nil {
		msg.Ack()
		return
	}

	kind, ok := errkind.As(err)
	if !ok {
		c.logger.Error("unclassified error exporting study, requeueing", zap.Error(err))
		msg.Nak()
		return
	}

	switch kind.Kind {
	case errkind.AlreadyExported:
		c.logger.Info("study already exported, acking without re-upload", zap.Error(err))
		msg.Ack()
	case errkind.Programmer:
		// Fatal to this task; surfaced, not acked. Left pending so it
		// redelivers after ack-wait rather than being silently dropped.
		c.logger.Error("programmer error exporting study", zap.Error(err))
	case errkind.Discard, errkind.Configuration:
		c.logger.Warn("discarding export message", zap.Error(err))
		msg.Term()
	default:
		c.logger.Warn("requeueing export message", zap.Error(err))
		msg.Nak()
	}
}

func (c *Consumer) processEvent(ctx context.Context, data []byte) error {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errkind.Discardf(err, "malformed export message")
	}
	return c.exporter.ExportStudy(ctx, msg)
}
