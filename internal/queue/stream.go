package queue

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Stream names. These are fixed constants: the worker binaries provision
// and bind to them directly, and only pixlctl's stop command accepts a
// different stream name (its --stream flag).
const (
	StreamImagingStudy   = "PIXL_IMAGING_STUDY"
	StreamExportPatient  = "PIXL_EXPORT_PATIENT"
)

// StreamSpec describes one JetStream stream to provision.
type StreamSpec struct {
	Name     string
	Subjects []string
}

// ProvisionStreams idempotently creates (or updates) every stream in specs,
// grounded on packages/go-core/natsclient/stream.go's ProvisionStreams.
func (c *Client) ProvisionStreams(specs []StreamSpec) error {
	for _, spec := range specs {
		_, err := c.JS.StreamInfo(spec.Name)
		switch {
		case err == nil:
			continue
		case err == nats.ErrStreamNotFound:
			_, err = c.JS.AddStream(&nats.StreamConfig{
				Name:      spec.Name,
				Subjects:  spec.Subjects,
				Retention: nats.WorkQueuePolicy,
				Storage:   nats.FileStorage,
			})
			if err != nil {
				return fmt.Errorf("queue: provisioning stream %s: %w", spec.Name, err)
			}
			c.logger.Info("stream provisioned", zap.String("stream", spec.Name))
		default:
			return fmt.Errorf("queue: checking stream %s: %w", spec.Name, err)
		}
	}
	return nil
}
