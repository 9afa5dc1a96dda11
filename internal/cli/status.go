package cli

import (
	"context"
	"fmt"
)

// QueueStatus reports one stream's backlog depth.
type QueueStatus struct {
	Stream  string
	Pending uint64
}

// Report is the "status" command's output (spec §6, supplemented per
// SPEC_FULL.md §C.3): whether the Control API is reachable, plus the
// pending-message depth of each named stream. original_source's CLI has no
// Go equivalent to crib from directly; this composes the two health signals
// the CLI already has clients for rather than introducing a new one.
type Report struct {
	ControlAPIUp bool
	Queues       []QueueStatus
}

// Status implements the CLI's "status" command.
func Status(ctx context.Context, deps *Deps, streams []string) (Report, error) {
	report := Report{ControlAPIUp: deps.Control.HeartBeat(ctx) == nil}

	for _, stream := range streams {
		info, err := deps.Queue.JS.StreamInfo(stream)
		if err != nil {
			return report, fmt.Errorf("cli: stream info for %s: %w", stream, err)
		}
		report.Queues = append(report.Queues, QueueStatus{Stream: stream, Pending: info.State.Msgs})
	}
	return report, nil
}
