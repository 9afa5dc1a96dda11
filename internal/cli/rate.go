package cli

import (
	"context"
	"fmt"
)

// StartQueue implements the CLI's "start <queue>" command: sets the named
// queue's token-bucket refill rate to start extraction, rejecting a rate of
// zero. Mirrors pixl_cli/main.py's start_ehr_extraction, which raises
// rather than silently starting a permanently-stalled consumer.
func StartQueue(ctx context.Context, client *ControlClient, queueName string, rate int) error {
	if rate == 0 {
		return fmt.Errorf("cli: cannot start %s with extract rate of 0, must be > 0", queueName)
	}
	return client.SetRate(ctx, queueName, rate)
}

// UpdateRate implements the CLI's "update <queue>" command: adjusts an
// already-running queue's refill rate. Unlike StartQueue, a rate of zero is
// accepted here — it pauses extraction without tearing the consumer down,
// matching spec §4.3's r=0 semantics for an in-flight queue.
func UpdateRate(ctx context.Context, client *ControlClient, queueName string, rate int) error {
	return client.SetRate(ctx, queueName, rate)
}
