package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/queue"
)

// Stop implements the CLI's "stop" command: drains every currently-queued
// message on subject to a checkpoint file, so a later "populate" (without
// --no-restart) picks up exactly where extraction left off, matching
// pixl_cli/main.py's consume_all_messages_and_save_csv_file.
func Stop(ctx context.Context, deps *Deps, subject, durable, streamName string) (int, error) {
	sub, err := deps.Queue.Subscribe(subject, durable, streamName)
	if err != nil {
		return 0, fmt.Errorf("cli: subscribing to %s: %w", subject, err)
	}

	statePath := stateFilePath(subject)
	n, err := queue.DrainToFile(ctx, sub, statePath)
	if err != nil {
		return n, fmt.Errorf("cli: draining %s: %w", subject, err)
	}
	deps.Logger.Info("drained queue to checkpoint", zap.String("subject", subject), zap.Int("count", n), zap.String("path", statePath))
	return n, nil
}
