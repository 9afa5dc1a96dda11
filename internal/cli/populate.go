package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/queue"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// stateFilePath returns the checkpoint file a "stop" for subject would have
// written, mirroring pixl_cli/main.py's state_filepath_for_queue.
func stateFilePath(subject string) string {
	return strings.ReplaceAll(subject, "/", "_") + ".state"
}

// Populate publishes messages onto subject, implementing the CLI's
// "populate" command (spec §6, cohort intake per SPEC_FULL.md §C.2).
//
// Unless noRestart is set, a checkpoint file left by a prior "stop" takes
// priority over the freshly-read cohort: pixl_cli/main.py's populate reads
// <topic>.state instead of re-deriving messages when one is present, so
// that work queued before a stop picks up exactly where it left off.
// Otherwise, messages are filtered against the Durable Registry's
// FilterUnexported so already-exported studies are never re-queued.
func Populate(ctx context.Context, deps *Deps, subject, projectName string, messages []registry.StudyMessage, noRestart bool) (int, error) {
	statePath := stateFilePath(subject)
	if !noRestart {
		if _, err := os.Stat(statePath); err == nil {
			deps.Logger.Info("restoring from checkpoint", zap.String("subject", subject), zap.String("path", statePath))
			n, err := queue.RestoreFromFile(ctx, deps.Queue, subject, statePath)
			if err != nil {
				return 0, err
			}
			if err := os.Remove(statePath); err != nil {
				return n, fmt.Errorf("cli: removing consumed checkpoint %s: %w", statePath, err)
			}
			return n, nil
		}
	}

	slug := registry.SlugifyProject(projectName)
	extract, created, err := deps.Registry.EnsureProject(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("cli: ensuring project %s: %w", projectName, err)
	}
	kept, err := deps.Registry.FilterUnexported(ctx, extract, created, messages)
	if err != nil {
		return 0, fmt.Errorf("cli: filtering unexported: %w", err)
	}

	for _, msg := range kept {
		payload, err := json.Marshal(msg)
		if err != nil {
			return 0, fmt.Errorf("cli: marshalling message: %w", err)
		}
		if err := deps.Queue.Publish(ctx, subject, payload); err != nil {
			return 0, err
		}
	}
	return len(kept), nil
}
