package cli

import (
	"context"
	"time"
)

// TriggerExport implements the CLI's "export-patient-data" command.
func TriggerExport(ctx context.Context, deps *Deps, projectName string, extractDatetime time.Time) error {
	return deps.Control.TriggerExport(ctx, projectName, extractDatetime)
}
