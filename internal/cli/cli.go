// Package cli implements the PIXL CLI's business logic (spec §6, supplemented
// per SPEC_FULL.md §C.2/§C.3): cohort intake, queue start/update/stop, a
// triggered export, and a status check. cmd/pixlctl wires these functions to
// cobra commands. The collaborators arrive through Deps; the cohort readers,
// the rate commands and ControlClient are unit tested against files and
// httptest servers, while Populate, Stop and Status need a live broker and
// registry.
package cli

import (
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/queue"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// Deps bundles the collaborators every CLI command needs. Following the
// teacher's constructor-injection style (no package-level globals), a single
// Deps value is built once in cmd/pixlctl/main.go and threaded through.
type Deps struct {
	Queue    *queue.Client
	Registry *registry.Repository
	Control  *ControlClient
	Logger   *zap.Logger
}
