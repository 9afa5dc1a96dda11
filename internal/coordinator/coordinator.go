// Package coordinator implements the Study Coordinator (spec §4.5): the
// state machine driving a queued study from Received through Inspecting,
// Reusing/Retrieving, Tagging, and Forwarding, to a terminal Acked,
// RequeuedTransient, or DiscardedPermanent outcome.
package coordinator

import (
	"context"
	"time"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
	"github.com/UCLH-Foundry/PIXL/internal/imagestore"
	"github.com/UCLH-Foundry/PIXL/internal/ratelimit"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// projectTagNickname is the RequestedTags key the raw store exposes the
// project-name private tag under, matching
// original_source's DICOM_TAG_PROJECT_NAME.tag_nickname configuration.
const projectTagNickname = "PIXLProjectName"

// Config holds the VNA modality name and private-tag parameters the
// coordinator uses. cmd/imaging-worker sets them; only VNAModality is read
// from the environment.
type Config struct {
	VNAModality       string
	PrivateTagGroup   uint16
	PrivateTagCreator string
	// TransferTimeout is not read by Coordinator; the C-MOVE wait deadline
	// is imagestore.Config.JobTimeout.
	TransferTimeout time.Duration
}

// Coordinator drives one study through retrieval and project tagging. It
// holds no broker dependency itself — see Consumer.processMessage in
// consumer.go for the NATS-facing wrapper that does.
type Coordinator struct {
	adapter imagestore.Adapter
	limiter *ratelimit.Bucket
	cfg     Config
}

// New constructs a Coordinator.
func New(adapter imagestore.Adapter, limiter *ratelimit.Bucket, cfg Config) *Coordinator {
	return &Coordinator{adapter: adapter, limiter: limiter, cfg: cfg}
}

// ProcessEvent is the pure business-logic half of the coordinator: no
// broker dependency, directly unit-testable against a fake Adapter.
// Grounded on original_source/pixl_imaging/src/pixl_imaging/_processing.py's
// process_message / _update_or_resend_existing_study_ / _add_project_to_study.
func (c *Coordinator) ProcessEvent(ctx context.Context, msg registry.StudyMessage) error {
	pending, err := c.adapter.PendingJobs(ctx)
	if err != nil {
		return err
	}
	if pending {
		return errkind.Requeuef(nil, "raw store has pending jobs, deferring %s/%s", msg.MRN, msg.AccessionNumber)
	}

	handled, err := c.inspectExisting(ctx, msg)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}
	return c.retrieveAndTag(ctx, msg)
}

// inspectExisting implements the Inspecting/Reusing branch: if the study
// is already present in the raw store, either re-tag it for this project
// (when it carries a different project's tag, or none) or forward it
// straight to the anonymiser (when it's already tagged for this project).
// Returns handled=true if no further action (retrieval) is needed.
func (c *Coordinator) inspectExisting(ctx context.Context, msg registry.StudyMessage) (bool, error) {
	matches, err := c.adapter.QueryLocalWithProjectTag(ctx, msg.MRN, msg.AccessionNumber)
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		return false, nil
	}

	match := mostRecentlyUpdated(matches)
	for _, other := range matches {
		if other.StudyID != match.StudyID {
			if err := c.adapter.Delete(ctx, other.StudyID); err != nil {
				return false, err
			}
		}
	}

	if match.HasProjectTag && match.ProjectTag == msg.ProjectName {
		if err := c.adapter.ForwardToAnon(ctx, match.StudyID); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := c.adapter.ModifyPrivateTag(ctx, match.StudyID, c.cfg.PrivateTagGroup, c.cfg.PrivateTagCreator, msg.ProjectName); err != nil {
		return false, err
	}
	return true, nil
}

// mostRecentlyUpdated picks the single surviving resource when a
// (MRN, AccessionNumber) pair locates more than one local study, per spec
// §4.4's ordering note: keep the most recent LastUpdate, the rest are
// deleted by the caller.
func mostRecentlyUpdated(matches []imagestore.LocalMatch) imagestore.LocalMatch {
	best := matches[0]
	for _, m := range matches[1:] {
		if m.LastUpdate > best.LastUpdate {
			best = m
		}
	}
	return best
}

// retrieveAndTag implements the Retrieving branch: query the VNA, C-MOVE
// the study in, then tag it for the requesting project.
func (c *Coordinator) retrieveAndTag(ctx context.Context, msg registry.StudyMessage) error {
	if c.limiter != nil && !c.limiter.TryTake() {
		return errkind.Requeuef(nil, "rate limiter: no tokens available for %s/%s", msg.MRN, msg.AccessionNumber)
	}

	query := map[string]string{
		"PatientID":       msg.MRN,
		"AccessionNumber": msg.AccessionNumber,
	}
	remote, err := c.adapter.QueryRemote(ctx, c.cfg.VNAModality, query)
	if err != nil {
		return err
	}
	if !remote.Matched {
		return errkind.Discardf(nil, "no matching study for %s/%s in the VNA", msg.MRN, msg.AccessionNumber)
	}

	if err := c.adapter.Retrieve(ctx, remote.ID); err != nil {
		return err
	}

	local, err := c.adapter.QueryLocal(ctx, query)
	if err != nil {
		return err
	}
	if !local.Matched {
		return errkind.Requeuef(nil, "study for %s/%s not yet visible locally after retrieval", msg.MRN, msg.AccessionNumber)
	}

	return c.adapter.ModifyPrivateTag(ctx, local.ID, c.cfg.PrivateTagGroup, c.cfg.PrivateTagCreator, msg.ProjectName)
}
