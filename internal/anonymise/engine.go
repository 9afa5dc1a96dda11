package anonymise

import (
	"context"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
)

// SecureHasher resolves the secure-hash op against the external Hashing
// Service (spec §6): GET /hash?project_slug=&message=&length=.
type SecureHasher interface {
	Hash(ctx context.Context, projectSlug, message string, length int) (string, error)
}

// Engine applies a project's tag scheme to a dataset: whitelist
// enforcement, then per-tag op dispatch, grounded on
// pixl_dcmd/src/pixl_dcmd/main.py's apply_tag_scheme.
type Engine struct {
	hasher SecureHasher
}

// NewEngine constructs an Engine that resolves secure-hash ops through
// hasher.
func NewEngine(hasher SecureHasher) *Engine {
	return &Engine{hasher: hasher}
}

// Params bundles the per-study values the tag scheme needs beyond the
// dataset itself: the pseudonymisation salt, the configured time-shift
// offset, and the project slug secure-hash calls are scoped to.
type Params struct {
	ProjectSlug    string
	Salt           []byte
	TimeShiftHours int
}

// Apply anonymises ds in place: first the whitelist closure (delete
// anything the scheme doesn't name with a non-delete op, spec §4.6 step
// 6), then the scheme's per-tag ops (step 7), recursing into sequence
// items for both passes.
func (e *Engine) Apply(ctx context.Context, ds Dataset, scheme Scheme, params Params) error {
	enforceWhitelist(ds, scheme)
	return e.applyScheme(ctx, ds, scheme, params)
}

// enforceWhitelist recursively deletes every element with no matching
// non-delete scheme entry, including inside sequence items (property P4).
func enforceWhitelist(ds Dataset, scheme Scheme) {
	for tag, el := range ds {
		for _, item := range el.Items {
			enforceWhitelist(item, scheme)
		}
		if !scheme.Whitelisted(tag) {
			delete(ds, tag)
		}
	}
}

func (e *Engine) applyScheme(ctx context.Context, ds Dataset, scheme Scheme, params Params) error {
	for _, entry := range scheme {
		el, present := ds.Get(entry.tag())
		if !present {
			continue
		}
		if err := validateVR(entry, el.VR); err != nil {
			return err
		}
		if err := e.applyOp(ctx, ds, el, entry, params); err != nil {
			return err
		}
	}

	for _, el := range ds {
		for _, item := range el.Items {
			if err := e.applyScheme(ctx, item, scheme, params); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) applyOp(ctx context.Context, ds Dataset, el *Element, entry SchemeEntry, params Params) error {
	switch entry.Op {
	case OpKeep:
		return nil

	case OpDelete:
		ds.Delete(entry.tag())
		return nil

	case OpHashUID:
		el.Value = HashUID(el.Value, params.Salt)
		return nil

	case OpTimeShift:
		shifted, err := ShiftTime(el.Value, params.TimeShiftHours)
		if err != nil {
			return errkind.Programmerf("time-shift on (0x%04x,0x%04x): %v", entry.Group, entry.Element, err)
		}
		el.Value = shifted
		return nil

	case OpFixed:
		el.Value = ""
		return nil

	case OpNumRange:
		el.Value = ClampAge(el.Value)
		return nil

	case OpSecureHash:
		if e.hasher == nil {
			return errkind.Configurationf(nil, "secure-hash op configured but no hasher is wired")
		}
		length := 0
		if el.VR == "SH" {
			length = 16
		}
		hashed, err := e.hasher.Hash(ctx, params.ProjectSlug, el.Value, length)
		if err != nil {
			return errkind.Requeuef(err, "secure-hash call failed for (0x%04x,0x%04x)", entry.Group, entry.Element)
		}
		el.Value = hashed
		return nil

	default:
		return errkind.Programmerf("unhandled tag scheme op %v", entry.Op)
	}
}
