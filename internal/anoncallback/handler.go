package anoncallback

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/anonymise"
	"github.com/UCLH-Foundry/PIXL/internal/errkind"
	"github.com/UCLH-Foundry/PIXL/internal/projectconfig"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// studyInstanceUIDTag is the standard DICOM Study Instance UID element,
// rewritten to the Registry-minted pseudo UID at the end of the pipeline
// (spec §4.6 step 8).
var studyInstanceUIDTag = anonymise.Tag{Group: 0x0020, Element: 0x000d}

// Handler drives one DICOM instance through the full Anonymisation Engine
// pipeline, invoked by the anonymising store's on-stable-study hook.
type Handler struct {
	engine *anonymise.Engine
	repo   *registry.Repository
	projects *projectconfig.Store
	salt   []byte
	logger *zap.Logger
}

// NewHandler constructs a Handler. salt is the pseudonymisation salt used
// by the hash-uid op, loaded once at startup from Vault.
func NewHandler(engine *anonymise.Engine, repo *registry.Repository, projects *projectconfig.Store, salt []byte, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, repo: repo, projects: projects, salt: salt, logger: logger}
}

// Register mounts the webhook route.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/anonymise", h.Anonymise)
}

// instanceRequest is the wire envelope for one DICOM instance: the
// metadata the anonymising store already knows without parsing the
// dataset (project slug via the private tag, modality, series
// description, identifying keys) plus the dataset itself.
type instanceRequest struct {
	ProjectSlug     string        `json:"project_slug"`
	Modality        string        `json:"modality"`
	SeriesDescription string      `json:"series_description"`
	MRN             string        `json:"mrn"`
	AccessionNumber string        `json:"accession_number"`
	StudyDate       string        `json:"study_date"`
	StudyUID        string        `json:"study_uid"`
	Dataset         []WireElement `json:"dataset"`
}

type instanceResponse struct {
	PseudoStudyUID string        `json:"pseudo_study_uid"`
	Dataset        []WireElement `json:"dataset"`
	Violations     []string      `json:"violations_after,omitempty"`
}

type discardResponse struct {
	Discarded bool   `json:"discarded"`
	Reason    string `json:"reason"`
}

// Anonymise implements the per-instance contract (spec §4.6 steps 1-9).
func (h *Handler) Anonymise(c echo.Context) error {
	var req instanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	project, err := h.projects.Load(registry.ProjectSlug(req.ProjectSlug))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	if reason, discard := gate(project, req.Modality, req.SeriesDescription); discard {
		h.logger.Info("discarding instance at gate",
			zap.String("project", req.ProjectSlug), zap.String("reason", reason))
		return c.JSON(http.StatusOK, discardResponse{Discarded: true, Reason: reason})
	}

	ds := toDataset(req.Dataset)

	before := anonymise.Validate(ds, project.TagScheme)
	if len(before) > 0 {
		h.logger.Debug("pre-anonymisation conformance violations",
			zap.String("project", req.ProjectSlug), zap.Int("count", len(before)))
	}

	anonymise.RemoveOverlays(ds)

	params := anonymise.Params{
		ProjectSlug:    req.ProjectSlug,
		Salt:           h.salt,
		TimeShiftHours: project.TimeShiftHours,
	}
	if err := h.engine.Apply(c.Request().Context(), ds, project.TagScheme, params); err != nil {
		return h.respondError(c, err)
	}

	pseudoUID, err := h.repo.AssignOrFetchPseudoUID(c.Request().Context(), registry.StudyInfo{
		ProjectSlug:     project.Slug(),
		StudyUID:        req.StudyUID,
		MRN:             req.MRN,
		AccessionNumber: req.AccessionNumber,
		StudyDate:       req.StudyDate,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	ds.Set(&anonymise.Element{Tag: studyInstanceUIDTag, VR: "UI", Value: pseudoUID})

	after := anonymise.Validate(ds, project.TagScheme)
	violations := make([]string, 0, len(after))
	for _, v := range after {
		violations = append(violations, v.String())
		h.logger.Warn("post-anonymisation conformance violation",
			zap.String("project", req.ProjectSlug), zap.String("violation", v.String()))
	}

	return c.JSON(http.StatusOK, instanceResponse{
		PseudoStudyUID: pseudoUID,
		Dataset:        fromDataset(ds),
		Violations:     violations,
	})
}

// gate applies the modality and excluded-series checks (spec §4.6 steps
// 1-2), returning the discard reason when either fires.
func gate(project projectconfig.Project, modality, seriesDescription string) (string, bool) {
	if len(project.AllowedModalities) > 0 {
		allowed := false
		for _, m := range project.AllowedModalities {
			if m == modality {
				allowed = true
				break
			}
		}
		if !allowed {
			return "modality " + modality + " not in allowed_modalities", true
		}
	}

	if project.ExcludedSeriesRegex != "" {
		re, err := regexp.Compile(project.ExcludedSeriesRegex)
		if err == nil && re.MatchString(seriesDescription) {
			return "series description matches excluded_series_regex", true
		}
	}

	return "", false
}

func (h *Handler) respondError(c echo.Context, err error) error {
	kind, ok := errkind.As(err)
	if !ok {
		h.logger.Error("unclassified anonymisation error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	switch kind.Kind {
	case errkind.Discard, errkind.Configuration:
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errkind.Requeue:
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
