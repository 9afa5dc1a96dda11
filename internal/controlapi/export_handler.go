package controlapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ExportTrigger starts a cohort-wide export for a project. The handler
// waits for TriggerExport to return before it responds.
type ExportTrigger interface {
	TriggerExport(ctx context.Context, projectName string, extractDatetime time.Time) error
}

// ExportHandler implements POST /export-patient-data.
type ExportHandler struct {
	trigger ExportTrigger
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(trigger ExportTrigger) *ExportHandler {
	return &ExportHandler{trigger: trigger}
}

// Register mounts this handler's routes on e.
func (h *ExportHandler) Register(e *echo.Echo) {
	e.POST("/export-patient-data", h.Trigger)
}

type exportRequest struct {
	ProjectName     string    `json:"project_name"`
	ExtractDatetime time.Time `json:"extract_datetime"`
}

// Trigger kicks off a cohort-wide parquet/report export for one project
// extract (spec §4.7/§4.8).
func (h *ExportHandler) Trigger(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil || req.ProjectName == "" {
		return errResponse(c, http.StatusBadRequest, "project_name is required")
	}
	if err := h.trigger.TriggerExport(c.Request().Context(), req.ProjectName, req.ExtractDatetime); err != nil {
		return errResponse(c, http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}
