package controlapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/UCLH-Foundry/PIXL/internal/imagestore"
)

// StudiesHandler implements the supplemented GET /studies/recent, exposing
// the original's list_newest_n_studies operational script as a read-only
// query over the Image Store Adapter instead of a standalone script
// (SPEC_FULL.md §C.5).
type StudiesHandler struct {
	adapter imagestore.Adapter
}

// NewStudiesHandler constructs a StudiesHandler.
func NewStudiesHandler(adapter imagestore.Adapter) *StudiesHandler {
	return &StudiesHandler{adapter: adapter}
}

// Register mounts this handler's routes on e.
func (h *StudiesHandler) Register(e *echo.Echo) {
	e.GET("/studies/recent", h.Recent)
}

type recentStudy struct {
	StudyID    string `json:"study_id"`
	LastUpdate string `json:"last_update"`
}

// Recent lists up to n studies tagged for the given project, most
// recently updated first.
func (h *StudiesHandler) Recent(c echo.Context) error {
	project := c.QueryParam("project")
	if project == "" {
		return errResponse(c, http.StatusBadRequest, "project is required")
	}

	n := 10
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return errResponse(c, http.StatusBadRequest, "n must be a positive integer")
		}
		n = parsed
	}

	// project_name, not its slug: the raw store's private tag carries the
	// project name as-is (see internal/coordinator's inspectExisting).
	matches, err := h.adapter.ListRecentByProject(c.Request().Context(), project, n)
	if err != nil {
		return errResponse(c, http.StatusInternalServerError, err.Error())
	}

	studies := make([]recentStudy, 0, len(matches))
	for _, m := range matches {
		studies = append(studies, recentStudy{StudyID: m.StudyID, LastUpdate: m.LastUpdate})
	}
	return c.JSON(http.StatusOK, studies)
}
