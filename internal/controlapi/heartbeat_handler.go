package controlapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeartbeatHandler implements GET /heart-beat, a bare liveness check the
// CLI's `status` command polls before querying anything else.
type HeartbeatHandler struct{}

// Register mounts this handler's route on e.
func (HeartbeatHandler) Register(e *echo.Echo) {
	e.GET("/heart-beat", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}
