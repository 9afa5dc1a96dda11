// Package controlapi is the Control API (spec §4.8): a small HTTP surface
// the CLI uses to adjust per-queue rate, query status, and trigger
// cohort-wide parquet export. Routing and error-response shape grounded on
// apps/privacy-service/cmd/api/main.go and
// apps/privacy-service/internal/handler/handlers.go.
package controlapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type errResp struct {
	Error string `json:"error"`
}

func errResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, errResp{Error: msg})
}
