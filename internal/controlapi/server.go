package controlapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
)

// Registrable is one group of Control API routes.
type Registrable interface {
	Register(e *echo.Echo)
}

// NewServer builds the echo instance serving every Control API route,
// following apps/privacy-service/cmd/api/main.go's middleware stack:
// otelecho tracing, structured request logging, panic recovery.
func NewServer(logger *zap.Logger, serviceName string, handlers ...Registrable) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request", zap.String("uri", v.URI), zap.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	for _, h := range handlers {
		h.Register(e)
	}
	return e
}
