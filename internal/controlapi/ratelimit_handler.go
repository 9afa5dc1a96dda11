package controlapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/UCLH-Foundry/PIXL/internal/ratelimit"
)

// Buckets exposes the per-queue token buckets the Control API adjusts, one
// per consumer process (spec §4.3: "a token bucket per queue").
type Buckets map[string]*ratelimit.Bucket

// RateLimitHandler implements the token-bucket-refresh-rate endpoints.
type RateLimitHandler struct {
	buckets Buckets
}

// NewRateLimitHandler constructs a RateLimitHandler over buckets.
func NewRateLimitHandler(buckets Buckets) *RateLimitHandler {
	return &RateLimitHandler{buckets: buckets}
}

// Register mounts this handler's routes on e.
func (h *RateLimitHandler) Register(e *echo.Echo) {
	e.GET("/:queue/token-bucket-refresh-rate", h.Get)
	e.POST("/:queue/token-bucket-refresh-rate", h.Set)
}

type rateRequest struct {
	Rate *float64 `json:"rate"`
}

type rateResponse struct {
	Rate int `json:"rate"`
}

func (h *RateLimitHandler) bucket(c echo.Context) (*ratelimit.Bucket, bool) {
	b, ok := h.buckets[c.Param("queue")]
	return b, ok
}

// Get returns the queue's current refill rate.
func (h *RateLimitHandler) Get(c echo.Context) error {
	b, ok := h.bucket(c)
	if !ok {
		return errResponse(c, http.StatusNotFound, "unknown queue")
	}
	return c.JSON(http.StatusOK, rateResponse{Rate: b.RefillRate()})
}

// Set updates the queue's refill rate. Per spec §4.3, r=0 is valid here
// (it effectively pauses the queue) — only negative or non-numeric rates
// are rejected. The `start`-time r=0 rejection lives in internal/cli,
// which validates configuration before a worker ever starts.
func (h *RateLimitHandler) Set(c echo.Context) error {
	b, ok := h.bucket(c)
	if !ok {
		return errResponse(c, http.StatusNotFound, "unknown queue")
	}
	var req rateRequest
	if err := c.Bind(&req); err != nil || req.Rate == nil {
		return errResponse(c, http.StatusNotAcceptable, "rate must be a number")
	}
	if *req.Rate < 0 {
		return errResponse(c, http.StatusNotAcceptable, "rate must be >= 0")
	}
	b.SetRefillRate(int(*req.Rate))
	return c.NoContent(http.StatusOK)
}
