package controlapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCLH-Foundry/PIXL/internal/ratelimit"
)

func TestRateLimitHandler_GetReturnsCurrentRate(t *testing.T) {
	e := echo.New()
	b := ratelimit.NewBucket(5, 3)
	h := NewRateLimitHandler(Buckets{"imaging": b})
	h.Register(e)

	req := httptest.NewRequest(http.MethodGet, "/imaging/token-bucket-refresh-rate", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rate":3}`, rec.Body.String())
}

func TestRateLimitHandler_SetAllowsZero(t *testing.T) {
	e := echo.New()
	b := ratelimit.NewBucket(5, 3)
	h := NewRateLimitHandler(Buckets{"imaging": b})
	h.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/imaging/token-bucket-refresh-rate", strings.NewReader(`{"rate":0}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, b.RefillRate())
}

func TestRateLimitHandler_SetRejectsNegative(t *testing.T) {
	e := echo.New()
	b := ratelimit.NewBucket(5, 3)
	h := NewRateLimitHandler(Buckets{"imaging": b})
	h.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/imaging/token-bucket-refresh-rate", strings.NewReader(`{"rate":-1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestRateLimitHandler_UnknownQueueIs404(t *testing.T) {
	e := echo.New()
	h := NewRateLimitHandler(Buckets{})
	h.Register(e)

	req := httptest.NewRequest(http.MethodGet, "/unknown/token-bucket-refresh-rate", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
