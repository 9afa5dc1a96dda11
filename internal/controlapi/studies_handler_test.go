package controlapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/UCLH-Foundry/PIXL/internal/imagestore"
	"github.com/UCLH-Foundry/PIXL/internal/imagestore/mock"
)

func TestStudiesHandler_Recent_ReturnsMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	adapter.EXPECT().ListRecentByProject(gomock.Any(), "Proj A", 5).
		Return([]imagestore.LocalMatch{{StudyID: "s1", LastUpdate: "20260101T000000"}}, nil)

	e := echo.New()
	NewStudiesHandler(adapter).Register(e)

	req := httptest.NewRequest(http.MethodGet, "/studies/recent?project=Proj+A&n=5", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"study_id":"s1","last_update":"20260101T000000"}]`, rec.Body.String())
}

func TestStudiesHandler_Recent_RequiresProject(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)

	e := echo.New()
	NewStudiesHandler(adapter).Register(e)

	req := httptest.NewRequest(http.MethodGet, "/studies/recent", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudiesHandler_Recent_DefaultsNTo10(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	adapter.EXPECT().ListRecentByProject(gomock.Any(), "Proj A", 10).Return(nil, nil)

	e := echo.New()
	NewStudiesHandler(adapter).Register(e)

	req := httptest.NewRequest(http.MethodGet, "/studies/recent?project=Proj+A", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
