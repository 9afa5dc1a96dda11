package anoncallback

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/anonymise"
	"github.com/UCLH-Foundry/PIXL/internal/projectconfig"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
	registrymock "github.com/UCLH-Foundry/PIXL/internal/registry/mock"
)

func newTestHandler(t *testing.T, q registry.Querier, yamlBody string) (*Handler, registry.ProjectSlug) {
	t.Helper()
	dir := t.TempDir()
	slug := registry.SlugifyProject("Proj A")
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(slug)+".yaml"), []byte(yamlBody), 0o644))

	store := projectconfig.NewStore(dir)
	repo := registry.NewRepositoryWithQuerier(q)
	engine := anonymise.NewEngine(nil)
	return NewHandler(engine, repo, store, []byte("salt"), zap.NewNop()), slug
}

const baseYAML = "project_name: Proj A\n" +
	"allowed_modalities: [CT]\n" +
	"tag_scheme:\n" +
	"  - name: PatientName\n" +
	"    group: 16\n" +
	"    element: 16\n" +
	"    op: delete\n" +
	"destination:\n  kind: ftps\n  host: dest.example\n"

func TestAnonymise_DiscardsOnModalityGate(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := registrymock.NewMockQuerier(ctrl)
	h, slug := newTestHandler(t, q, baseYAML)

	body, _ := json.Marshal(instanceRequest{ProjectSlug: string(slug), Modality: "MR"})
	e := echo.New()
	h.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/anonymise", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp discardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Discarded)
}

func TestAnonymise_AppliesSchemeAndMintsPseudoUID(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := registrymock.NewMockQuerier(ctrl)
	h, slug := newTestHandler(t, q, baseYAML)

	q.EXPECT().GetExtractBySlug(gomock.Any(), slug).Return(registry.Extract{ExtractID: 1, Slug: slug}, nil)
	q.EXPECT().GetImageByKey(gomock.Any(), gomock.Any(), int64(1)).
		Return(registry.Image{ImageID: 5, PseudoStudyUID: "2.25.999"}, nil)

	req := instanceRequest{
		ProjectSlug:     string(slug),
		Modality:        "CT",
		MRN:             "mrn-1",
		AccessionNumber: "acc-1",
		StudyDate:       "2026-01-01",
		Dataset: []WireElement{
			{Group: 16, Element: 16, VR: "PN", Value: "Jane Doe"},
		},
	}
	body, _ := json.Marshal(req)

	e := echo.New()
	h.Register(e)
	httpReq := httptest.NewRequest(http.MethodPost, "/anonymise", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httpReq)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp instanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2.25.999", resp.PseudoStudyUID)

	for _, el := range resp.Dataset {
		assert.NotEqual(t, uint16(16), el.Group, "PatientName should have been deleted by the tag scheme")
	}
}

func TestGate_ExcludedSeriesRegex(t *testing.T) {
	project := projectconfig.Project{
		AllowedModalities:   []string{"CT"},
		ExcludedSeriesRegex: "(?i)localizer",
	}
	reason, discard := gate(project, "CT", "AX Localizer")
	assert.True(t, discard)
	assert.Contains(t, reason, "excluded_series_regex")
}
