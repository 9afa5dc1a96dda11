// Package mock provides a hand-written mockgen-style double for
// registry.Querier, following the MockX/MockXRecorder shape used across the
// teacher's handler and service tests.
package mock

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

func toError(v interface{}) error {
	if v == nil {
		return nil
	}
	return v.(error)
}

type MockQuerier struct {
	ctrl *gomock.Controller
	rec  *MockQuerierRecorder
}

type MockQuerierRecorder struct{ m *MockQuerier }

func NewMockQuerier(ctrl *gomock.Controller) *MockQuerier {
	m := &MockQuerier{ctrl: ctrl}
	m.rec = &MockQuerierRecorder{m}
	return m
}

func (m *MockQuerier) EXPECT() *MockQuerierRecorder { return m.rec }

func (m *MockQuerier) InsertExtract(ctx context.Context, slug registry.ProjectSlug) (registry.Extract, error) {
	ret := m.ctrl.Call(m, "InsertExtract", ctx, slug)
	return ret[0].(registry.Extract), toError(ret[1])
}
func (r *MockQuerierRecorder) InsertExtract(ctx, slug any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "InsertExtract", nil, ctx, slug)
}

func (m *MockQuerier) GetExtractBySlug(ctx context.Context, slug registry.ProjectSlug) (registry.Extract, error) {
	ret := m.ctrl.Call(m, "GetExtractBySlug", ctx, slug)
	return ret[0].(registry.Extract), toError(ret[1])
}
func (r *MockQuerierRecorder) GetExtractBySlug(ctx, slug any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "GetExtractBySlug", nil, ctx, slug)
}

func (m *MockQuerier) InsertImage(ctx context.Context, arg registry.InsertImageParams) (registry.Image, error) {
	ret := m.ctrl.Call(m, "InsertImage", ctx, arg)
	return ret[0].(registry.Image), toError(ret[1])
}
func (r *MockQuerierRecorder) InsertImage(ctx, arg any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "InsertImage", nil, ctx, arg)
}

func (m *MockQuerier) GetImageByKey(ctx context.Context, key registry.ImageKey, extractID int64) (registry.Image, error) {
	ret := m.ctrl.Call(m, "GetImageByKey", ctx, key, extractID)
	return ret[0].(registry.Image), toError(ret[1])
}
func (r *MockQuerierRecorder) GetImageByKey(ctx, key, extractID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "GetImageByKey", nil, ctx, key, extractID)
}

func (m *MockQuerier) GetImageByStudyUID(ctx context.Context, extractID int64, studyUID string) (registry.Image, error) {
	ret := m.ctrl.Call(m, "GetImageByStudyUID", ctx, extractID, studyUID)
	return ret[0].(registry.Image), toError(ret[1])
}
func (r *MockQuerierRecorder) GetImageByStudyUID(ctx, extractID, studyUID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "GetImageByStudyUID", nil, ctx, extractID, studyUID)
}

func (m *MockQuerier) GetImageByPseudoUID(ctx context.Context, pseudoUID string) (registry.Image, error) {
	ret := m.ctrl.Call(m, "GetImageByPseudoUID", ctx, pseudoUID)
	return ret[0].(registry.Image), toError(ret[1])
}
func (r *MockQuerierRecorder) GetImageByPseudoUID(ctx, pseudoUID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "GetImageByPseudoUID", nil, ctx, pseudoUID)
}

func (m *MockQuerier) SetImagePseudoUID(ctx context.Context, imageID int64, pseudoUID string) (registry.Image, error) {
	ret := m.ctrl.Call(m, "SetImagePseudoUID", ctx, imageID, pseudoUID)
	return ret[0].(registry.Image), toError(ret[1])
}
func (r *MockQuerierRecorder) SetImagePseudoUID(ctx, imageID, pseudoUID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "SetImagePseudoUID", nil, ctx, imageID, pseudoUID)
}

func (m *MockQuerier) PseudoUIDExists(ctx context.Context, pseudoUID string) (bool, error) {
	ret := m.ctrl.Call(m, "PseudoUIDExists", ctx, pseudoUID)
	return ret[0].(bool), toError(ret[1])
}
func (r *MockQuerierRecorder) PseudoUIDExists(ctx, pseudoUID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "PseudoUIDExists", nil, ctx, pseudoUID)
}

func (m *MockQuerier) SetExportedAt(ctx context.Context, imageID int64, when time.Time) error {
	ret := m.ctrl.Call(m, "SetExportedAt", ctx, imageID, when)
	return toError(ret[0])
}
func (r *MockQuerierRecorder) SetExportedAt(ctx, imageID, when any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "SetExportedAt", nil, ctx, imageID, when)
}

func (m *MockQuerier) ListImagesByExtract(ctx context.Context, extractID int64) ([]registry.Image, error) {
	ret := m.ctrl.Call(m, "ListImagesByExtract", ctx, extractID)
	var images []registry.Image
	if ret[0] != nil {
		images = ret[0].([]registry.Image)
	}
	return images, toError(ret[1])
}
func (r *MockQuerierRecorder) ListImagesByExtract(ctx, extractID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "ListImagesByExtract", nil, ctx, extractID)
}
