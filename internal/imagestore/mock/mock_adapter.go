// Package mock provides a hand-written mockgen-style double for
// imagestore.Adapter.
package mock

import (
	"context"

	"go.uber.org/mock/gomock"

	"github.com/UCLH-Foundry/PIXL/internal/imagestore"
)

func toError(v interface{}) error {
	if v == nil {
		return nil
	}
	return v.(error)
}

type MockAdapter struct {
	ctrl *gomock.Controller
	rec  *MockAdapterRecorder
}

type MockAdapterRecorder struct{ m *MockAdapter }

func NewMockAdapter(ctrl *gomock.Controller) *MockAdapter {
	m := &MockAdapter{ctrl: ctrl}
	m.rec = &MockAdapterRecorder{m}
	return m
}

func (m *MockAdapter) EXPECT() *MockAdapterRecorder { return m.rec }

func (m *MockAdapter) QueryLocal(ctx context.Context, query map[string]string) (imagestore.QueryResult, error) {
	ret := m.ctrl.Call(m, "QueryLocal", ctx, query)
	return ret[0].(imagestore.QueryResult), toError(ret[1])
}
func (r *MockAdapterRecorder) QueryLocal(ctx, query any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "QueryLocal", nil, ctx, query)
}

func (m *MockAdapter) QueryLocalWithProjectTag(ctx context.Context, mrn, accessionNumber string) ([]imagestore.LocalMatch, error) {
	ret := m.ctrl.Call(m, "QueryLocalWithProjectTag", ctx, mrn, accessionNumber)
	return ret[0].([]imagestore.LocalMatch), toError(ret[1])
}
func (r *MockAdapterRecorder) QueryLocalWithProjectTag(ctx, mrn, accessionNumber any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "QueryLocalWithProjectTag", nil, ctx, mrn, accessionNumber)
}

func (m *MockAdapter) QueryRemote(ctx context.Context, modality string, query map[string]string) (imagestore.QueryResult, error) {
	ret := m.ctrl.Call(m, "QueryRemote", ctx, modality, query)
	return ret[0].(imagestore.QueryResult), toError(ret[1])
}
func (r *MockAdapterRecorder) QueryRemote(ctx, modality, query any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "QueryRemote", nil, ctx, modality, query)
}

func (m *MockAdapter) Retrieve(ctx context.Context, queryID string) error {
	ret := m.ctrl.Call(m, "Retrieve", ctx, queryID)
	return toError(ret[0])
}
func (r *MockAdapterRecorder) Retrieve(ctx, queryID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "Retrieve", nil, ctx, queryID)
}

func (m *MockAdapter) PendingJobs(ctx context.Context) (bool, error) {
	ret := m.ctrl.Call(m, "PendingJobs", ctx)
	return ret[0].(bool), toError(ret[1])
}
func (r *MockAdapterRecorder) PendingJobs(ctx any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "PendingJobs", nil, ctx)
}

func (m *MockAdapter) ModifyPrivateTag(ctx context.Context, studyID string, group uint16, creator, value string) error {
	ret := m.ctrl.Call(m, "ModifyPrivateTag", ctx, studyID, group, creator, value)
	return toError(ret[0])
}
func (r *MockAdapterRecorder) ModifyPrivateTag(ctx, studyID, group, creator, value any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "ModifyPrivateTag", nil, ctx, studyID, group, creator, value)
}

func (m *MockAdapter) ForwardToAnon(ctx context.Context, studyID string) error {
	ret := m.ctrl.Call(m, "ForwardToAnon", ctx, studyID)
	return toError(ret[0])
}
func (r *MockAdapterRecorder) ForwardToAnon(ctx, studyID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "ForwardToAnon", nil, ctx, studyID)
}

func (m *MockAdapter) Delete(ctx context.Context, studyID string) error {
	ret := m.ctrl.Call(m, "Delete", ctx, studyID)
	return toError(ret[0])
}
func (r *MockAdapterRecorder) Delete(ctx, studyID any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "Delete", nil, ctx, studyID)
}

func (m *MockAdapter) ListRecentByProject(ctx context.Context, projectTag string, n int) ([]imagestore.LocalMatch, error) {
	ret := m.ctrl.Call(m, "ListRecentByProject", ctx, projectTag, n)
	return ret[0].([]imagestore.LocalMatch), toError(ret[1])
}
func (r *MockAdapterRecorder) ListRecentByProject(ctx, projectTag, n any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "ListRecentByProject", nil, ctx, projectTag, n)
}
