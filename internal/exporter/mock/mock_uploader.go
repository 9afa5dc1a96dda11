// Package mock provides a hand-written mockgen-style double for
// uploader.Uploader, following the MockX/MockXRecorder shape used across
// the teacher's handler and service tests.
package mock

import (
	"context"
	"io"

	"go.uber.org/mock/gomock"
)

func toError(v interface{}) error {
	if v == nil {
		return nil
	}
	return v.(error)
}

type MockUploader struct {
	ctrl *gomock.Controller
	rec  *MockUploaderRecorder
}

type MockUploaderRecorder struct{ m *MockUploader }

func NewMockUploader(ctrl *gomock.Controller) *MockUploader {
	m := &MockUploader{ctrl: ctrl}
	m.rec = &MockUploaderRecorder{m}
	return m
}

func (m *MockUploader) EXPECT() *MockUploaderRecorder { return m.rec }

func (m *MockUploader) Upload(ctx context.Context, projectSlug, pseudoStudyUID string, archive io.Reader, size int64) error {
	ret := m.ctrl.Call(m, "Upload", ctx, projectSlug, pseudoStudyUID, archive, size)
	return toError(ret[0])
}
func (r *MockUploaderRecorder) Upload(ctx, projectSlug, pseudoStudyUID, archive, size any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "Upload", nil, ctx, projectSlug, pseudoStudyUID, archive, size)
}
