package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
	"github.com/UCLH-Foundry/PIXL/internal/imagestore"
	"github.com/UCLH-Foundry/PIXL/internal/imagestore/mock"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

func testConfig() Config {
	return Config{VNAModality: "VNAQR", PrivateTagGroup: 0x000B, PrivateTagCreator: "UCLH PIXL"}
}

func TestProcessEvent_ForwardsWhenAlreadyTaggedForProject(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	c := New(adapter, nil, testConfig())

	adapter.EXPECT().PendingJobs(gomock.Any()).Return(false, nil)

	msg := registry.StudyMessage{MRN: "mrn-1", AccessionNumber: "acc-1", ProjectName: "Proj A"}

	adapter.EXPECT().QueryLocalWithProjectTag(gomock.Any(), "mrn-1", "acc-1").
		Return([]imagestore.LocalMatch{{StudyID: "study-1", HasProjectTag: true, ProjectTag: "Proj A"}}, nil)
	adapter.EXPECT().ForwardToAnon(gomock.Any(), "study-1").Return(nil)

	err := c.ProcessEvent(context.Background(), msg)
	require.NoError(t, err)
}

func TestProcessEvent_RetagsWhenExistingDifferentProject(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	c := New(adapter, nil, testConfig())

	adapter.EXPECT().PendingJobs(gomock.Any()).Return(false, nil)

	msg := registry.StudyMessage{MRN: "mrn-1", AccessionNumber: "acc-1", ProjectName: "Proj B"}

	adapter.EXPECT().QueryLocalWithProjectTag(gomock.Any(), "mrn-1", "acc-1").
		Return([]imagestore.LocalMatch{{StudyID: "study-1", HasProjectTag: true, ProjectTag: "Proj A"}}, nil)
	adapter.EXPECT().ModifyPrivateTag(gomock.Any(), "study-1", uint16(0x000B), "UCLH PIXL", "Proj B").Return(nil)

	err := c.ProcessEvent(context.Background(), msg)
	require.NoError(t, err)
}

func TestProcessEvent_DeletesStaleDuplicatesKeepsNewest(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	c := New(adapter, nil, testConfig())

	adapter.EXPECT().PendingJobs(gomock.Any()).Return(false, nil)

	msg := registry.StudyMessage{MRN: "mrn-1", AccessionNumber: "acc-1", ProjectName: "Proj A"}

	adapter.EXPECT().QueryLocalWithProjectTag(gomock.Any(), "mrn-1", "acc-1").Return([]imagestore.LocalMatch{
		{StudyID: "old", HasProjectTag: true, ProjectTag: "Proj A", LastUpdate: "20230101T000000"},
		{StudyID: "new", HasProjectTag: true, ProjectTag: "Proj A", LastUpdate: "20240101T000000"},
	}, nil)
	adapter.EXPECT().Delete(gomock.Any(), "old").Return(nil)
	adapter.EXPECT().ForwardToAnon(gomock.Any(), "new").Return(nil)

	err := c.ProcessEvent(context.Background(), msg)
	require.NoError(t, err)
}

func TestProcessEvent_RetrievesFromRemoteWhenNotLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	c := New(adapter, nil, testConfig())

	adapter.EXPECT().PendingJobs(gomock.Any()).Return(false, nil)

	msg := registry.StudyMessage{MRN: "mrn-2", AccessionNumber: "acc-2", ProjectName: "Proj A"}
	query := map[string]string{"PatientID": "mrn-2", "AccessionNumber": "acc-2"}

	adapter.EXPECT().QueryLocalWithProjectTag(gomock.Any(), "mrn-2", "acc-2").Return(nil, nil)
	adapter.EXPECT().QueryRemote(gomock.Any(), "VNAQR", query).Return(imagestore.QueryResult{ID: "q1", Matched: true}, nil)
	adapter.EXPECT().Retrieve(gomock.Any(), "q1").Return(nil)
	adapter.EXPECT().QueryLocal(gomock.Any(), query).Return(imagestore.QueryResult{ID: "study-new", Matched: true}, nil)
	adapter.EXPECT().ModifyPrivateTag(gomock.Any(), "study-new", uint16(0x000B), "UCLH PIXL", "Proj A").Return(nil)

	err := c.ProcessEvent(context.Background(), msg)
	require.NoError(t, err)
}

func TestProcessEvent_DiscardsWhenRemoteHasNoMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	c := New(adapter, nil, testConfig())

	adapter.EXPECT().PendingJobs(gomock.Any()).Return(false, nil)

	msg := registry.StudyMessage{MRN: "mrn-3", AccessionNumber: "acc-3", ProjectName: "Proj A"}

	adapter.EXPECT().QueryLocalWithProjectTag(gomock.Any(), "mrn-3", "acc-3").Return(nil, nil)
	adapter.EXPECT().QueryRemote(gomock.Any(), "VNAQR", gomock.Any()).Return(imagestore.QueryResult{Matched: false}, nil)

	err := c.ProcessEvent(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Discard))
}

func TestProcessEvent_RequeuesWhenRawStoreHasPendingJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mock.NewMockAdapter(ctrl)
	c := New(adapter, nil, testConfig())

	adapter.EXPECT().PendingJobs(gomock.Any()).Return(true, nil)

	msg := registry.StudyMessage{MRN: "mrn-4", AccessionNumber: "acc-4", ProjectName: "Proj A"}

	err := c.ProcessEvent(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Requeue))
}
