package reconciliation_test

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"vendhub-backend/core/storage/mocks"
	"vendhub-backend/feature/reconciliation"
	"vendhub-backend/feature/reconciliation/models"
	"vendhub-backend/feature/reconciliation/source"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleRun() *models.ReconciliationRun {
	return &models.ReconciliationRun{
		ID:       "run-1",
		Status:   models.RunStatusCompleted,
		DateFrom: dayStart,
		DateTo:   dayEnd,
		Sources:  models.StringList{source.SalesReport, source.Hardware},
	}
}

func TestArchiveCreatesBucketAndUploadsReport(t *testing.T) {
	mockClient := new(mocks.Client)
	archiver := reconciliation.NewReportArchiver(mockClient, "test-bucket")

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)
	mockClient.On("MakeBucket", mock.Anything, "test-bucket", mock.Anything).Return(nil)

	var payload []byte
	mockClient.On("PutObject", mock.Anything, "test-bucket", "reconciliation/run-1.json",
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			body, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			payload = body
		}).
		Return(minio.UploadInfo{}, nil)

	summary := &models.RunSummary{TotalRecords: 2, MatchedGroups: 1}
	err := archiver.Archive(context.Background(), sampleRun(), summary, nil)
	require.NoError(t, err)
	mockClient.AssertExpectations(t)

	var report reconciliation.RunReport
	require.NoError(t, json.Unmarshal(payload, &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []string{source.SalesReport, source.Hardware}, report.Sources)
	require.NotNil(t, report.Summary)
	assert.Equal(t, 1, report.Summary.MatchedGroups)
	assert.WithinDuration(t, time.Now().UTC(), report.GeneratedAt, time.Minute)
}

func TestArchiveSkipsBucketCreationWhenPresent(t *testing.T) {
	mockClient := new(mocks.Client)
	archiver := reconciliation.NewReportArchiver(mockClient, "test-bucket")

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("PutObject", mock.Anything, "test-bucket", "reconciliation/run-1.json",
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	err := archiver.Archive(context.Background(), sampleRun(), &models.RunSummary{}, nil)
	require.NoError(t, err)
	mockClient.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveBucketCheckFailure(t *testing.T) {
	mockClient := new(mocks.Client)
	archiver := reconciliation.NewReportArchiver(mockClient, "test-bucket")

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	err := archiver.Archive(context.Background(), sampleRun(), &models.RunSummary{}, nil)
	assert.Error(t, err)
	mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchStreamsArchivedReport(t *testing.T) {
	mockClient := new(mocks.Client)
	archiver := reconciliation.NewReportArchiver(mockClient, "test-bucket")

	mockClient.On("GetObject", mock.Anything, "test-bucket", "reconciliation/run-1.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(`{"run_id":"run-1"}`)), nil)

	reader, err := archiver.Fetch(context.Background(), "run-1")
	require.NoError(t, err)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"run_id":"run-1"}`, string(body))
}
