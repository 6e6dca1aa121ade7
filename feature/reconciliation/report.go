package reconciliation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"vendhub-backend/core/storage"
	"vendhub-backend/feature/reconciliation/models"

	"github.com/minio/minio-go/v7"
)

// reportPrefix is where run report artifacts live in the bucket.
const reportPrefix = "reconciliation/"

// RunReport is the JSON artifact archived for a completed run. It is a
// self-contained snapshot an operator can pull without database access.
type RunReport struct {
	RunID       string                          `json:"run_id"`
	DateFrom    time.Time                       `json:"date_from"`
	DateTo      time.Time                       `json:"date_to"`
	Sources     []string                        `json:"sources"`
	GeneratedAt time.Time                       `json:"generated_at"`
	Summary     *models.RunSummary              `json:"summary"`
	Mismatches  []models.ReconciliationMismatch `json:"mismatches"`
}

// ReportArchiver uploads completed-run reports to object storage.
type ReportArchiver struct {
	client storage.Client
	bucket string
}

// NewReportArchiver creates an archiver writing to the given bucket.
func NewReportArchiver(client storage.Client, bucket string) *ReportArchiver {
	return &ReportArchiver{client: client, bucket: bucket}
}

// Archive uploads the report artifact for a completed run. The bucket
// is created on first use.
func (a *ReportArchiver) Archive(ctx context.Context, run *models.ReconciliationRun, summary *models.RunSummary, mismatches []models.ReconciliationMismatch) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("bucket create: %w", err)
		}
	}

	report := RunReport{
		RunID:       run.ID,
		DateFrom:    run.DateFrom,
		DateTo:      run.DateTo,
		Sources:     run.Sources,
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Mismatches:  mismatches,
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = a.client.PutObject(ctx, a.bucket, objectName(run.ID),
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

// Fetch streams a previously archived report.
func (a *ReportArchiver) Fetch(ctx context.Context, runID string) (io.ReadCloser, error) {
	return a.client.GetObject(ctx, a.bucket, objectName(runID), minio.GetObjectOptions{})
}

func objectName(runID string) string {
	return reportPrefix + runID + ".json"
}
