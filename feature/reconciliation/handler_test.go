package reconciliation_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"vendhub-backend/feature/reconciliation"
	"vendhub-backend/feature/reconciliation/models"
	"vendhub-backend/feature/reconciliation/source"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) (*fiber.App, *reconciliation.Service, *gorm.DB) {
	db := setupDB(t)
	svc := reconciliation.NewService(db, source.DefaultRegistry(), nil, nil, zap.NewNop())
	svc.AttachQueue(noopQueue{})

	app := fiber.New()
	handler := reconciliation.NewHandler(svc)
	handler.RegisterRoutes(app)
	return app, svc, db
}

func createRunRequest() reconciliation.CreateRunRequest {
	return reconciliation.CreateRunRequest{
		DateFrom: dayStart,
		DateTo:   dayEnd,
		Sources:  []string{source.SalesReport, source.Hardware},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*models.ReconciliationRun, int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	_, _ = raw.ReadFrom(resp.Body)

	var run models.ReconciliationRun
	_ = json.Unmarshal(raw.Bytes(), &run)
	return &run, resp.StatusCode, raw.Bytes()
}

func TestHandleCreateRunAccepted(t *testing.T) {
	app, _, _ := setupTestApp(t)

	run, status, _ := doJSON(t, app, "POST", "/reconciliation/runs", createRunRequest(),
		map[string]string{"X-User-ID": "alice"})

	assert.Equal(t, fiber.StatusAccepted, status)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, "alice", run.CreatedBy)
}

func TestHandleCreateRunValidationError(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := createRunRequest()
	req.Sources = []string{source.SalesReport}
	_, status, body := doJSON(t, app, "POST", "/reconciliation/runs", req, nil)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "at least 2 sources")
}

func TestHandleCreateRunMalformedBody(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/reconciliation/runs", bytes.NewBufferString("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetRun(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created, status, _ := doJSON(t, app, "POST", "/reconciliation/runs", createRunRequest(), nil)
	require.Equal(t, fiber.StatusAccepted, status)

	run, status, _ := doJSON(t, app, "GET", "/reconciliation/runs/"+created.ID, nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, created.ID, run.ID)

	_, status, _ = doJSON(t, app, "GET", "/reconciliation/runs/no-such-run", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleListRuns(t *testing.T) {
	app, _, _ := setupTestApp(t)

	_, status, _ := doJSON(t, app, "POST", "/reconciliation/runs", createRunRequest(), nil)
	require.Equal(t, fiber.StatusAccepted, status)

	_, status, body := doJSON(t, app, "GET", "/reconciliation/runs?page=1&limit=10", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)

	var page struct {
		Data  []models.ReconciliationRun `json:"data"`
		Total int64                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Len(t, page.Data, 1)

	_, status, _ = doJSON(t, app, "GET", "/reconciliation/runs?status=bogus", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandleCancelRun(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created, status, _ := doJSON(t, app, "POST", "/reconciliation/runs", createRunRequest(), nil)
	require.Equal(t, fiber.StatusAccepted, status)

	run, status, _ := doJSON(t, app, "POST", "/reconciliation/runs/"+created.ID+"/cancel", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.RunStatusCancelled, run.Status)

	_, status, _ = doJSON(t, app, "POST", "/reconciliation/runs/"+created.ID+"/cancel", nil, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	_, status, _ = doJSON(t, app, "POST", "/reconciliation/runs/no-such-run/cancel", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleDeleteRun(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created, status, _ := doJSON(t, app, "POST", "/reconciliation/runs", createRunRequest(), nil)
	require.Equal(t, fiber.StatusAccepted, status)

	req := httptest.NewRequest("DELETE", "/reconciliation/runs/"+created.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// Soft-deleted runs stay reachable by ID but leave the listing.
	_, status, _ = doJSON(t, app, "GET", "/reconciliation/runs/"+created.ID, nil, nil)
	assert.Equal(t, fiber.StatusOK, status)

	_, _, body := doJSON(t, app, "GET", "/reconciliation/runs", nil, nil)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Zero(t, page.Total)
}

func TestHandleResolveMismatch(t *testing.T) {
	app, _, db := setupTestApp(t)

	run := &models.ReconciliationRun{
		ID:       uuid.NewString(),
		Status:   models.RunStatusCompleted,
		DateFrom: dayStart,
		DateTo:   dayEnd,
		Sources:  models.StringList{source.SalesReport, source.Hardware},
	}
	require.NoError(t, db.Create(run).Error)
	mismatch := &models.ReconciliationMismatch{
		ID:         uuid.NewString(),
		RunID:      run.ID,
		Type:       models.MismatchOrderNotFound,
		SourceRefs: map[string]string{source.SalesReport: "TX-1", source.Hardware: ""},
	}
	require.NoError(t, db.Create(mismatch).Error)

	_, status, body := doJSON(t, app, "POST", "/reconciliation/mismatches/"+mismatch.ID+"/resolve",
		reconciliation.ResolveMismatchRequest{Notes: "refund issued"},
		map[string]string{"X-User-ID": "alice"})
	assert.Equal(t, fiber.StatusOK, status)

	var resolved models.ReconciliationMismatch
	require.NoError(t, json.Unmarshal(body, &resolved))
	assert.True(t, resolved.IsResolved)
	assert.Equal(t, "alice", resolved.ResolvedByUserID)
	assert.Equal(t, "refund issued", resolved.ResolutionNotes)

	_, status, _ = doJSON(t, app, "POST", "/reconciliation/mismatches/"+mismatch.ID+"/resolve",
		reconciliation.ResolveMismatchRequest{Notes: "again"}, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	_, status, _ = doJSON(t, app, "POST", "/reconciliation/mismatches/no-such-id/resolve",
		reconciliation.ResolveMismatchRequest{}, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleListMismatches(t *testing.T) {
	app, _, db := setupTestApp(t)

	run := &models.ReconciliationRun{
		ID:       uuid.NewString(),
		Status:   models.RunStatusCompleted,
		DateFrom: dayStart,
		DateTo:   dayEnd,
		Sources:  models.StringList{source.SalesReport, source.Hardware},
	}
	require.NoError(t, db.Create(run).Error)
	require.NoError(t, db.Create(&models.ReconciliationMismatch{
		ID:    uuid.NewString(),
		RunID: run.ID,
		Type:  models.MismatchDuplicate,
	}).Error)

	_, status, body := doJSON(t, app, "GET", "/reconciliation/runs/"+run.ID+"/mismatches?type=duplicate", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.EqualValues(t, 1, page.Total)

	_, status, _ = doJSON(t, app, "GET", "/reconciliation/runs/"+run.ID+"/mismatches?type=bogus", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	_, status, _ = doJSON(t, app, "GET", "/reconciliation/runs/no-such-run/mismatches", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleGetReportWithoutArchiver(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created, status, _ := doJSON(t, app, "POST", "/reconciliation/runs", createRunRequest(), nil)
	require.Equal(t, fiber.StatusAccepted, status)

	_, status, _ = doJSON(t, app, "GET", "/reconciliation/runs/"+created.ID+"/report", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
