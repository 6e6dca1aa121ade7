package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"vendhub-backend/feature/reconciliation"
	"vendhub-backend/feature/reconciliation/models"
	"vendhub-backend/feature/reconciliation/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerExecutesRunToCompletion(t *testing.T) {
	db := setupDB(t)
	svc := reconciliation.NewService(db, source.DefaultRegistry(), nil, nil, zap.NewNop())
	w := reconciliation.NewWorker(svc, reconciliation.Config{Workers: 2, QueueSize: 8}, zap.NewNop())
	w.Start()
	defer w.Stop()

	seedPair(t, db, "TX-1", time.Second, 250, 250, "m-1")

	created, err := svc.CreateAndRun(context.Background(), "tester", defaultParams())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, created.Status)

	assert.Eventually(t, func() bool {
		run, err := svc.FindOne(context.Background(), created.ID)
		return err == nil && run.Status == models.RunStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerEnqueueSaturation(t *testing.T) {
	db := setupDB(t)
	svc := reconciliation.NewService(db, source.DefaultRegistry(), nil, nil, zap.NewNop())
	// Not started: nothing drains the queue.
	w := reconciliation.NewWorker(svc, reconciliation.Config{Workers: 1, QueueSize: 1}, zap.NewNop())

	assert.True(t, w.Enqueue("run-1"))
	assert.False(t, w.Enqueue("run-2"))
}

func TestWorkerStopWaitsForInFlightRuns(t *testing.T) {
	db := setupDB(t)
	svc := reconciliation.NewService(db, source.DefaultRegistry(), nil, nil, zap.NewNop())
	w := reconciliation.NewWorker(svc, reconciliation.Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	w.Start()

	seedPair(t, db, "TX-1", time.Second, 250, 250, "m-1")
	created, err := svc.CreateAndRun(context.Background(), "tester", defaultParams())
	require.NoError(t, err)

	// Stop drains the queue; the run must be terminal afterwards.
	w.Stop()
	run, err := svc.FindOne(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, run.Status.IsTerminal())

	// Stop is idempotent.
	w.Stop()
}

func TestCancelledRunIsSkippedByExecutor(t *testing.T) {
	db := setupDB(t)
	svc := reconciliation.NewService(db, source.DefaultRegistry(), nil, nil, zap.NewNop())
	// Queue without an executor, so the run stays PENDING until we race
	// the cancel against a manual Execute.
	svc.AttachQueue(noopQueue{})

	created, err := svc.CreateAndRun(context.Background(), "tester", defaultParams())
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)

	// The executor must observe the cancellation and step aside.
	require.NoError(t, svc.Execute(context.Background(), created.ID))

	run, err := svc.FindOne(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, run.Status)
}
