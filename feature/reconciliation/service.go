package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendhub-backend/core/apperr"
	"vendhub-backend/core/logger"
	"vendhub-backend/feature/reconciliation/match"
	"vendhub-backend/feature/reconciliation/models"
	"vendhub-backend/feature/reconciliation/source"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tolerance defaults and bounds. Tolerances outside the bounds would
// produce meaningless matches, so creation rejects them.
const (
	DefaultTimeToleranceSeconds = 5
	DefaultAmountTolerance      = 100
	MaxTimeToleranceSeconds     = 60
	MaxAmountTolerance          = 10000
)

// MachineResolver resolves a machine ID to its human-readable machine
// number. Display-only; matching correctness never depends on it.
type MachineResolver interface {
	ResolveNumber(ctx context.Context, machineID string) (string, bool)
}

// RunQueue hands a persisted run to the background executor.
type RunQueue interface {
	Enqueue(runID string) bool
}

// RunParams are the caller-supplied parameters for a new run.
// Nil tolerances take the defaults.
type RunParams struct {
	DateFrom             time.Time
	DateTo               time.Time
	Sources              []string
	MachineIDs           []string
	TimeToleranceSeconds *int
	AmountTolerance      *int64
}

// Service owns the run state machine and the resolution workflow.
// All transitions of a single run go through conditional updates, so a
// run that has left PENDING can no longer be cancelled and a resolved
// mismatch can no longer be re-resolved.
type Service struct {
	db       *gorm.DB
	registry *source.Registry
	machines MachineResolver // optional
	archiver *ReportArchiver // optional
	queue    RunQueue
	logger   *zap.Logger
}

// NewService creates the reconciliation service. machines and archiver
// may be nil; the queue is attached after the worker is constructed.
func NewService(db *gorm.DB, registry *source.Registry, machines MachineResolver, archiver *ReportArchiver, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		registry: registry,
		machines: machines,
		archiver: archiver,
		logger:   log,
	}
}

// AttachQueue wires the background executor queue.
func (s *Service) AttachQueue(q RunQueue) {
	s.queue = q
}

// CreateAndRun validates the parameters, persists a PENDING run and
// hands it to the background executor. The PENDING run is returned
// immediately; completion (or failure) is observed through FindOne.
func (s *Service) CreateAndRun(ctx context.Context, userID string, params RunParams) (*models.ReconciliationRun, error) {
	run, err := buildRun(userID, params)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	if s.queue == nil || !s.queue.Enqueue(run.ID) {
		// Still a captured failure: the run row records why it never ran.
		cause := errors.New("worker queue saturated")
		s.markFailed(run.ID, cause)
		s.logger.Error("failed to enqueue run", zap.String("run_id", run.ID))
		return s.FindOne(ctx, run.ID)
	}

	s.logger.Info("run created",
		zap.String("run_id", run.ID),
		zap.Strings("sources", run.Sources),
		zap.String("created_by", userID),
	)
	return run, nil
}

// buildRun validates params and assembles a PENDING run row.
func buildRun(userID string, params RunParams) (*models.ReconciliationRun, error) {
	if len(params.Sources) < 2 {
		return nil, apperr.Validationf("at least 2 sources required, got %d", len(params.Sources))
	}
	seen := make(map[string]struct{}, len(params.Sources))
	for _, src := range params.Sources {
		if src == "" {
			return nil, apperr.Validationf("source identifiers must be non-empty")
		}
		if _, dup := seen[src]; dup {
			return nil, apperr.Validationf("duplicate source %q", src)
		}
		seen[src] = struct{}{}
	}
	if params.DateTo.Before(params.DateFrom) {
		return nil, apperr.Validationf("date_to must not precede date_from")
	}

	timeTol := DefaultTimeToleranceSeconds
	if params.TimeToleranceSeconds != nil {
		timeTol = *params.TimeToleranceSeconds
	}
	if timeTol < 0 || timeTol > MaxTimeToleranceSeconds {
		return nil, apperr.Validationf("time_tolerance_seconds must be in [0,%d], got %d", MaxTimeToleranceSeconds, timeTol)
	}

	amountTol := int64(DefaultAmountTolerance)
	if params.AmountTolerance != nil {
		amountTol = *params.AmountTolerance
	}
	if amountTol < 0 || amountTol > MaxAmountTolerance {
		return nil, apperr.Validationf("amount_tolerance must be in [0,%d], got %d", MaxAmountTolerance, amountTol)
	}

	return &models.ReconciliationRun{
		ID:                   uuid.NewString(),
		Status:               models.RunStatusPending,
		DateFrom:             params.DateFrom,
		DateTo:               params.DateTo,
		Sources:              models.StringList(params.Sources),
		MachineIDs:           models.StringList(params.MachineIDs),
		TimeToleranceSeconds: timeTol,
		AmountTolerance:      amountTol,
		CreatedBy:            userID,
	}, nil
}

// Execute drives one run from PENDING to a terminal state. It is called
// by the background worker (and synchronously by the CLI). Any panic or
// error in this path marks the run FAILED with the cause persisted on
// the run row; a run is never left stuck in RUNNING.
func (s *Service) Execute(ctx context.Context, runID string) (err error) {
	l := logger.WithRun(s.logger, runID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
			s.markFailed(runID, err)
			l.Error("run panicked", zap.Any("panic", r))
		}
	}()

	// Claim the run. Zero rows means it was cancelled (or is already
	// terminal); the cancellation won the race and we step aside.
	claim := s.db.WithContext(ctx).
		Model(&models.ReconciliationRun{}).
		Where("id = ? AND status = ?", runID, models.RunStatusPending).
		Update("status", models.RunStatusRunning)
	if claim.Error != nil {
		s.markFailed(runID, claim.Error)
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		l.Info("run no longer pending, skipping")
		return nil
	}

	var run models.ReconciliationRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error; err != nil {
		s.markFailed(runID, err)
		return err
	}

	tol := match.Tolerances{
		Time:   time.Duration(run.TimeToleranceSeconds) * time.Second,
		Amount: run.AmountTolerance,
	}

	// Load every selected source. A failed non-anchor source contributes
	// an empty list and a persisted note; a failed anchor fails the run.
	lists := make([]match.SourceRecords, 0, len(run.Sources))
	var loadNotes []string
	for i, sourceID := range run.Sources {
		records, loadErr := s.registry.Load(ctx, s.db, sourceID, run.DateFrom, run.DateTo, run.MachineIDs)
		if loadErr != nil {
			srcErr := &apperr.SourceLoadError{SourceID: sourceID, Err: loadErr}
			if i == 0 {
				s.markFailed(runID, srcErr)
				l.Error("anchor source load failed", zap.Error(srcErr))
				return srcErr
			}
			l.Warn("source load failed, continuing with empty list", zap.Error(srcErr))
			loadNotes = append(loadNotes, srcErr.Error())
			records = nil
		}
		lists = append(lists, match.SourceRecords{SourceID: sourceID, Records: records})
	}

	result := match.Run(lists, tol)
	classified := match.Classify(lists, result, tol)

	rows := s.buildMismatchRows(ctx, &run, classified)
	summary := buildSummary(lists, result, rows)

	now := time.Now().UTC()
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("persist mismatches: %w", err)
			}
		}
		// Summary and COMPLETED land atomically: readers never observe a
		// completed run without its summary.
		res := tx.Model(&models.ReconciliationRun{}).
			Where("id = ? AND status = ?", runID, models.RunStatusRunning).
			Updates(models.ReconciliationRun{
				Status:       models.RunStatusCompleted,
				Summary:      summary,
				CompletedAt:  &now,
				ErrorMessage: strings.Join(loadNotes, "; "),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("run %s left RUNNING mid-flight", runID)
		}
		return nil
	})
	if txErr != nil {
		s.markFailed(runID, txErr)
		return txErr
	}

	if s.archiver != nil {
		// Best effort; an unreachable bucket never fails a completed run.
		if archiveErr := s.archiver.Archive(ctx, &run, summary, rows); archiveErr != nil {
			l.Warn("report archive failed", zap.Error(archiveErr))
		}
	}

	l.Info("run completed",
		zap.Int("matched_groups", summary.MatchedGroups),
		zap.Int("mismatches", len(rows)),
		zap.Int("total_records", summary.TotalRecords),
	)
	return nil
}

// markFailed transitions a non-terminal run to FAILED and persists the
// cause on the run row, so operators can inspect failures without
// server log access. Uses a background context so a cancelled request
// context cannot lose the failure record.
func (s *Service) markFailed(runID string, cause error) {
	now := time.Now().UTC()
	err := s.db.
		Model(&models.ReconciliationRun{}).
		Where("id = ? AND status IN ?", runID, []models.RunStatus{models.RunStatusPending, models.RunStatusRunning}).
		Updates(models.ReconciliationRun{
			Status:       models.RunStatusFailed,
			ErrorMessage: cause.Error(),
			CompletedAt:  &now,
		}).Error
	if err != nil {
		s.logger.Error("failed to mark run failed",
			zap.String("run_id", runID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
}

// buildMismatchRows turns classifier output into persistable rows,
// decorating each with the human-readable machine number when the
// machine directory knows the machine.
func (s *Service) buildMismatchRows(ctx context.Context, run *models.ReconciliationRun, classified []match.Mismatch) []models.ReconciliationMismatch {
	rows := make([]models.ReconciliationMismatch, 0, len(classified))
	for _, m := range classified {
		row := models.ReconciliationMismatch{
			ID:                uuid.NewString(),
			RunID:             run.ID,
			Type:              m.Type,
			MachineID:         m.MachineID,
			Amount:            m.Amount,
			DiscrepancyAmount: m.DiscrepancyAmount,
			SourceRefs:        m.SourceRefs,
		}
		if s.machines != nil && m.MachineID != "" {
			if number, ok := s.machines.ResolveNumber(ctx, m.MachineID); ok {
				row.MachineNumber = number
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// buildSummary computes the aggregate counts persisted with COMPLETED.
func buildSummary(lists []match.SourceRecords, result match.Result, rows []models.ReconciliationMismatch) *models.RunSummary {
	summary := &models.RunSummary{
		RecordsBySource:  make(map[string]int, len(lists)),
		MatchedGroups:    len(result.Groups),
		MismatchesByType: make(map[models.MismatchType]int),
	}
	for _, list := range lists {
		summary.RecordsBySource[list.SourceID] = len(list.Records)
		summary.TotalRecords += len(list.Records)
	}
	for _, group := range result.Groups {
		summary.TotalAmountReconciled += group.Anchor().Amount
	}
	for _, row := range rows {
		summary.MismatchesByType[row.Type]++
	}
	return summary
}

// Cancel aborts a run that has not started executing. Only PENDING runs
// are cancellable; the conditional update closes the race between an
// operator cancelling and the engine claiming the run.
func (s *Service) Cancel(ctx context.Context, runID string) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("run %s", runID)
		}
		return nil, err
	}

	res := s.db.WithContext(ctx).
		Model(&models.ReconciliationRun{}).
		Where("id = ? AND status = ?", runID, models.RunStatusPending).
		Update("status", models.RunStatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflictf("run %s is %s, only pending runs can be cancelled", runID, run.Status)
	}

	s.logger.Info("run cancelled", zap.String("run_id", runID))
	return s.FindOne(ctx, runID)
}

// FindOne returns a run by ID, including soft-deleted runs (the audit
// trail stays reachable by direct ID).
func (s *Service) FindOne(ctx context.Context, runID string) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := s.db.WithContext(ctx).Unscoped().First(&run, "id = ?", runID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("run %s", runID)
		}
		return nil, err
	}
	return &run, nil
}

// FindAll lists non-deleted runs, newest first, optionally filtered by
// status. page is 1-based.
func (s *Service) FindAll(ctx context.Context, page, limit int, status models.RunStatus) ([]models.ReconciliationRun, int64, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, apperr.Validationf("unknown status %q", status)
	}
	page, limit = normalizePage(page, limit)

	q := s.db.WithContext(ctx).Model(&models.ReconciliationRun{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []models.ReconciliationRun
	err := q.Order("created_at DESC, id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// GetMismatches lists a run's mismatches, optionally filtered by type.
// The run must exist (soft-deleted runs included; their mismatches are
// kept for audit).
func (s *Service) GetMismatches(ctx context.Context, runID string, page, limit int, mismatchType models.MismatchType) ([]models.ReconciliationMismatch, int64, error) {
	if mismatchType != "" && !mismatchType.IsValid() {
		return nil, 0, apperr.Validationf("unknown mismatch type %q", mismatchType)
	}
	if _, err := s.FindOne(ctx, runID); err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)

	q := s.db.WithContext(ctx).Model(&models.ReconciliationMismatch{}).Where("run_id = ?", runID)
	if mismatchType != "" {
		q = q.Where("mismatch_type = ?", mismatchType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mismatches []models.ReconciliationMismatch
	err := q.Order("created_at, id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&mismatches).Error
	if err != nil {
		return nil, 0, err
	}
	return mismatches, total, nil
}

// Remove soft-deletes a run. Its mismatches remain for audit.
func (s *Service) Remove(ctx context.Context, runID string) error {
	var run models.ReconciliationRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("run %s", runID)
		}
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&run).Error; err != nil {
		return err
	}
	s.logger.Info("run removed", zap.String("run_id", runID))
	return nil
}

// ResolveMismatch marks a mismatch resolved with an operator note.
// The guard is a single conditional update on is_resolved, so two
// concurrent operators cannot both win; the loser gets a state conflict
// and the first resolution is never overwritten.
func (s *Service) ResolveMismatch(ctx context.Context, mismatchID, userID, notes string) (*models.ReconciliationMismatch, error) {
	var mismatch models.ReconciliationMismatch
	if err := s.db.WithContext(ctx).First(&mismatch, "id = ?", mismatchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("mismatch %s", mismatchID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.ReconciliationMismatch{}).
		Where("id = ? AND is_resolved = ?", mismatchID, false).
		Updates(map[string]any{
			"is_resolved":         true,
			"resolved_by_user_id": userID,
			"resolution_notes":    notes,
			"resolved_at":         now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflictf("mismatch %s is already resolved", mismatchID)
	}

	if err := s.db.WithContext(ctx).First(&mismatch, "id = ?", mismatchID).Error; err != nil {
		return nil, err
	}
	s.logger.Info("mismatch resolved",
		zap.String("mismatch_id", mismatchID),
		zap.String("resolved_by", userID),
	)
	return &mismatch, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}
