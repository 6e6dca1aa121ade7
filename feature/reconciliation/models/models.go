package models

import (
	"time"

	"gorm.io/gorm"
)

// RunStatus is the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// IsValid reports whether s is a known status value.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// MismatchType classifies a persisted discrepancy.
type MismatchType string

const (
	// MismatchOrderNotFound marks a sale present in one source with no
	// counterpart found in another.
	MismatchOrderNotFound MismatchType = "order_not_found"
	// MismatchAmount marks a correlated group whose amounts deviate
	// beyond the amount tolerance.
	MismatchAmount MismatchType = "amount_mismatch"
	// MismatchTime marks a correlated group whose timestamps deviate
	// beyond the time tolerance.
	MismatchTime MismatchType = "time_mismatch"
	// MismatchDuplicate marks repeated external references within a
	// single source.
	MismatchDuplicate MismatchType = "duplicate"
)

// IsValid reports whether t is a known mismatch type.
func (t MismatchType) IsValid() bool {
	switch t {
	case MismatchOrderNotFound, MismatchAmount, MismatchTime, MismatchDuplicate:
		return true
	}
	return false
}

// RunSummary holds the aggregate counts computed when a run completes.
// Persisted as JSON alongside the COMPLETED transition; readers never
// observe a completed run without it.
type RunSummary struct {
	TotalRecords          int                  `json:"total_records"`
	RecordsBySource       map[string]int       `json:"records_by_source"`
	MatchedGroups         int                  `json:"matched_groups"`
	MismatchesByType      map[MismatchType]int `json:"mismatches_by_type"`
	TotalAmountReconciled int64                `json:"total_amount_reconciled"`
}

// StringList is a JSON-serialized list column.
type StringList []string

// ReconciliationRun is one execution of the reconciliation engine over a
// date range and source set. Runs are soft-deleted only, preserving the
// audit trail.
type ReconciliationRun struct {
	ID                   string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Status               RunStatus      `gorm:"type:varchar(16);index" json:"status"`
	DateFrom             time.Time      `json:"date_from"`
	DateTo               time.Time      `json:"date_to"`
	Sources              StringList     `gorm:"serializer:json" json:"sources"`
	MachineIDs           StringList     `gorm:"serializer:json" json:"machine_ids,omitempty"`
	TimeToleranceSeconds int            `json:"time_tolerance_seconds"`
	AmountTolerance      int64          `json:"amount_tolerance"`
	CreatedBy            string         `gorm:"type:varchar(64)" json:"created_by"`
	ErrorMessage         string         `json:"error_message,omitempty"`
	Summary              *RunSummary    `gorm:"serializer:json" json:"summary,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the GORM default.
func (ReconciliationRun) TableName() string {
	return "reconciliation_runs"
}

// AnchorSource returns the source whose records drive the matching search.
// By convention it is the first selected source.
func (r *ReconciliationRun) AnchorSource() string {
	if len(r.Sources) == 0 {
		return ""
	}
	return r.Sources[0]
}

// ReconciliationMismatch is a persisted discrepancy requiring operator
// attention. Mismatches belong to exactly one run but are never
// cascade-deleted with it.
type ReconciliationMismatch struct {
	ID                string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	RunID             string            `gorm:"type:varchar(36);index" json:"run_id"`
	Type              MismatchType      `gorm:"column:mismatch_type;type:varchar(32);index" json:"mismatch_type"`
	MachineID         string            `gorm:"type:varchar(64)" json:"machine_id"`
	MachineNumber     string            `gorm:"type:varchar(64)" json:"machine_number,omitempty"`
	Amount            int64             `json:"amount"`
	DiscrepancyAmount int64             `json:"discrepancy_amount"`
	SourceRefs        map[string]string `gorm:"serializer:json" json:"source_refs"`
	IsResolved        bool              `gorm:"index" json:"is_resolved"`
	ResolvedByUserID  string            `gorm:"type:varchar(64)" json:"resolved_by_user_id,omitempty"`
	ResolutionNotes   string            `json:"resolution_notes,omitempty"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TableName overrides the GORM default.
func (ReconciliationMismatch) TableName() string {
	return "reconciliation_mismatches"
}

// NormalizedSaleRecord is one sale as seen by one source, translated out
// of the origin schema. It is produced fresh per run and never persisted
// or shared across runs.
type NormalizedSaleRecord struct {
	SourceID   string
	ExternalID string
	OccurredAt time.Time
	Amount     int64 // currency minor units
	MachineID  string
}
