package source

import (
	"context"
	"fmt"
	"time"

	"vendhub-backend/feature/reconciliation/models"

	"gorm.io/gorm"
)

// HardwareSale is a row of the hardware-imported sales log. Vending
// machine telemetry clocks drift, so these timestamps are the usual
// reason a time tolerance is needed at all.
type HardwareSale struct {
	ID          uint      `gorm:"primaryKey"`
	EventRef    string    `gorm:"type:varchar(64)"`
	ReportedAt  time.Time `gorm:"index"`
	AmountMinor int64
	MachineID   string `gorm:"type:varchar(64);index"`
}

// TableName overrides the GORM default.
func (HardwareSale) TableName() string {
	return "hardware_sales"
}

// HardwareAdapter loads the hardware-imported sales log.
type HardwareAdapter struct{}

// NewHardwareAdapter creates the adapter.
func NewHardwareAdapter() *HardwareAdapter {
	return &HardwareAdapter{}
}

// ID implements Adapter.
func (a *HardwareAdapter) ID() string {
	return Hardware
}

// Load implements Adapter.
func (a *HardwareAdapter) Load(ctx context.Context, db *gorm.DB, from, to time.Time, machineIDs []string) ([]models.NormalizedSaleRecord, error) {
	var rows []HardwareSale

	q := db.WithContext(ctx).
		Where("reported_at >= ? AND reported_at <= ?", from, to)
	if len(machineIDs) > 0 {
		q = q.Where("machine_id IN ?", machineIDs)
	}
	if err := q.Order("reported_at, event_ref").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hardware sales query: %w", err)
	}

	records := make([]models.NormalizedSaleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.NormalizedSaleRecord{
			SourceID:   Hardware,
			ExternalID: row.EventRef,
			OccurredAt: row.ReportedAt,
			Amount:     row.AmountMinor,
			MachineID:  row.MachineID,
		})
	}
	return records, nil
}
