package source

import (
	"context"
	"fmt"
	"time"

	"vendhub-backend/feature/reconciliation/models"

	"gorm.io/gorm"
)

// SalesReportTransaction is a row of the externally-owned POS sales
// report ledger. Read-only here.
type SalesReportTransaction struct {
	ID            uint      `gorm:"primaryKey"`
	TransactionID string    `gorm:"type:varchar(64)"`
	SoldAt        time.Time `gorm:"index"`
	AmountMinor   int64
	MachineID     string `gorm:"type:varchar(64);index"`
}

// TableName overrides the GORM default.
func (SalesReportTransaction) TableName() string {
	return "sales_report_transactions"
}

// SalesReportAdapter loads the POS sales report ledger, typically the
// anchor source of a run.
type SalesReportAdapter struct{}

// NewSalesReportAdapter creates the adapter.
func NewSalesReportAdapter() *SalesReportAdapter {
	return &SalesReportAdapter{}
}

// ID implements Adapter.
func (a *SalesReportAdapter) ID() string {
	return SalesReport
}

// Load implements Adapter.
func (a *SalesReportAdapter) Load(ctx context.Context, db *gorm.DB, from, to time.Time, machineIDs []string) ([]models.NormalizedSaleRecord, error) {
	var rows []SalesReportTransaction

	q := db.WithContext(ctx).
		Where("sold_at >= ? AND sold_at <= ?", from, to)
	if len(machineIDs) > 0 {
		q = q.Where("machine_id IN ?", machineIDs)
	}
	if err := q.Order("sold_at, transaction_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sales report query: %w", err)
	}

	records := make([]models.NormalizedSaleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.NormalizedSaleRecord{
			SourceID:   SalesReport,
			ExternalID: row.TransactionID,
			OccurredAt: row.SoldAt,
			Amount:     row.AmountMinor,
			MachineID:  row.MachineID,
		})
	}
	return records, nil
}
