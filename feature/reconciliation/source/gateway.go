package source

import (
	"context"
	"fmt"
	"time"

	"vendhub-backend/feature/reconciliation/models"

	"gorm.io/gorm"
)

// saleTag is the metadata tag marking a ledger entry as a vending sale.
// The gateway ledger also carries refunds, fees and payouts; only tagged
// sale entries participate in reconciliation.
const saleTag = "vending_sale"

// GatewayLedgerEntry is a row of the payment-processor ledger,
// pre-imported and tagged by the ETL pipeline. Read-only here.
type GatewayLedgerEntry struct {
	ID          uint      `gorm:"primaryKey"`
	ExternalRef string    `gorm:"type:varchar(64)"`
	SettledAt   time.Time `gorm:"index"`
	AmountMinor int64
	MachineID   string `gorm:"type:varchar(64);index"`
	MetadataTag string `gorm:"type:varchar(32);index"`
}

// TableName overrides the GORM default.
func (GatewayLedgerEntry) TableName() string {
	return "gateway_ledger_entries"
}

// GatewayAdapter loads sale-tagged entries of the payment-gateway ledger.
type GatewayAdapter struct{}

// NewGatewayAdapter creates the adapter.
func NewGatewayAdapter() *GatewayAdapter {
	return &GatewayAdapter{}
}

// ID implements Adapter.
func (a *GatewayAdapter) ID() string {
	return Gateway
}

// Load implements Adapter.
func (a *GatewayAdapter) Load(ctx context.Context, db *gorm.DB, from, to time.Time, machineIDs []string) ([]models.NormalizedSaleRecord, error) {
	var rows []GatewayLedgerEntry

	q := db.WithContext(ctx).
		Where("metadata_tag = ?", saleTag).
		Where("settled_at >= ? AND settled_at <= ?", from, to)
	if len(machineIDs) > 0 {
		q = q.Where("machine_id IN ?", machineIDs)
	}
	if err := q.Order("settled_at, external_ref").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gateway ledger query: %w", err)
	}

	records := make([]models.NormalizedSaleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.NormalizedSaleRecord{
			SourceID:   Gateway,
			ExternalID: row.ExternalRef,
			OccurredAt: row.SettledAt,
			Amount:     row.AmountMinor,
			MachineID:  row.MachineID,
		})
	}
	return records, nil
}
