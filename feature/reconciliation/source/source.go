package source

import (
	"context"
	"time"

	"vendhub-backend/feature/reconciliation/models"

	"gorm.io/gorm"
)

// Well-known source identifiers. The registry is open; new sources plug
// in as new Adapter implementations without touching the matcher.
const (
	SalesReport = "sales_report"
	Hardware    = "hardware"
	Gateway     = "gateway"
)

// Adapter loads sale records from one origin and translates them into
// the normalized shape, applying the machine filter server-side where
// the origin schema allows it.
type Adapter interface {
	// ID returns the source identifier this adapter serves.
	ID() string
	// Load returns all normalized sale records in [from, to], optionally
	// restricted to the given machine IDs. Results are ordered by
	// occurrence time then external ID so matching is reproducible.
	Load(ctx context.Context, db *gorm.DB, from, to time.Time, machineIDs []string) ([]models.NormalizedSaleRecord, error)
}

// Registry maps source identifiers to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.ID()] = a
	}
	return r
}

// DefaultRegistry returns a registry with all built-in adapters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewSalesReportAdapter(),
		NewHardwareAdapter(),
		NewGatewayAdapter(),
	)
}

// Load dispatches to the adapter for sourceID. Unknown or
// not-yet-implemented sources contribute an empty list rather than an
// error, keeping a partially-configured run completable.
func (r *Registry) Load(ctx context.Context, db *gorm.DB, sourceID string, from, to time.Time, machineIDs []string) ([]models.NormalizedSaleRecord, error) {
	adapter, ok := r.adapters[sourceID]
	if !ok {
		return []models.NormalizedSaleRecord{}, nil
	}
	return adapter.Load(ctx, db, from, to, machineIDs)
}

// Known reports whether sourceID has a registered adapter.
func (r *Registry) Known(sourceID string) bool {
	_, ok := r.adapters[sourceID]
	return ok
}

// TableFor returns the backing table for a source identifier, used by
// the CLI preflight check. Empty for unknown sources.
func TableFor(sourceID string) string {
	switch sourceID {
	case SalesReport:
		return "sales_report_transactions"
	case Hardware:
		return "hardware_sales"
	case Gateway:
		return "gateway_ledger_entries"
	}
	return ""
}
