package reconciliation

import (
	"vendhub-backend/feature/reconciliation/source"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	worker  *Worker
	handler *Handler
}

// NewFeature creates the reconciliation feature. machines and archiver
// may be nil (no machine-number decoration / no report archiving).
func NewFeature(db *gorm.DB, cfg Config, machines MachineResolver, archiver *ReportArchiver, log *zap.Logger) *Feature {
	svc := NewService(db, source.DefaultRegistry(), machines, archiver, log)
	w := NewWorker(svc, cfg, log)
	h := NewHandler(svc)
	return &Feature{service: svc, worker: w, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reconciliation"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load starts the background worker and registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.worker.Start()
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the run service for CLI use.
func (f *Feature) Service() *Service {
	return f.service
}

// Worker exposes the background executor for graceful shutdown.
func (f *Feature) Worker() *Worker {
	return f.worker
}
