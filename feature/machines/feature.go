package machines

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the machine directory feature.
func NewFeature(db *gorm.DB, log *zap.Logger) *Feature {
	svc := NewService(db, DefaultCacheTTL, log)
	h := NewHandler(svc, log)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "machines"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the directory service so the reconciliation feature
// can resolve machine numbers.
func (f *Feature) Service() *Service {
	return f.service
}
