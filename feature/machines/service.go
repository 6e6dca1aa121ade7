package machines

import (
	"context"
	"errors"
	"sync"
	"time"

	"vendhub-backend/core/apperr"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// DefaultCacheTTL bounds how stale the in-memory directory index may be.
// Machines change rarely; mismatch decoration tolerates brief staleness.
const DefaultCacheTTL = 5 * time.Minute

// Service provides read access to the machine directory with a cached
// in-memory index. Index builds go through singleflight so concurrent
// run completions cannot stampede the database.
type Service struct {
	db     *gorm.DB
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.RWMutex
	index map[string]Machine
	built time.Time
	sf    singleflight.Group
}

// NewService creates a machine directory service.
func NewService(db *gorm.DB, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{db: db, ttl: ttl, logger: log}
}

// ResolveNumber resolves a machine ID to its machine number. A missing
// machine (or an unavailable index) degrades to not-found; callers fall
// back to the raw ID.
func (s *Service) ResolveNumber(ctx context.Context, machineID string) (string, bool) {
	index, err := s.getIndex(ctx)
	if err != nil {
		s.logger.Warn("machine index unavailable", zap.Error(err))
		return "", false
	}
	m, ok := index[machineID]
	if !ok {
		return "", false
	}
	return m.MachineNumber, true
}

// Get returns one machine by ID.
func (s *Service) Get(ctx context.Context, machineID string) (*Machine, error) {
	var m Machine
	if err := s.db.WithContext(ctx).First(&m, "id = ?", machineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("machine %s", machineID)
		}
		return nil, err
	}
	return &m, nil
}

// List returns machines ordered by machine number. page is 1-based.
func (s *Service) List(ctx context.Context, page, limit int) ([]Machine, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Machine{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var machines []Machine
	err := s.db.WithContext(ctx).
		Order("machine_number").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&machines).Error
	if err != nil {
		return nil, 0, err
	}
	return machines, total, nil
}

// getIndex returns the cached directory index, rebuilding it when
// expired. Singleflight collapses concurrent rebuilds.
func (s *Service) getIndex(ctx context.Context) (map[string]Machine, error) {
	s.mu.RLock()
	index, built := s.index, s.built
	s.mu.RUnlock()

	if index != nil && time.Since(built) <= s.ttl {
		return index, nil
	}

	result, err, _ := s.sf.Do("machine-index", func() (any, error) {
		// Double-check after acquiring the singleflight slot.
		s.mu.RLock()
		index, built := s.index, s.built
		s.mu.RUnlock()
		if index != nil && time.Since(built) <= s.ttl {
			return index, nil
		}

		var machines []Machine
		if err := s.db.WithContext(ctx).Find(&machines).Error; err != nil {
			return nil, err
		}
		fresh := make(map[string]Machine, len(machines))
		for _, m := range machines {
			fresh[m.ID] = m
		}

		s.mu.Lock()
		s.index = fresh
		s.built = time.Now()
		s.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]Machine), nil
}

// InvalidateIndex drops the cached index. Used by tests.
func (s *Service) InvalidateIndex() {
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
}
