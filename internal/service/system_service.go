package service

import (
	"database/sql"

	"github.com/papertrade/virtual-trading-backend/internal/database"
	"github.com/papertrade/virtual-trading-backend/internal/ratelimit"
	"github.com/papertrade/virtual-trading-backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db      *sql.DB
	limiter *ratelimit.Limiter
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, limiter *ratelimit.Limiter) *SystemService {
	return &SystemService{
		db:      db,
		limiter: limiter,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

func (s *SystemService) CheckVersion() string {
	return version.Version
}

// ProviderQuota reports how many provider requests remain in the current
// daily window.
func (s *SystemService) ProviderQuota() int {
	return s.limiter.RemainingToday()
}
