package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Timeout time.Duration
}

// NewService constructs a health service. db may be nil when the archive is in memory.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Timeout: 2 * time.Second}
}

// Status reports overall health and whether the database answered.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	status := map[string]any{"ok": true, "database": "memory"}
	if s == nil || s.DB == nil {
		return status, true
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		status["ok"] = false
		status["database"] = "unreachable"
		return status, false
	}
	status["database"] = "ok"
	return status, true
}
