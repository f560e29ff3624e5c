package catalog

import (
	"context"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	healthCheckTimeout = 5 * time.Second
)

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthReport aggregates dependency probes
type HealthReport struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
	LastSync   *SyncReport       `json:"last_sync,omitempty"`
}

// Healthy reports whether every component passed
func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}

// AddHealthCheck registers a dependency probe. The store is always checked.
func (s *Service) AddHealthCheck(name string, check func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, HealthCheck{Name: name, Check: check})
}

// Health runs every probe with a short timeout
func (s *Service) Health(ctx context.Context) HealthReport {
	s.mu.RLock()
	checks := append([]HealthCheck{{Name: "database", Check: s.store.Health}}, s.checks...)
	s.mu.RUnlock()

	report := HealthReport{
		Status:     StatusHealthy,
		Timestamp:  s.clock.Now().UTC(),
		Components: make(map[string]string, len(checks)),
	}

	for _, hc := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := hc.Check(checkCtx)
		cancel()

		if err != nil {
			report.Components[hc.Name] = StatusUnhealthy + ": " + err.Error()
			report.Status = StatusUnhealthy
			continue
		}
		report.Components[hc.Name] = StatusHealthy
	}

	if last, ok := s.LastSync(); ok {
		report.LastSync = &last
	}
	return report
}
