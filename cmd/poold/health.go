// health.go - Component health tracking for the pool daemon.
package main

import (
	"sync"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

// ComponentHealth is the health of one component.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message"`
	LastCheck time.Time    `json:"last_check"`
}

// HealthReport is the aggregate served at /health.
type HealthReport struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
}

// HealthChecker tracks per-component health. Components register either a
// probe function, run on every CheckHealth, or get pushed updates via
// UpdateComponent.
type HealthChecker struct {
	mu         sync.Mutex
	components map[string]*ComponentHealth
	checkers   map[string]func() error
	startTime  time.Time
	version    string
}

// NewHealthChecker creates a health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		components: make(map[string]*ComponentHealth),
		checkers:   make(map[string]func() error),
		startTime:  time.Now(),
		version:    version,
	}
}

// RegisterComponent registers a component; checker may be nil for
// push-only components.
func (hc *HealthChecker) RegisterComponent(name string, checker func() error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.components[name] = &ComponentHealth{
		Name:      name,
		Status:    Healthy,
		Message:   "registered",
		LastCheck: time.Now(),
	}
	if checker != nil {
		hc.checkers[name] = checker
	}
}

// UpdateComponent pushes a health status for a component.
func (hc *HealthChecker) UpdateComponent(name string, status HealthStatus, message string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if c, ok := hc.components[name]; ok {
		c.Status = status
		c.Message = message
		c.LastCheck = time.Now()
	}
}

// CheckHealth runs all registered probes and returns the aggregate report.
func (hc *HealthChecker) CheckHealth() *HealthReport {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	overall := Healthy
	components := make([]ComponentHealth, 0, len(hc.components))
	for name, c := range hc.components {
		if checker, ok := hc.checkers[name]; ok {
			if err := checker(); err != nil {
				c.Status = Unhealthy
				c.Message = err.Error()
			} else {
				c.Status = Healthy
				c.Message = "OK"
			}
			c.LastCheck = time.Now()
		}
		if c.Status == Unhealthy {
			overall = Unhealthy
		}
		components = append(components, *c)
	}

	return &HealthReport{
		Status:     overall,
		Timestamp:  time.Now(),
		Components: components,
		Uptime:     time.Since(hc.startTime).String(),
		Version:    hc.version,
	}
}
