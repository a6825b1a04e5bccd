package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/startracker/internal/log"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the outcome of the most recent check of one dependency.
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthMonitor remembers the latest health of named dependencies.
type HealthMonitor struct {
	mu     sync.RWMutex
	health map[string]Health
	now    func() time.Time
}

func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{health: make(map[string]Health), now: time.Now}
}

// Check runs fn and records its result under name.
func (hm *HealthMonitor) Check(ctx context.Context, name string, fn func(context.Context) error) Health {
	h := Health{LastCheck: hm.now(), Status: StatusHealthy, Message: "OK"}
	if err := fn(ctx); err != nil {
		h.Status = StatusUnhealthy
		h.Message = ""
		h.Error = err.Error()
		log.Warnf("%s health check failed: %v", name, err)
	}

	hm.mu.Lock()
	hm.health[name] = h
	hm.mu.Unlock()
	return h
}

// Get returns the last result recorded for name.
func (hm *HealthMonitor) Get(name string) (Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.health[name]
	return h, ok
}

// All returns a copy of every recorded result.
func (hm *HealthMonitor) All() map[string]Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	out := make(map[string]Health, len(hm.health))
	for k, v := range hm.health {
		out[k] = v
	}
	return out
}

// IsHealthy reports whether name passed a check no older than maxAge.
func (hm *HealthMonitor) IsHealthy(name string, maxAge time.Duration) bool {
	h, ok := hm.Get(name)
	if !ok || hm.now().Sub(h.LastCheck) > maxAge {
		return false
	}
	return h.Status == StatusHealthy
}

// Run checks store every interval until ctx is done.
func (hm *HealthMonitor) Run(ctx context.Context, store Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		hm.Check(ctx, "catalog", store.Ping)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
