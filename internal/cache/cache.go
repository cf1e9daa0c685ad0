// Package cache provides a generic LRU cache with expiry and a manager
// that sweeps expired entries in the background.
package cache

import (
	"sync"
	"time"

	"expensebook/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans its registered caches.
type Manager struct {
	mu      sync.Mutex
	caches  []Cleaner
	logger  *log.Logger
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger: log.OrDiscard(logger).WithComponent(log.ComponentCache),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Start begins cleaning every interval. Calling Start twice is a no-op.
func (m *Manager) Start(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.loop(interval, m.stopCh, m.doneCh)
}

func (m *Manager) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-stop:
			return
		}
	}
}

// CleanNow cleans every registered cache once and returns the number of
// entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stop)
	<-done
}
