package syncqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/bookingstore"
)

// Manager owns the sync queue plus the periodic staleness check that enqueues
// a resync whenever a configuration's cache has run past its TTL. Constructed
// by the composition root and passed to whoever needs it, not a singleton.
type Manager struct {
	queue         *Queue
	store         *bookingstore.Store
	configs       []int
	checkInterval time.Duration

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewManager wires the queue to the booking store. configs lists the
// configuration slots the staleness checker watches.
func NewManager(queue *Queue, store *bookingstore.Store, configs []int, checkInterval time.Duration) *Manager {
	if checkInterval <= 0 {
		checkInterval = 15 * time.Minute
	}
	return &Manager{
		queue:         queue,
		store:         store,
		configs:       configs,
		checkInterval: checkInterval,
	}
}

// GetQueue returns the managed queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the queue workers and the staleness checker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[SyncQueue Manager] Starting queue and staleness checker")

	m.queue.Start()

	m.wg.Add(1)
	go m.stalenessChecker()
}

// Stop stops the staleness checker and drains the queue workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()
	m.queue.Stop()
	log.Info("[SyncQueue Manager] Stopped")
}

func (m *Manager) stalenessChecker() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.enqueueStaleConfigs()
		}
	}
}

func (m *Manager) enqueueStaleConfigs() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, n := range m.configs {
		if m.store.IsCacheValid(ctx, n) {
			continue
		}
		if _, err := m.queue.EnqueueResync(n); err != nil {
			log.Errorf("[SyncQueue Manager] Failed to enqueue resync for config %d: %v", n, err)
		}
	}
}
