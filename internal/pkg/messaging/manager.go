package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const stuckMaxAge = 10 * time.Minute
const stuckSweepInterval = 1 * time.Minute

// Manager runs one consumer loop per registered queue plus the
// stuck-delivery recovery sweep.
type Manager struct {
	broker    Broker
	consumers []*Consumer
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewManager creates a manager over the given broker.
func NewManager(broker Broker) *Manager {
	return &Manager{broker: broker}
}

// Register adds a consumer for a queue. Must be called before Start.
func (m *Manager) Register(queue, feature string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumers = append(m.consumers, NewConsumer(m.broker, queue, feature, handler))
}

// Queues lists the registered queue names.
func (m *Manager) Queues() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.consumers))
	for _, c := range m.consumers {
		names = append(names, c.Queue())
	}
	return names
}

// Start launches all consumer loops and the recovery sweeper.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	log.Infof("[Manager] Starting %d queue consumers", len(m.consumers))

	for _, c := range m.consumers {
		m.wg.Add(1)
		go func(c *Consumer) {
			defer m.wg.Done()
			c.Run(ctx)
		}(c)
	}

	m.wg.Add(1)
	go m.recoveryWorker(ctx)

	log.Info("[Manager] Started successfully")
}

// Stop cancels the loops and waits for in-flight handlers to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Manager] Stopping queue consumers...")
	m.cancel()
	m.wg.Wait()
	m.running = false
	log.Info("[Manager] All consumers stopped")
}

// recoveryWorker periodically requeues deliveries stuck on processing
// lists, e.g. after a crashed worker instance.
func (m *Manager) recoveryWorker(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(stuckSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, queue := range m.Queues() {
				recovered, err := m.broker.RecoverStuck(ctx, queue, stuckMaxAge)
				if err != nil {
					if ctx.Err() == nil {
						log.Errorf("[Manager] Recovery sweep failed for %s: %v", queue, err)
					}
					continue
				}
				if recovered > 0 {
					log.Warnf("[Manager] Recovered %d stuck deliveries on %s", recovered, queue)
				}
			}
		}
	}
}
