package service

import (
	"context"
	"log"
	"sync"
	"time"

	"pantryhub-api/internal/repository"
)

// SweeperConfig holds configuration for the order sweeper.
type SweeperConfig struct {
	// MaxPendingAge is how long an order may stay pending before it is
	// cancelled and its stock restored. Default: 3 days.
	MaxPendingAge time.Duration

	// Interval is how often the sweep runs. Default: 1 hour.
	Interval time.Duration
}

// DefaultSweeperConfig returns default sweeper configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		MaxPendingAge: 3 * 24 * time.Hour,
		Interval:      time.Hour,
	}
}

// OrderSweeper periodically cancels pending orders that were never picked up,
// returning their stock to the shelf.
type OrderSweeper struct {
	store     repository.Store
	checkout  *CheckoutService
	config    SweeperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewOrderSweeper creates a new order sweeper.
func NewOrderSweeper(store repository.Store, checkout *CheckoutService, config SweeperConfig) *OrderSweeper {
	if config.MaxPendingAge == 0 {
		config.MaxPendingAge = 3 * 24 * time.Hour
	}
	if config.Interval == 0 {
		config.Interval = time.Hour
	}

	return &OrderSweeper{
		store:    store,
		checkout: checkout,
		config:   config,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *OrderSweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[OrderSweeper] Started - Interval: %v, MaxPendingAge: %v",
		s.config.Interval, s.config.MaxPendingAge)

	go s.run()
}

func (s *OrderSweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSweep()
		case <-s.stopCh:
			log.Printf("[OrderSweeper] Stopped")
			return
		}
	}
}

func (s *OrderSweeper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cancelled, err := s.sweep(ctx)
	if err != nil {
		log.Printf("[OrderSweeper] Error during sweep: %v", err)
		return
	}
	if cancelled > 0 {
		log.Printf("[OrderSweeper] Cancelled %d stale pending orders", cancelled)
	}
}

func (s *OrderSweeper) sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.config.MaxPendingAge)
	stale, err := s.store.StalePendingOrders(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, o := range stale {
		if _, err := s.checkout.CancelOrder(ctx, o.ID, "sweeper"); err != nil {
			log.Printf("[OrderSweeper] Failed to cancel order %s: %v", o.ID, err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// Stop stops the sweeper.
func (s *OrderSweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (s *OrderSweeper) RunNow() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return s.sweep(ctx)
}
