package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/buildpeek/buildpeek/internal/domain/event"
	"github.com/buildpeek/buildpeek/internal/port"
	"go.uber.org/zap"
)

// Config contains maintenance service configuration
type Config struct {
	// PruneInterval is how often to prune old attempt history
	PruneInterval time.Duration

	// MaxAge is the retention window for finished attempts and events
	MaxAge time.Duration
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{
		PruneInterval: time.Hour,
		MaxAge:        168 * time.Hour,
	}
}

// Service periodically prunes attempt history and telemetry events that
// have aged out of the retention window.
type Service struct {
	config *Config
	store  port.Store
	events port.EventSink
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new maintenance Service
func New(cfg *Config, store port.Store, events port.EventSink, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = time.Hour
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 168 * time.Hour
	}

	return &Service{
		config: cfg,
		store:  store,
		events: events,
		logger: logger,
	}
}

// Start starts the maintenance service
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("maintenance service already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("maintenance service started",
		zap.Duration("prune_interval", s.config.PruneInterval),
		zap.Duration("max_age", s.config.MaxAge))

	s.wg.Add(1)
	go s.pruneLoop(ctx)

	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("maintenance service stopped")
	return nil
}

// Stop stops the maintenance service
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

// pruneLoop runs pruning on the configured interval
func (s *Service) pruneLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneOnce()
		}
	}
}

// pruneOnce removes attempts and events older than the retention window
func (s *Service) pruneOnce() {
	cutoff := time.Now().Add(-s.config.MaxAge)

	attempts, err := s.store.PruneAttempts(cutoff)
	if err != nil {
		s.logger.Warn("failed to prune attempts", zap.Error(err))
		return
	}

	events, err := s.store.PruneEvents(cutoff)
	if err != nil {
		s.logger.Warn("failed to prune events", zap.Error(err))
		return
	}

	if attempts > 0 || events > 0 {
		s.logger.Info("pruned attempt history",
			zap.Int("attempts", attempts),
			zap.Int("events", events),
			zap.Time("cutoff", cutoff))
		if s.events != nil {
			s.events.Report(event.NewAttemptsPruned(attempts, events))
		}
	}
}
