package port

import (
	"time"

	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/domain/event"
)

// AttemptRepository persists fetch attempt metadata
type AttemptRepository interface {
	// CreateAttempt inserts a new in-progress attempt
	CreateAttempt(attempt *domain.Attempt) error

	// UpdateAttemptProgress updates the running byte count of an attempt
	UpdateAttemptProgress(id string, bytesDownloaded int64) error

	// FinishAttempt records the terminal state of an attempt
	FinishAttempt(attempt *domain.Attempt) error

	// GetAttempt returns the attempt with the given ID, or
	// domain.ErrAttemptNotFound
	GetAttempt(id string) (*domain.Attempt, error)

	// ListAttempts returns the most recent attempts, newest first
	ListAttempts(limit int) ([]*domain.Attempt, error)

	// PruneAttempts deletes finished attempts older than the cutoff and
	// returns the number removed
	PruneAttempts(olderThan time.Time) (int, error)
}

// EventRepository persists telemetry events
type EventRepository interface {
	// RecordEvent inserts a telemetry event row
	RecordEvent(e event.DomainEvent, attemptID string) error

	// PruneEvents deletes events older than the cutoff and returns the
	// number removed
	PruneEvents(olderThan time.Time) (int, error)
}

// Store combines the persistence interfaces with lifecycle methods
type Store interface {
	AttemptRepository
	EventRepository

	// Ping checks connectivity
	Ping() error

	// Close closes the underlying database
	Close() error
}
