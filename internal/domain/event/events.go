package event

import (
	"time"

	"github.com/buildpeek/buildpeek/internal/domain"
)

// DomainEvent is the interface for all telemetry events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// FetchStarted is raised when a fetch attempt opens its stream
type FetchStarted struct {
	BaseEvent
	AttemptID string
	URL       string
}

// EventName returns the event name
func (e FetchStarted) EventName() string {
	return "fetch.started"
}

// NewFetchStarted creates a new FetchStarted event
func NewFetchStarted(attemptID, url string) FetchStarted {
	return FetchStarted{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		AttemptID: attemptID,
		URL:       url,
	}
}

// FetchIncomplete is raised when an attempt returns a partial result.
// Both truncation kinds may be raised for the same attempt: the byte
// ceiling event carries bytes and elapsed time, the line-length event
// carries the count of shortened lines.
type FetchIncomplete struct {
	BaseEvent
	AttemptID    string
	URL          string
	Reason       domain.TruncationReason
	BytesRead    int64
	TrimmedLines int
	Elapsed      time.Duration
}

// EventName returns the event name
func (e FetchIncomplete) EventName() string {
	return "fetch.incomplete"
}

// NewFetchIncomplete creates a new FetchIncomplete event
func NewFetchIncomplete(attemptID, url string, reason domain.TruncationReason, bytesRead int64, trimmedLines int, elapsed time.Duration) FetchIncomplete {
	return FetchIncomplete{
		BaseEvent:    BaseEvent{Timestamp: time.Now()},
		AttemptID:    attemptID,
		URL:          url,
		Reason:       reason,
		BytesRead:    bytesRead,
		TrimmedLines: trimmedLines,
		Elapsed:      elapsed,
	}
}

// FetchFailed is raised when an attempt ends in a transport failure
type FetchFailed struct {
	BaseEvent
	AttemptID string
	URL       string
	Error     string
}

// EventName returns the event name
func (e FetchFailed) EventName() string {
	return "fetch.failed"
}

// NewFetchFailed creates a new FetchFailed event
func NewFetchFailed(attemptID, url, err string) FetchFailed {
	return FetchFailed{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		AttemptID: attemptID,
		URL:       url,
		Error:     err,
	}
}

// FetchFinished is raised exactly once per attempt in its cleanup phase,
// regardless of success, failure, or cancellation.
type FetchFinished struct {
	BaseEvent
	AttemptID string
	URL       string
	Status    string
	BytesRead int64
	Duration  time.Duration
}

// EventName returns the event name
func (e FetchFinished) EventName() string {
	return "fetch.finished"
}

// NewFetchFinished creates a new FetchFinished event
func NewFetchFinished(attemptID, url, status string, bytesRead int64, duration time.Duration) FetchFinished {
	return FetchFinished{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		AttemptID: attemptID,
		URL:       url,
		Status:    status,
		BytesRead: bytesRead,
		Duration:  duration,
	}
}

// AttemptsPruned is raised when maintenance removes old attempt records
type AttemptsPruned struct {
	BaseEvent
	Attempts int
	Events   int
}

// EventName returns the event name
func (e AttemptsPruned) EventName() string {
	return "attempts.pruned"
}

// NewAttemptsPruned creates a new AttemptsPruned event
func NewAttemptsPruned(attempts, events int) AttemptsPruned {
	return AttemptsPruned{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Attempts:  attempts,
		Events:    events,
	}
}
