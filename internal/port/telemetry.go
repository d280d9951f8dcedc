package port

import (
	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/domain/event"
)

// EventSink receives structured telemetry events. Report is fire-and-forget:
// it never returns an error and implementations must not panic back into the
// fetch loop.
type EventSink interface {
	Report(e event.DomainEvent)
}

// Notifier receives human-readable warnings keyed by truncation reason.
// Byte-limit and line-length warnings are distinct and non-exclusive; both
// may fire for the same attempt.
type Notifier interface {
	NotifyIncomplete(reason domain.TruncationReason, detail string)
}
