package telemetry

import (
	"github.com/buildpeek/buildpeek/internal/domain/event"
	"github.com/buildpeek/buildpeek/internal/port"
	"go.uber.org/zap"
)

// ZapSink reports telemetry events as structured log lines
type ZapSink struct {
	logger *zap.Logger
}

// Ensure ZapSink implements port.EventSink
var _ port.EventSink = (*ZapSink)(nil)

// NewZapSink creates a sink that logs every event
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Report logs the event with its typed fields
func (s *ZapSink) Report(e event.DomainEvent) {
	s.logger.Info("telemetry event",
		zap.String("event", e.EventName()),
		zap.Time("occurred_at", e.OccurredAt()),
		zap.Any("payload", e))
}

// StoreSink persists telemetry events through an event repository. Write
// failures are logged and swallowed: the sink must never push an error back
// into the fetch loop.
type StoreSink struct {
	events port.EventRepository
	logger *zap.Logger
}

// Ensure StoreSink implements port.EventSink
var _ port.EventSink = (*StoreSink)(nil)

// NewStoreSink creates a sink that records events in the store
func NewStoreSink(events port.EventRepository, logger *zap.Logger) *StoreSink {
	return &StoreSink{events: events, logger: logger}
}

// Report persists the event
func (s *StoreSink) Report(e event.DomainEvent) {
	if err := s.events.RecordEvent(e, attemptID(e)); err != nil {
		s.logger.Warn("failed to record telemetry event",
			zap.String("event", e.EventName()),
			zap.Error(err))
	}
}

// Fanout reports each event to every wrapped sink. A panicking sink is
// isolated from the others and from the caller.
type Fanout struct {
	sinks  []port.EventSink
	logger *zap.Logger
}

// Ensure Fanout implements port.EventSink
var _ port.EventSink = (*Fanout)(nil)

// NewFanout creates a fan-out sink
func NewFanout(logger *zap.Logger, sinks ...port.EventSink) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

// Report forwards the event to all sinks
func (f *Fanout) Report(e event.DomainEvent) {
	for _, sink := range f.sinks {
		f.report(sink, e)
	}
}

func (f *Fanout) report(sink port.EventSink, e event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("event sink panicked",
				zap.String("event", e.EventName()),
				zap.Any("panic", r))
		}
	}()
	sink.Report(e)
}

// attemptID extracts the attempt ID carried by fetch-scoped events
func attemptID(e event.DomainEvent) string {
	switch ev := e.(type) {
	case event.FetchStarted:
		return ev.AttemptID
	case event.FetchIncomplete:
		return ev.AttemptID
	case event.FetchFailed:
		return ev.AttemptID
	case event.FetchFinished:
		return ev.AttemptID
	default:
		return ""
	}
}
