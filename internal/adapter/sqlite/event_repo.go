package sqlite

import (
	"encoding/json"
	"time"

	"github.com/buildpeek/buildpeek/internal/domain/event"
)

// RecordEvent inserts a telemetry event row. The event payload is stored as
// JSON so new event types need no schema change.
func (s *Store) RecordEvent(e event.DomainEvent, attemptID string) error {
	payload, err := json.Marshal(e)
	if err != nil {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO telemetry_events (name, attempt_id, payload, occurred_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = s.db.Exec(query, e.EventName(), attemptID, string(payload), e.OccurredAt())
	return err
}

// PruneEvents deletes events older than the cutoff
func (s *Store) PruneEvents(olderThan time.Time) (int, error) {
	query := `
		DELETE FROM telemetry_events
		WHERE occurred_at < ?
	`

	result, err := s.db.Exec(query, olderThan)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
