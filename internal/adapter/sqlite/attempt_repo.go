package sqlite

import (
	"database/sql"
	"time"

	"github.com/buildpeek/buildpeek/internal/domain"
)

// CreateAttempt inserts a new in-progress attempt
func (s *Store) CreateAttempt(attempt *domain.Attempt) error {
	query := `
		INSERT INTO attempts (id, url, status, started_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		attempt.ID, attempt.URL, domain.AttemptStatusInProgress, attempt.StartedAt)
	if err != nil {
		return err
	}

	attempt.Status = domain.AttemptStatusInProgress
	return nil
}

// UpdateAttemptProgress updates the running byte count of an attempt
func (s *Store) UpdateAttemptProgress(id string, bytesDownloaded int64) error {
	query := `
		UPDATE attempts
		SET bytes_downloaded = ?
		WHERE id = ?
	`

	_, err := s.db.Exec(query, bytesDownloaded, id)
	return err
}

// FinishAttempt records the terminal state of an attempt
func (s *Store) FinishAttempt(attempt *domain.Attempt) error {
	query := `
		UPDATE attempts
		SET status = ?,
			bytes_downloaded = ?,
			line_count = ?,
			trimmed_line_count = ?,
			truncation_reason = ?,
			last_error = ?,
			finished_at = ?
		WHERE id = ?
	`

	var lastError sql.NullString
	if attempt.LastError != "" {
		lastError = sql.NullString{String: attempt.LastError, Valid: true}
	}

	result, err := s.db.Exec(query,
		attempt.Status, attempt.BytesDownloaded, attempt.LineCount,
		attempt.TrimmedLineCount, string(attempt.TruncationReason),
		lastError, attempt.FinishedAt, attempt.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

// GetAttempt returns the attempt with the given ID
func (s *Store) GetAttempt(id string) (*domain.Attempt, error) {
	query := `
		SELECT id, url, status, bytes_downloaded, line_count,
			   trimmed_line_count, truncation_reason, last_error,
			   started_at, finished_at
		FROM attempts
		WHERE id = ?
	`

	attempt, err := scanAttempt(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// ListAttempts returns the most recent attempts, newest first
func (s *Store) ListAttempts(limit int) ([]*domain.Attempt, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, url, status, bytes_downloaded, line_count,
			   trimmed_line_count, truncation_reason, last_error,
			   started_at, finished_at
		FROM attempts
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*domain.Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// PruneAttempts deletes finished attempts older than the cutoff
func (s *Store) PruneAttempts(olderThan time.Time) (int, error) {
	query := `
		DELETE FROM attempts
		WHERE finished_at IS NOT NULL AND finished_at < ?
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

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row scanner) (*domain.Attempt, error) {
	attempt := &domain.Attempt{}
	var reason string
	var lastError sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(
		&attempt.ID, &attempt.URL, &attempt.Status,
		&attempt.BytesDownloaded, &attempt.LineCount,
		&attempt.TrimmedLineCount, &reason, &lastError,
		&attempt.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	attempt.TruncationReason = domain.TruncationReason(reason)
	if lastError.Valid {
		attempt.LastError = lastError.String
	}
	if finishedAt.Valid {
		attempt.FinishedAt = &finishedAt.Time
	}
	return attempt, nil
}
