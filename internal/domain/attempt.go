package domain

import "time"

// Attempt status constants
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSucceeded  = "succeeded"
	AttemptStatusTruncated  = "truncated"
	AttemptStatusFailed     = "failed"
	AttemptStatusCanceled   = "canceled"
)

// Attempt is one end-to-end execution of the fetch algorithm for a single
// URL, from open to finalize or cancel. Log content itself is never
// persisted; the attempt records only outcome metadata.
type Attempt struct {
	ID  string
	URL string

	// State
	Status string

	// Outcome
	BytesDownloaded  int64
	LineCount        int
	TrimmedLineCount int
	TruncationReason TruncationReason
	LastError        string

	// Timestamps
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns the elapsed time of the attempt, or the time since start
// if it is still running.
func (a *Attempt) Duration() time.Duration {
	if a.FinishedAt != nil {
		return a.FinishedAt.Sub(a.StartedAt)
	}
	return time.Since(a.StartedAt)
}

// IsFinished returns true if the attempt reached a terminal status
func (a *Attempt) IsFinished() bool {
	return a.Status != AttemptStatusInProgress
}

// MarkSucceeded records a completed fetch, truncated or not.
func (a *Attempt) MarkSucceeded(res *FetchResult) {
	if res.Truncated {
		a.Status = AttemptStatusTruncated
	} else {
		a.Status = AttemptStatusSucceeded
	}
	a.BytesDownloaded = res.BytesRead
	a.LineCount = len(res.Lines)
	a.TrimmedLineCount = res.TrimmedLineCount
	a.TruncationReason = res.TruncationReason
	now := time.Now()
	a.FinishedAt = &now
}

// MarkFailed records a fatal transport failure.
func (a *Attempt) MarkFailed(err string) {
	a.Status = AttemptStatusFailed
	a.LastError = err
	now := time.Now()
	a.FinishedAt = &now
}

// MarkCanceled records an abandoned attempt.
func (a *Attempt) MarkCanceled() {
	a.Status = AttemptStatusCanceled
	now := time.Now()
	a.FinishedAt = &now
}
