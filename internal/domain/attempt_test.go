package domain

import (
	"testing"
	"time"
)

func TestAttempt_MarkSucceeded(t *testing.T) {
	tests := []struct {
		name       string
		result     *FetchResult
		wantStatus string
	}{
		{
			name: "clean fetch",
			result: &FetchResult{
				Lines:     []string{"a", "b"},
				BytesRead: 4,
			},
			wantStatus: AttemptStatusSucceeded,
		},
		{
			name: "truncated fetch",
			result: &FetchResult{
				Lines:            []string{"a"},
				BytesRead:        1024,
				Truncated:        true,
				TruncationReason: TruncationByteLimit,
			},
			wantStatus: AttemptStatusTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Attempt{ID: "a-1", URL: "http://ci/log", StartedAt: time.Now()}
			a.MarkSucceeded(tt.result)

			if a.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", a.Status, tt.wantStatus)
			}
			if a.BytesDownloaded != tt.result.BytesRead {
				t.Errorf("BytesDownloaded = %d, want %d", a.BytesDownloaded, tt.result.BytesRead)
			}
			if a.LineCount != len(tt.result.Lines) {
				t.Errorf("LineCount = %d, want %d", a.LineCount, len(tt.result.Lines))
			}
			if a.FinishedAt == nil {
				t.Error("FinishedAt should be set")
			}
			if !a.IsFinished() {
				t.Error("IsFinished() = false, want true")
			}
		})
	}
}

func TestAttempt_MarkFailed(t *testing.T) {
	a := &Attempt{ID: "a-1", URL: "http://ci/log", StartedAt: time.Now()}
	a.MarkFailed("connection reset")

	if a.Status != AttemptStatusFailed {
		t.Errorf("Status = %q, want failed", a.Status)
	}
	if a.LastError != "connection reset" {
		t.Errorf("LastError = %q", a.LastError)
	}
	if a.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}
}

func TestAttempt_MarkCanceled(t *testing.T) {
	a := &Attempt{ID: "a-1", URL: "http://ci/log", StartedAt: time.Now()}
	a.MarkCanceled()

	if a.Status != AttemptStatusCanceled {
		t.Errorf("Status = %q, want canceled", a.Status)
	}
	if a.LastError != "" {
		t.Errorf("LastError = %q, want empty", a.LastError)
	}
}

func TestAttempt_Duration(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	finish := start.Add(10 * time.Second)
	a := &Attempt{StartedAt: start, FinishedAt: &finish}

	if got := a.Duration(); got != 10*time.Second {
		t.Errorf("Duration() = %v, want 10s", got)
	}

	running := &Attempt{StartedAt: start}
	if got := running.Duration(); got < time.Minute {
		t.Errorf("Duration() = %v, want at least 1m", got)
	}
}
