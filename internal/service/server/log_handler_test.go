package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildpeek/buildpeek/internal/adapter/httpsource"
	"github.com/buildpeek/buildpeek/internal/config"
	"github.com/buildpeek/buildpeek/internal/controller"
	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/domain/event"
	"github.com/buildpeek/buildpeek/internal/fetcher"
	"github.com/buildpeek/buildpeek/internal/port"
	"go.uber.org/zap"
)

// nullRepo is an AttemptRepository that accepts everything
type nullRepo struct{}

func (nullRepo) CreateAttempt(*domain.Attempt) error                { return nil }
func (nullRepo) UpdateAttemptProgress(string, int64) error          { return nil }
func (nullRepo) FinishAttempt(*domain.Attempt) error                { return nil }
func (nullRepo) GetAttempt(string) (*domain.Attempt, error)         { return nil, domain.ErrAttemptNotFound }
func (nullRepo) ListAttempts(int) ([]*domain.Attempt, error)        { return nil, nil }
func (nullRepo) PruneAttempts(time.Time) (int, error)               { return 0, nil }

// nullSink discards events
type nullSink struct{}

func (nullSink) Report(event.DomainEvent) {}

func newTestFactory(byteLimit int64, lineLimit int) ControllerFactory {
	source := httpsource.NewClient(nil)
	f := fetcher.New(source, zap.NewNop(), 1024)
	cfg := &controller.Config{
		Limits: func() config.Limits {
			return config.Limits{ByteLimit: byteLimit, LineLengthLimit: lineLimit}
		},
		ProgressLogInterval: time.Second,
	}
	return func(notifier port.Notifier) *controller.Controller {
		return controller.New(cfg, f, nullRepo{}, nullSink{}, notifier, zap.NewNop())
	}
}

func TestLogHandler_HandleFetch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("alpha\nbeta\ngamma\n"))
		case "/huge":
			w.Write([]byte(strings.Repeat("a", 5000)))
		case "/long-lines":
			w.Write([]byte(strings.Repeat("z", 500) + "\nshort\n"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer upstream.Close()

	handler := NewLogHandler(newTestFactory(2000, 100), zap.NewNop())

	fetch := func(t *testing.T, target string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/v1/logs?url="+target, nil)
		rec := httptest.NewRecorder()
		handler.HandleFetch(rec, req)
		return rec
	}

	t.Run("successful fetch", func(t *testing.T) {
		rec := fetch(t, upstream.URL+"/ok")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp logResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if want := []string{"alpha", "beta", "gamma"}; len(resp.Lines) != 3 ||
			resp.Lines[0] != want[0] || resp.Lines[1] != want[1] || resp.Lines[2] != want[2] {
			t.Errorf("lines = %q, want %q", resp.Lines, want)
		}
		if resp.Truncated {
			t.Error("truncated = true, want false")
		}
		if len(resp.Warnings) != 0 {
			t.Errorf("warnings = %v, want none", resp.Warnings)
		}
	})

	t.Run("byte ceiling produces warning", func(t *testing.T) {
		rec := fetch(t, upstream.URL+"/huge")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp logResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !resp.Truncated {
			t.Error("truncated = false, want true")
		}
		if resp.TruncationReason != string(domain.TruncationByteLimit) {
			t.Errorf("reason = %q, want byte_limit", resp.TruncationReason)
		}
		if len(resp.Warnings) == 0 {
			t.Error("expected at least one warning")
		}
	})

	t.Run("long lines produce trim warning", func(t *testing.T) {
		rec := fetch(t, upstream.URL+"/long-lines")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp logResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.TrimmedLineCount != 1 {
			t.Errorf("trimmed_line_count = %d, want 1", resp.TrimmedLineCount)
		}
		if resp.TruncationReason != string(domain.TruncationLineLength) {
			t.Errorf("reason = %q, want line_length_limit", resp.TruncationReason)
		}
		found := false
		for _, w := range resp.Warnings {
			if w.Reason == string(domain.TruncationLineLength) {
				found = true
			}
		}
		if !found {
			t.Errorf("warnings = %v, want a line_length_limit warning", resp.Warnings)
		}
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		rec := fetch(t, upstream.URL+"/broken")
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("missing url parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/logs", nil)
		rec := httptest.NewRecorder()
		handler.HandleFetch(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("relative url rejected", func(t *testing.T) {
		rec := fetch(t, "not-a-url")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/logs?url=http://x", nil)
		rec := httptest.NewRecorder()
		handler.HandleFetch(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}
