package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/buildpeek/buildpeek/internal/controller"
	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/port"
	"go.uber.org/zap"
)

// ControllerFactory builds a download controller bound to the given warning
// notifier. The server creates one controller per request so attempts never
// share accumulation state.
type ControllerFactory func(notifier port.Notifier) *controller.Controller

// LogHandler serves bounded log fetches
type LogHandler struct {
	newController ControllerFactory
	logger        *zap.Logger
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(factory ControllerFactory, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		newController: factory,
		logger:        logger,
	}
}

// warning is a user-facing truncation notice
type warning struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// warningCollector gathers warnings raised during one attempt
type warningCollector struct {
	mu       sync.Mutex
	warnings []warning
}

// Ensure warningCollector implements port.Notifier
var _ port.Notifier = (*warningCollector)(nil)

func (wc *warningCollector) NotifyIncomplete(reason domain.TruncationReason, detail string) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.warnings = append(wc.warnings, warning{Reason: string(reason), Message: detail})
}

func (wc *warningCollector) all() []warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if wc.warnings == nil {
		return []warning{}
	}
	return wc.warnings
}

// logResponse is the JSON body for a completed fetch
type logResponse struct {
	URL              string    `json:"url"`
	Lines            []string  `json:"lines"`
	LineCount        int       `json:"line_count"`
	BytesDownloaded  int64     `json:"bytes_downloaded"`
	Truncated        bool      `json:"truncated"`
	TruncationReason string    `json:"truncation_reason,omitempty"`
	TrimmedLineCount int       `json:"trimmed_line_count"`
	Warnings         []warning `json:"warnings"`
}

// HandleFetch handles GET /v1/logs?url=...
// It runs one bounded fetch attempt and returns the collected lines plus
// truncation metadata. Closing the request aborts the attempt.
func (h *LogHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		http.Error(w, "url must be absolute http(s)", http.StatusBadRequest)
		return
	}

	collector := &warningCollector{}
	ctrl := h.newController(collector)
	defer ctrl.Close()

	result, err := ctrl.Download(r.Context(), rawURL)
	if err != nil {
		if domain.IsCanceled(err) {
			// Client went away; there is nobody left to answer.
			h.logger.Debug("fetch aborted by client", zap.String("url", rawURL))
			return
		}
		h.logger.Error("fetch failed", zap.String("url", rawURL), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := logResponse{
		URL:              rawURL,
		Lines:            result.Lines,
		LineCount:        len(result.Lines),
		BytesDownloaded:  result.BytesRead,
		Truncated:        result.Truncated,
		TruncationReason: string(result.TruncationReason),
		TrimmedLineCount: result.TrimmedLineCount,
		Warnings:         collector.all(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
