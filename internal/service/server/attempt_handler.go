package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/port"
	"go.uber.org/zap"
)

// AttemptHandler serves fetch attempt history
type AttemptHandler struct {
	store  port.Store
	logger *zap.Logger
}

// NewAttemptHandler creates a new AttemptHandler
func NewAttemptHandler(store port.Store, logger *zap.Logger) *AttemptHandler {
	return &AttemptHandler{store: store, logger: logger}
}

// attemptResponse is the JSON shape of one attempt record
type attemptResponse struct {
	ID               string     `json:"id"`
	URL              string     `json:"url"`
	Status           string     `json:"status"`
	BytesDownloaded  int64      `json:"bytes_downloaded"`
	LineCount        int        `json:"line_count"`
	TrimmedLineCount int        `json:"trimmed_line_count"`
	TruncationReason string     `json:"truncation_reason,omitempty"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

func toAttemptResponse(a *domain.Attempt) attemptResponse {
	return attemptResponse{
		ID:               a.ID,
		URL:              a.URL,
		Status:           a.Status,
		BytesDownloaded:  a.BytesDownloaded,
		LineCount:        a.LineCount,
		TrimmedLineCount: a.TrimmedLineCount,
		TruncationReason: string(a.TruncationReason),
		Error:            a.LastError,
		StartedAt:        a.StartedAt,
		FinishedAt:       a.FinishedAt,
	}
}

// HandleList handles GET /v1/attempts
func (h *AttemptHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	attempts, err := h.store.ListAttempts(limit)
	if err != nil {
		h.logger.Error("failed to list attempts", zap.Error(err))
		http.Error(w, "failed to list attempts", http.StatusInternalServerError)
		return
	}

	resp := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, toAttemptResponse(a))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleGet handles GET /v1/attempts/{id}
func (h *AttemptHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/attempts/")
	if id == "" {
		http.Error(w, "missing attempt id", http.StatusBadRequest)
		return
	}

	attempt, err := h.store.GetAttempt(id)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		http.Error(w, "attempt not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load attempt", zap.String("id", id), zap.Error(err))
		http.Error(w, "failed to load attempt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAttemptResponse(attempt))
}

// HandlePrune handles DELETE /admin/attempts?older_than=24h
func (h *AttemptHandler) HandlePrune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	olderThan := 24 * time.Hour
	if v := r.URL.Query().Get("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "older_than must be a positive duration", http.StatusBadRequest)
			return
		}
		olderThan = d
	}

	cutoff := time.Now().Add(-olderThan)
	attempts, err := h.store.PruneAttempts(cutoff)
	if err != nil {
		h.logger.Error("failed to prune attempts", zap.Error(err))
		http.Error(w, "failed to prune attempts", http.StatusInternalServerError)
		return
	}
	events, err := h.store.PruneEvents(cutoff)
	if err != nil {
		h.logger.Error("failed to prune events", zap.Error(err))
		http.Error(w, "failed to prune events", http.StatusInternalServerError)
		return
	}

	h.logger.Info("pruned attempt history",
		zap.Int("attempts", attempts), zap.Int("events", events))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"attempts_removed": attempts,
		"events_removed":   events,
	})
}
