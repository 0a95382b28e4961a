// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// defaultHistoryPageSize bounds GET /history when no limit is given.
const defaultHistoryPageSize = 50

// HistoryDependencies defines the interface for match log reads.
type HistoryDependencies interface {
	History(ctx context.Context, limit int) []model.MatchEntry
}

// HistoryHandler handles match log requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /history?limit=N requests. Entries come
// back newest first.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultHistoryPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, h.deps.History(r.Context(), n))
}
