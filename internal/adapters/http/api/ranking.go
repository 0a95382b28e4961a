// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// RankingDependencies defines the interface for ranking reads.
type RankingDependencies interface {
	Ranking(ctx context.Context, limit int) []model.Item
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies, maxLimit int) *RankingHandler {
	return &RankingHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// rankedItem is one row of the ranking response.
type rankedItem struct {
	Rank int `json:"rank"`
	model.Item
}

// HandleGetRanking handles GET /ranking?limit=N requests. The limit is
// optional and defaults to the configured maximum.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if parsed > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		n = parsed
	}

	items := h.deps.Ranking(r.Context(), n)
	ranked := make([]rankedItem, len(items))
	for i, item := range items {
		ranked[i] = rankedItem{Rank: i + 1, Item: item}
	}
	writeJSON(w, http.StatusOK, ranked)
}
