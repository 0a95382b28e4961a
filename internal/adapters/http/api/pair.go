// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/mkarimi/duelrank/internal/domain/matchmake"
	"github.com/mkarimi/duelrank/internal/domain/model"
)

// PairDependencies defines the interface for matchup selection.
type PairDependencies interface {
	RequestPair(ctx context.Context, mode string) (model.Pair, error)
}

// PairHandler handles matchup requests.
type PairHandler struct {
	deps PairDependencies
}

// NewPairHandler creates a new pair handler.
func NewPairHandler(deps PairDependencies) *PairHandler {
	return &PairHandler{deps: deps}
}

// HandleGetPair handles GET /pair?mode=smart|random requests. An
// unknown or missing mode falls back to smart pairing.
func (h *PairHandler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	pair, err := h.deps.RequestPair(r.Context(), r.URL.Query().Get("mode"))
	if err != nil {
		if errors.Is(err, matchmake.ErrNotEnoughItems) {
			// Expected while the catalog holds fewer than two items.
			writeError(w, http.StatusConflict, "not_enough_items", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse(pair))
}
