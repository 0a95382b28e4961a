// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	service "github.com/mkarimi/duelrank/internal/app"
	"github.com/mkarimi/duelrank/internal/domain/model"
)

// VerdictDependencies defines the interface for verdict submission.
type VerdictDependencies interface {
	SubmitVerdict(ctx context.Context, v model.Verdict) (normalized model.Verdict, duplicate bool, err error)
}

// VerdictsHandler handles verdict submissions.
type VerdictsHandler struct {
	deps VerdictDependencies
}

// NewVerdictsHandler creates a new verdicts handler.
func NewVerdictsHandler(deps VerdictDependencies) *VerdictsHandler {
	return &VerdictsHandler{deps: deps}
}

// verdictRequest mirrors the OpenAPI schema for POST /verdicts.
type verdictRequest struct {
	VerdictID string  `json:"verdict_id"`
	ItemA     string  `json:"item_a"`
	ItemB     string  `json:"item_b"`
	Result    float64 `json:"result"`
	TS        string  `json:"ts"`
}

// HandlePostVerdict handles POST /verdicts requests.
func (h *VerdictsHandler) HandlePostVerdict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	verdict := model.Verdict{
		VerdictID: req.VerdictID,
		ItemA:     req.ItemA,
		ItemB:     req.ItemB,
		Result:    req.Result,
	}
	if req.TS != "" {
		ts, err := time.Parse(time.RFC3339, req.TS)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid ts; must be RFC3339"))
			return
		}
		verdict.TS = ts
	}

	normalized, duplicate, err := h.deps.SubmitVerdict(r.Context(), verdict)
	switch {
	case errors.Is(err, service.ErrInvalidVerdict):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	case duplicate:
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", VerdictID: normalized.VerdictID, Duplicate: true})
	default:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", VerdictID: normalized.VerdictID, Duplicate: false})
	}
}
