// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkarimi/duelrank/internal/adapters/codec"
	service "github.com/mkarimi/duelrank/internal/app"
)

// SessionHandler handles session persistence, export, and reset.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleSave handles POST /session/save requests.
func (h *SessionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.SaveSession(r.Context()); err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// HandleLoad handles POST /session/load requests.
func (h *SessionHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.LoadSession(r.Context()); err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

// HandleExport handles GET /session/export requests, streaming the
// current ranking as CSV.
func (h *SessionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ranking.csv"`)
	if err := h.deps.ExportCSV(r.Context(), w); err != nil {
		// Headers are already out; nothing sane to send but a truncated body.
		return
	}
}

// resetRequest guards POST /reset against accidental calls.
type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleReset handles POST /reset requests. The body must carry
// {"confirm": true}; everything else is rejected.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "confirm_required", errors.New("reset requires confirm=true"))
		return
	}
	h.deps.ResetAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoDataFile):
		writeError(w, http.StatusBadRequest, "no_data_file", err)
	case errors.Is(err, codec.ErrMalformed):
		writeError(w, http.StatusUnprocessableEntity, "malformed_session", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
