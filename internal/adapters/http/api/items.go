// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mkarimi/duelrank/internal/adapters/repository"
	"github.com/mkarimi/duelrank/internal/domain/model"
)

// ItemDependencies defines the interface for catalog item operations.
type ItemDependencies interface {
	RegisterItem(ctx context.Context, sourceRef, displayName string) (model.Item, error)
	RemoveItem(ctx context.Context, id string) bool
	GetItem(ctx context.Context, id string) (model.Item, error)
	ItemStats(ctx context.Context, id string) (string, error)
}

// ItemsHandler handles item registration and lookup requests.
type ItemsHandler struct {
	deps ItemDependencies
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps ItemDependencies) *ItemsHandler {
	return &ItemsHandler{deps: deps}
}

// itemRequest mirrors the OpenAPI schema for POST /items.
type itemRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

func (i itemRequest) validate() error {
	if strings.TrimSpace(i.Path) == "" {
		return errors.New("missing path")
	}
	return nil
}

// HandleItems handles POST /items requests.
func (h *ItemsHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	name := req.Name
	if name == "" {
		name = displayNameFromRef(req.Path)
	}
	item, err := h.deps.RegisterItem(r.Context(), req.Path, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleItemByID handles GET and DELETE /items/{id}, and
// GET /items/{id}/stats.
func (h *ItemsHandler) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/items/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && sub == "stats":
		label, err := h.deps.ItemStats(r.Context(), id)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "label": label})
	case r.Method == http.MethodGet && sub == "":
		item, err := h.deps.GetItem(r.Context(), id)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete && sub == "":
		if !h.deps.RemoveItem(r.Context(), id) {
			writeError(w, http.StatusNotFound, "not_found", repository.ErrNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (h *ItemsHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}

// displayNameFromRef derives a human name from the last path segment,
// with the extension stripped.
func displayNameFromRef(ref string) string {
	base := ref
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
