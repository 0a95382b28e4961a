// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	ItemDependencies
	PairDependencies
	VerdictDependencies
	RankingDependencies
	HistoryDependencies
	SessionDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	itemsHandler    *ItemsHandler
	pairHandler     *PairHandler
	verdictsHandler *VerdictsHandler
	rankingHandler  *RankingHandler
	historyHandler  *HistoryHandler
	sessionHandler  *SessionHandler
}

// NewServer creates a new API server with all handlers. maxRankingLimit
// caps GET /ranking?limit.
func NewServer(deps Dependencies, maxRankingLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		itemsHandler:    NewItemsHandler(deps),
		pairHandler:     NewPairHandler(deps),
		verdictsHandler: NewVerdictsHandler(deps),
		rankingHandler:  NewRankingHandler(deps, maxRankingLimit),
		historyHandler:  NewHistoryHandler(deps),
		sessionHandler:  NewSessionHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/items", MetricsMiddleware(s.itemsHandler.HandleItems, "items"))
	mux.HandleFunc("/items/", MetricsMiddleware(s.itemsHandler.HandleItemByID, "item"))
	mux.HandleFunc("/pair", MetricsMiddleware(s.pairHandler.HandleGetPair, "pair"))
	mux.HandleFunc("/verdicts", MetricsMiddleware(s.verdictsHandler.HandlePostVerdict, "verdicts"))
	mux.HandleFunc("/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/session/save", MetricsMiddleware(s.sessionHandler.HandleSave, "session_save"))
	mux.HandleFunc("/session/load", MetricsMiddleware(s.sessionHandler.HandleLoad, "session_load"))
	mux.HandleFunc("/session/export", MetricsMiddleware(s.sessionHandler.HandleExport, "session_export"))
	mux.HandleFunc("/reset", MetricsMiddleware(s.sessionHandler.HandleReset, "reset"))
}

// SessionDependencies defines the interface for session persistence
// and destructive reset operations.
type SessionDependencies interface {
	SaveSession(ctx context.Context) error
	LoadSession(ctx context.Context) error
	ExportCSV(ctx context.Context, w io.Writer) error
	ResetAll(ctx context.Context)
}

type ackResponse struct {
	Status    string `json:"status"`
	VerdictID string `json:"verdict_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pairResponse mirrors the OpenAPI schema for GET /pair.
type pairResponse = model.Pair

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
