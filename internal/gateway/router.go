package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/debsndprgs5/transcendence-game/internal/middleware"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/storage"
)

const defaultListLimit = 20

// NewRouter builds the HTTP surface: the websocket endpoint plus a
// small read-only REST API over live counts and match history.
func NewRouter(g *Gateway, store storage.Storage, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))

	r.HandleFunc("/ws", g.ServeWS)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", g.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}/matches", handlePlayerMatches(store)).Methods(http.MethodGet)
	api.HandleFunc("/tournaments", g.handleTournaments).Methods(http.MethodGet)
	api.HandleFunc("/tournaments/records", handleTournamentRecords(store)).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.stats())
}

func (g *Gateway) handleTournaments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.tournaments.List())
}

func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}

func handlePlayerMatches(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := model.PlayerID(mux.Vars(r)["playerID"])
		results, err := store.ListMatchResultsForPlayer(r.Context(), playerID, listLimit(r))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func handleTournamentRecords(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.ListTournamentRecords(r.Context(), listLimit(r))
		if err != nil {
			if errors.Is(err, model.ErrTournamentRecordNotFound) {
				writeJSON(w, http.StatusOK, []*model.TournamentRecord{})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}
