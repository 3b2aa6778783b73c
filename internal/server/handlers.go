package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
	"github.com/bz2vsr/battlezone-combat-commander/internal/vars"
)

// defaultWindow is used for the aggregate endpoints when no ?window= is
// given; maxWindow caps what a client may request.
const (
	defaultWindow = time.Hour
	maxWindow     = 7 * 24 * time.Hour
)

// handleSessions returns the current live sessions, newest first.
func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	sessions, err := s.storage.CurrentSessions(s.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch sessions")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if sessions == nil {
		sessions = []models.Session{}
	}

	writeJSON(w, sessions)
}

// handleSessionDetail returns one session with its full roster.
// Query params: ?id=Rebellion:abcdef0123456789
func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}

	session, err := s.storage.SessionDetail(id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to fetch session")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	// A missing session is distinct from a session with an empty roster
	if session == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, session)
}

// handleHistory returns per-minute snapshot aggregates for a trailing window.
// Query params: ?window=1h
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.storage.HistorySummary(parseWindow(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch history")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if buckets == nil {
		buckets = []models.HistoryBucket{}
	}

	writeJSON(w, buckets)
}

// handleMaps returns the most played maps over a trailing window.
func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	s.usage(w, r, s.storage.MapsSummary)
}

// handleMods returns the most played mods over a trailing window.
func (s *Server) handleMods(w http.ResponseWriter, r *http.Request) {
	s.usage(w, r, s.storage.ModsSummary)
}

func (s *Server) usage(w http.ResponseWriter, r *http.Request, query func(time.Duration) ([]models.UsageRow, error)) {
	rows, err := query(parseWindow(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch usage summary")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if rows == nil {
		rows = []models.UsageRow{}
	}

	writeJSON(w, rows)
}

// handleVersion returns build metadata.
func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, vars.Info())
}

// handleHealthz is the liveness probe.
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func parseWindow(r *http.Request) time.Duration {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return defaultWindow
	}

	window, err := time.ParseDuration(raw)
	if err != nil || window <= 0 {
		return defaultWindow
	}
	if window > maxWindow {
		return maxWindow
	}

	return window
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
