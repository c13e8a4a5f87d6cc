package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"focusd/internal/config"
	"focusd/internal/stats"
	"focusd/internal/store"
	"focusd/internal/tracker"
)

type Handler struct {
	cfg     *config.Config
	store   *store.Store
	tracker *tracker.Tracker
	agg     *stats.Aggregator
}

func NewHandler(cfg *config.Config, st *store.Store, tr *tracker.Tracker) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   st,
		tracker: tr,
		agg:     stats.New(st, cfg.DeepFocusThreshold()),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/stats/daily", h.getDailyStats)
	mux.HandleFunc("GET /api/v1/stats/weekly", h.getWeeklyStats)
	mux.HandleFunc("GET /api/v1/sessions", h.getSessions)
	mux.HandleFunc("GET /api/v1/sessions/{label}", h.getSessionByLabel)
	mux.HandleFunc("GET /api/v1/switches", h.getSwitches)
	mux.HandleFunc("GET /api/v1/status", h.getStatus)

	mux.HandleFunc("GET /health", h.healthCheck)
}

// --- Response helpers ---

type APIResponse struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Error: message})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// --- Handlers ---

// getDailyStats returns the rollup for one day
// GET /api/v1/stats/daily?date=2024-01-01
func (h *Handler) getDailyStats(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	day, err := parseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	ds, err := h.agg.DailyStats(day)
	if err != nil {
		slog.Error("failed to compute daily stats", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute daily stats")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Data: ds})
}

// getWeeklyStats returns the rollup for the seven days starting at week_start
// GET /api/v1/stats/weekly?week_start=2024-01-01
func (h *Handler) getWeeklyStats(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("week_start")
	if startStr == "" {
		// Default to the last full seven days.
		startStr = time.Now().UTC().AddDate(0, 0, -6).Format("2006-01-02")
	}

	weekStart, err := parseDate(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week_start format, use YYYY-MM-DD")
		return
	}

	ws, err := h.agg.WeeklyStats(weekStart)
	if err != nil {
		slog.Error("failed to compute weekly stats", "week_start", startStr, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute weekly stats")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Data: ws})
}

// getSessions returns raw sessions for one day, or aggregated logical
// sessions when aggregate=true
// GET /api/v1/sessions?date=2024-01-01&aggregate=true
func (h *Handler) getSessions(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	day, err := parseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	sessions, err := h.store.SessionsForDate(day)
	if err != nil {
		slog.Error("failed to load sessions", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}

	if r.URL.Query().Get("aggregate") == "true" {
		writeJSON(w, http.StatusOK, APIResponse{Data: stats.AggregateByLabel(sessions)})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Data: sessions})
}

// getSessionByLabel returns the aggregated stats of one named work session
// GET /api/v1/sessions/{label}
func (h *Handler) getSessionByLabel(w http.ResponseWriter, r *http.Request) {
	label := r.PathValue("label")

	agg, err := h.agg.SessionStats(label)
	if err != nil {
		if errors.Is(err, stats.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "no session with that label")
			return
		}
		slog.Error("failed to load session", "label", label, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Data: agg})
}

// getSwitches returns the context switches recorded on one day
// GET /api/v1/switches?date=2024-01-01
func (h *Handler) getSwitches(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	day, err := parseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	switches, err := h.store.SwitchesForDate(day)
	if err != nil {
		slog.Error("failed to load switches", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load switches")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Data: switches})
}

// getStatus reports the live tracker state
// GET /api/v1/status
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	st := h.tracker.Snapshot()

	status := map[string]interface{}{
		"tracking":          h.tracker.Tracking(),
		"buffered_sessions": st.BufferedSessions,
		"buffered_switches": st.BufferedSwitches,
	}
	if current, ok := h.tracker.CurrentSession(); ok {
		status["current_session"] = current
	}

	writeJSON(w, http.StatusOK, APIResponse{Data: status})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
