package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/processor"
	"github.com/MikeSquared-Agency/triage/internal/store"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

const defaultSummaryWindow = 24 * time.Hour

// analyzeThread handles POST /api/v1/threads/{id}/analyze
func (s *Server) analyzeThread(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer not configured")
		return
	}
	threadID := chi.URLParam(r, "id")

	a, err := s.deps.Analyzer.Process(r.Context(), threadID, processor.SourceHTTP)
	if err != nil {
		resp := map[string]any{
			"error":     err.Error(),
			"stage":     processor.Stage(err),
			"thread_id": threadID,
		}
		if a != nil && a.Record != nil {
			resp["record"] = a.Record
		}
		writeJSON(w, analyzeStatus(err), resp)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, processor.ErrEmptyConversation),
		errors.Is(err, analytics.ErrInvalidRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, thread.ErrRetrieval):
		return http.StatusBadGateway
	case processor.Stage(err) == processor.StageExtract:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// threadMessages handles GET /api/v1/threads/{id}/messages
func (s *Server) threadMessages(w http.ResponseWriter, r *http.Request) {
	if s.deps.Loader == nil {
		writeError(w, http.StatusServiceUnavailable, "thread store not configured")
		return
	}
	threadID := chi.URLParam(r, "id")

	msgs, err := s.deps.Loader.Load(r.Context(), threadID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if msgs == nil {
		msgs = []thread.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"count":     len(msgs),
		"messages":  msgs,
	})
}

// latestAnalytics handles GET /api/v1/analytics/{id}
func (s *Server) latestAnalytics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	row, err := s.deps.Analytics.LatestForThread(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no analytics for thread")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// analyticsSummary handles GET /api/v1/analytics/summary?since=
func (s *Server) analyticsSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	since, err := parseSince(r.URL.Query().Get("since"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := s.deps.Analytics.Summary(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

// parseSince accepts an RFC3339 timestamp or a lookback duration such as
// "72h". Empty means the last 24 hours.
func parseSince(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return now.Add(-defaultSummaryWindow), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return time.Time{}, errors.New("invalid since: want RFC3339 timestamp or positive duration")
	}
	return now.Add(-d), nil
}
