package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/enviweather/envi-advisor/internal/advisor"
	"github.com/enviweather/envi-advisor/internal/memorybank"
	"github.com/enviweather/envi-advisor/internal/provider"
	"github.com/enviweather/envi-advisor/pkg/httpmiddleware"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// errorResponse is the uniform error body of the API.
type errorResponse struct {
	Error string `json:"error"`
}

type historyResponse struct {
	History []memorybank.QueryHistoryEntry `json:"history"`
}

type favoritesResponse struct {
	Favorites []memorybank.FavoriteLocation `json:"favorites"`
}

type removeResponse struct {
	Removed bool `json:"removed"`
}

// buildRouter assembles the API router with the shared middleware stack.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = s.log
	mwConfig.EnableLogging = true
	mwConfig.Timeout = s.cfg.RequestTimeout

	corsConfig := httpmiddleware.DefaultCORSConfig()
	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	}
	mwConfig.CORS = &corsConfig

	httpmiddleware.ApplyToRouter(r, mwConfig)

	r.Use(chimiddleware.Throttle(s.cfg.Security.MaxConcurrentRequests))
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/advice", s.handleAdvice)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Put("/preferences", s.handleSetPreference)
			r.Get("/preferences", s.handleGetPreference)
			r.Get("/history", s.handleHistory)
			r.Put("/favorites", s.handleSaveFavorite)
			r.Get("/favorites", s.handleListFavorites)
			r.Delete("/favorites/{locationID}", s.handleRemoveFavorite)
		})
	})

	return r
}

// handleAdvice runs one advisory query.
// POST /api/v1/advice
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req advisor.Request
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.advisor.Advise(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, advisor.ErrInvalidRequest):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, provider.ErrUnavailable):
			s.respondError(w, http.StatusBadGateway, "condition source is unavailable")
		default:
			s.log.Error("Advisory query failed", logger.ErrorField(err))
			s.respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.domain.QueryAnswered()
	for _, location := range result.Report.Locations {
		s.domain.LocationAssessed(string(location.OverallRisk))
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleSetPreference replaces the session's preference record.
// PUT /api/v1/sessions/{sessionID}/preferences
func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var pref memorybank.UserPreference
	if err := s.decodeJSON(w, r, &pref); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(pref.ActivityType) == "" {
		s.respondError(w, http.StatusBadRequest, "activity_type is required")
		return
	}
	if pref.RiskTolerance != "" && !pref.RiskTolerance.Valid() {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid risk_tolerance %q", pref.RiskTolerance))
		return
	}

	if err := s.memory.EnsureSession(r.Context(), sessionID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	if err := s.memory.SetPreference(r.Context(), sessionID, pref); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleGetPreference returns the stored preference, 404 when none is
// set.
// GET /api/v1/sessions/{sessionID}/preferences
func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	pref, ok, err := s.memory.GetPreference(r.Context(), sessionID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "no preference stored for session")
		return
	}

	s.respondJSON(w, http.StatusOK, pref)
}

// handleHistory returns recent queries, optionally filtered by keyword.
// GET /api/v1/sessions/{sessionID}/history?limit=N&q=keyword
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	var entries []memorybank.QueryHistoryEntry
	var err error

	if keyword := strings.TrimSpace(r.URL.Query().Get("q")); keyword != "" {
		entries, err = s.memory.SearchHistory(r.Context(), sessionID, keyword)
		if err == nil && limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
	} else {
		entries, err = s.memory.GetHistory(r.Context(), sessionID, limit)
	}
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, historyResponse{History: entries})
}

// handleSaveFavorite upserts a favorite location.
// PUT /api/v1/sessions/{sessionID}/favorites
func (s *Server) handleSaveFavorite(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var fav memorybank.FavoriteLocation
	if err := s.decodeJSON(w, r, &fav); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(fav.LocationID) == "" {
		s.respondError(w, http.StatusBadRequest, "location_id is required")
		return
	}
	if strings.TrimSpace(fav.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.memory.EnsureSession(r.Context(), sessionID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	if err := s.memory.SaveFavorite(r.Context(), sessionID, fav); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleListFavorites returns the session's favorites sorted by location
// id.
// GET /api/v1/sessions/{sessionID}/favorites
func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	favorites, err := s.memory.ListFavorites(r.Context(), sessionID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, favoritesResponse{Favorites: favorites})
}

// handleRemoveFavorite deletes a favorite. Removing an absent favorite
// reports removed=false with status 200, never an error.
// DELETE /api/v1/sessions/{sessionID}/favorites/{locationID}
func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	locationID := chi.URLParam(r, "locationID")

	removed, err := s.memory.RemoveFavorite(r.Context(), sessionID, locationID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, removeResponse{Removed: removed})
}

// decodeJSON reads the request body into dst, bounded by the configured
// maximum request size.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Security.MaxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

// respondStoreError maps memory store failures onto HTTP statuses.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, memorybank.ErrInvalidSessionID) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error("Session memory operation failed", logger.ErrorField(err))
	s.respondError(w, http.StatusInternalServerError, "internal error")
}
