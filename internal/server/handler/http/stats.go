package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/middleware"
	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/service"
)

// StatsService is the set of derived statistics exposed over HTTP.
type StatsService interface {
	WeeklyTickTypeCounts(ctx context.Context, userID string) ([]service.WeekCounts, error)
	GradeBestTickTypeCounts(ctx context.Context, userID string) ([]service.GradeTickCounts, error)
	GradeOndraScores(ctx context.Context, userID string) ([]service.GradeOndra, error)
	MinimumAscentGrade(ctx context.Context, userID string) (*int, error)
	MaximumAscentGrade(ctx context.Context, userID string) (*int, error)
	BestAscentsByTickType(ctx context.Context, userID string, tick models.TickType) ([]models.Ascent, error)
	MaximumSentGradeByArea(ctx context.Context, userID, areaID string) (*int, error)
}

// StatsHandler serves the statistics of the authenticated user.
type StatsHandler struct {
	Stats StatsService
	Log   *zap.Logger
}

type gradeRangeResponse struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// Weekly handles GET /api/stats/weekly.
func (h *StatsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.Stats.WeeklyTickTypeCounts(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}

// Grades handles GET /api/stats/grades.
func (h *StatsHandler) Grades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.Stats.GradeBestTickTypeCounts(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, grades)
}

// Ondra handles GET /api/stats/ondra.
func (h *StatsHandler) Ondra(w http.ResponseWriter, r *http.Request) {
	scores, err := h.Stats.GradeOndraScores(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// GradeRange handles GET /api/stats/grades/range. Both bounds are null
// for a user without ascents.
func (h *StatsHandler) GradeRange(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	lo, err := h.Stats.MinimumAscentGrade(r.Context(), userID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	hi, err := h.Stats.MaximumAscentGrade(r.Context(), userID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, gradeRangeResponse{Min: lo, Max: hi})
}

// Best handles GET /api/stats/best/{tickType}.
func (h *StatsHandler) Best(w http.ResponseWriter, r *http.Request) {
	tick := models.TickType(chi.URLParam(r, "tickType"))
	ascents, err := h.Stats.BestAscentsByTickType(r.Context(), middleware.GetUserIDFromContext(r.Context()), tick)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ascents)
}

// AreaMaxSentGrade handles GET /api/stats/areas/{id}/max-sent-grade.
func (h *StatsHandler) AreaMaxSentGrade(w http.ResponseWriter, r *http.Request) {
	grade, err := h.Stats.MaximumSentGradeByArea(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*int{"grade": grade})
}
