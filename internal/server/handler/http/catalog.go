package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/middleware"
	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/service"
)

// CatalogService is the subset of the catalog operations used by the
// handlers.
type CatalogService interface {
	CreateArea(ctx context.Context, ownerID, name string, tags []models.Steepness) (*models.Area, error)
	ListAreas(ctx context.Context, ownerID string) ([]models.Area, error)
	CreateRoute(ctx context.Context, r *models.Route) error
	ListRoutes(ctx context.Context, ownerID, areaID string) ([]models.Route, error)
	SetBookmark(ctx context.Context, ownerID, routeID string, bookmarked bool) error
	CreateAscent(ctx context.Context, a *models.Ascent) error
	ListAscents(ctx context.Context, userID, routeID string) ([]models.Ascent, error)
	PrefillAscentDate(ctx context.Context, userID string) (time.Time, error)
}

// CascadeService deletes routes and ascents together with whatever they
// leave empty.
type CascadeService interface {
	DeleteOwnedRoute(ctx context.Context, userID, routeID string) (service.CascadeResult, error)
	DeleteOwnedAscent(ctx context.Context, userID, ascentID string) (service.CascadeResult, error)
}

// RouteSummarizer derives per-user fields of a route.
type RouteSummarizer interface {
	RouteSummary(ctx context.Context, userID, routeID string) (*service.RouteSummary, error)
}

// CatalogHandler serves areas, routes and ascents of the authenticated
// user.
type CatalogHandler struct {
	Catalog CatalogService
	Cascade CascadeService
	Summary RouteSummarizer
	Log     *zap.Logger
}

// AreaRequest is the payload of POST /api/areas.
type AreaRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	SteepnessTags []string `json:"steepnessTags" validate:"max=4,dive,steepness"`
}

// RouteRequest is the payload of POST /api/routes.
type RouteRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Grade  int    `json:"grade" validate:"min=0,max=100"`
	Color  string `json:"color" validate:"required,routecolor"`
	AreaID string `json:"areaId"`
}

// BookmarkRequest is the payload of PUT /api/routes/{id}/bookmark.
type BookmarkRequest struct {
	Bookmarked *bool `json:"bookmarked" validate:"required"`
}

// AscentRequest is the payload of POST /api/ascents. An empty date is
// prefilled from the user's recent ascents. The tick type is checked
// against the configured tick order by the catalog service.
type AscentRequest struct {
	RouteID  string `json:"routeId" validate:"required"`
	Date     string `json:"date" validate:"omitempty,isodate"`
	TickType string `json:"tickType" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// CreateArea handles POST /api/areas.
func (h *CatalogHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req AreaRequest
	if !decode(w, r, &req) {
		return
	}
	tags := make([]models.Steepness, len(req.SteepnessTags))
	for i, t := range req.SteepnessTags {
		tags[i] = models.Steepness(t)
	}

	area, err := h.Catalog.CreateArea(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Name, tags)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, area)
}

// ListAreas handles GET /api/areas.
func (h *CatalogHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Catalog.ListAreas(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

// CreateRoute handles POST /api/routes.
func (h *CatalogHandler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decode(w, r, &req) {
		return
	}
	route := &models.Route{
		Name:    req.Name,
		Grade:   req.Grade,
		Color:   models.Color(req.Color),
		AreaID:  req.AreaID,
		OwnerID: middleware.GetUserIDFromContext(r.Context()),
	}
	if err := h.Catalog.CreateRoute(r.Context(), route); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, route)
}

// ListRoutes handles GET /api/routes?areaId=.
func (h *CatalogHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Catalog.ListRoutes(r.Context(), middleware.GetUserIDFromContext(r.Context()), r.URL.Query().Get("areaId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

// GetRoute handles GET /api/routes/{id}, returning the route with the
// fields derived from the user's ascents.
func (h *CatalogHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Summary.RouteSummary(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// SetBookmark handles PUT /api/routes/{id}/bookmark.
func (h *CatalogHandler) SetBookmark(w http.ResponseWriter, r *http.Request) {
	var req BookmarkRequest
	if !decode(w, r, &req) {
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Catalog.SetBookmark(r.Context(), userID, chi.URLParam(r, "id"), *req.Bookmarked); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRoute handles DELETE /api/routes/{id}. The route's ascents go
// with it, and its area when it was the last route there.
func (h *CatalogHandler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	res, err := h.Cascade.DeleteOwnedRoute(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateAscent handles POST /api/ascents.
func (h *CatalogHandler) CreateAscent(w http.ResponseWriter, r *http.Request) {
	var req AscentRequest
	if !decode(w, r, &req) {
		return
	}
	ascent := &models.Ascent{
		RouteID:  req.RouteID,
		UserID:   middleware.GetUserIDFromContext(r.Context()),
		Notes:    req.Notes,
		TickType: models.TickType(req.TickType),
	}
	if req.Date != "" {
		d, err := time.Parse(models.DateLayout, req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be in YYYY-MM-DD format"})
			return
		}
		ascent.Date = d
	}
	if err := h.Catalog.CreateAscent(r.Context(), ascent); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ascent)
}

// ListAscents handles GET /api/ascents?routeId=.
func (h *CatalogHandler) ListAscents(w http.ResponseWriter, r *http.Request) {
	ascents, err := h.Catalog.ListAscents(r.Context(), middleware.GetUserIDFromContext(r.Context()), r.URL.Query().Get("routeId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ascents)
}

// PrefillDate handles GET /api/ascents/prefill-date.
func (h *CatalogHandler) PrefillDate(w http.ResponseWriter, r *http.Request) {
	d, err := h.Catalog.PrefillAscentDate(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": d.Format(models.DateLayout)})
}

// DeleteAscent handles DELETE /api/ascents/{id}, cascading to the route
// and area it leaves empty.
func (h *CatalogHandler) DeleteAscent(w http.ResponseWriter, r *http.Request) {
	res, err := h.Cascade.DeleteOwnedAscent(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
