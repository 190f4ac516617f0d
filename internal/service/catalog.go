package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

// prefillWindow is how recent the last logged ascent must be for its
// date to be offered as the date of the next one.
const prefillWindow = 12 * time.Hour

// CatalogService creates and lists areas, routes and ascents.
type CatalogService struct {
	store storage.Store
	order models.TickOrder
	now   func() time.Time
}

// NewCatalogService creates a CatalogService accepting the tick types of
// order.
func NewCatalogService(store storage.Store, order models.TickOrder) *CatalogService {
	if len(order) == 0 {
		order = models.DefaultTickOrder
	}
	return &CatalogService{store: store, order: order, now: time.Now}
}

// CreateArea stores a new area owned by ownerID. Duplicate tags are
// collapsed.
func (s *CatalogService) CreateArea(ctx context.Context, ownerID, name string, tags []models.Steepness) (*models.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("area name is required: %w", ErrInvalidInput)
	}
	set := make([]models.Steepness, 0, len(tags))
	for _, t := range tags {
		if !slices.Contains(models.SteepnessOptions, t) {
			return nil, fmt.Errorf("steepness %q: %w", t, ErrInvalidInput)
		}
		if !slices.Contains(set, t) {
			set = append(set, t)
		}
	}

	area := &models.Area{Name: name, OwnerID: ownerID, SteepnessTags: set}
	if err := s.store.CreateArea(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

// ListAreas returns the areas of ownerID sorted by name.
func (s *CatalogService) ListAreas(ctx context.Context, ownerID string) ([]models.Area, error) {
	return s.store.ListAreas(ctx, ownerID)
}

// CreateRoute stores r for its owner. An area, when given, must belong
// to the same owner.
func (s *CatalogService) CreateRoute(ctx context.Context, r *models.Route) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("route name is required: %w", ErrInvalidInput)
	}
	if !slices.Contains(models.RouteColors, r.Color) {
		return fmt.Errorf("color %q: %w", r.Color, ErrInvalidInput)
	}
	if r.AreaID != "" {
		area, err := s.store.GetArea(ctx, r.AreaID)
		if err != nil {
			return err
		}
		if area.OwnerID != r.OwnerID {
			return fmt.Errorf("area %s: %w", r.AreaID, storage.ErrNotFound)
		}
	}
	return s.store.CreateRoute(ctx, r)
}

// ListRoutes returns the routes of ownerID, optionally limited to one
// area, sorted by name.
func (s *CatalogService) ListRoutes(ctx context.Context, ownerID, areaID string) ([]models.Route, error) {
	return s.store.FindRoutes(ctx, storage.RouteFilter{
		OwnerID: ownerID,
		AreaID:  areaID,
		Sort:    []storage.Order{storage.Asc(storage.SortByName)},
	})
}

// SetBookmark flags or unflags a route owned by ownerID.
func (s *CatalogService) SetBookmark(ctx context.Context, ownerID, routeID string, bookmarked bool) error {
	route, err := s.store.GetRoute(ctx, routeID)
	if err != nil {
		return err
	}
	if route.OwnerID != ownerID {
		return fmt.Errorf("route %s: %w", routeID, storage.ErrNotFound)
	}
	return s.store.SetRouteBookmarked(ctx, routeID, bookmarked)
}

// CreateAscent logs a. A zero date is replaced by PrefillAscentDate.
func (s *CatalogService) CreateAscent(ctx context.Context, a *models.Ascent) error {
	if !s.order.Valid(a.TickType) {
		return fmt.Errorf("tick type %q: %w", a.TickType, ErrInvalidInput)
	}
	if a.RouteID == "" {
		return fmt.Errorf("route is required: %w", ErrInvalidInput)
	}
	if a.Date.IsZero() {
		d, err := s.PrefillAscentDate(ctx, a.UserID)
		if err != nil {
			return err
		}
		a.Date = d
	}
	a.Date = models.Day(a.Date)
	a.Notes = strings.TrimSpace(a.Notes)
	return s.store.CreateAscent(ctx, a)
}

// ListAscents returns the ascents of userID, newest first, optionally
// limited to one route.
func (s *CatalogService) ListAscents(ctx context.Context, userID, routeID string) ([]models.Ascent, error) {
	return s.store.FindAscents(ctx, storage.AscentFilter{
		UserID:  userID,
		RouteID: routeID,
		Sort:    []storage.Order{storage.Desc(storage.SortByDate), storage.Desc(storage.SortByCreatedAt)},
	})
}

// PrefillAscentDate suggests a date for the next ascent of userID: the
// date of the most recently logged ascent if it was logged within the
// last 12 hours, today otherwise.
func (s *CatalogService) PrefillAscentDate(ctx context.Context, userID string) (time.Time, error) {
	now := s.now()
	recent, err := s.store.FindAscents(ctx, storage.AscentFilter{
		UserID:       userID,
		CreatedAfter: now.Add(-prefillWindow),
		Sort:         []storage.Order{storage.Desc(storage.SortByCreatedAt)},
		Limit:        1,
	})
	if err != nil {
		return time.Time{}, err
	}
	if len(recent) == 0 {
		return models.Day(now), nil
	}
	return recent[0].Date, nil
}
