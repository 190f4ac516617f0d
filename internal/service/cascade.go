package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/metrics"
	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

// CascadeResult describes what one cascade delete removed.
type CascadeResult struct {
	AscentsDeleted int    `json:"ascentsDeleted"`
	RouteID        string `json:"routeId"`
	RouteDeleted   bool   `json:"routeDeleted"`
	AreaID         string `json:"areaId,omitempty"`
	AreaDeleted    bool   `json:"areaDeleted"`
}

// CascadeService deletes ascents and routes together with the routes and
// areas they leave empty. Every cascade runs in one store transaction.
type CascadeService struct {
	store storage.Store
	log   *zap.Logger
}

// NewCascadeService creates a CascadeService. A nil logger disables
// logging.
func NewCascadeService(store storage.Store, log *zap.Logger) *CascadeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CascadeService{store: store, log: log}
}

// DeleteAscentWithDependents deletes an ascent. If that leaves its route
// without ascents the route is deleted, and if that leaves the route's
// area without routes the area is deleted too.
func (s *CascadeService) DeleteAscentWithDependents(ctx context.Context, ascentID string) (CascadeResult, error) {
	return s.deleteAscent(ctx, "", ascentID)
}

// DeleteOwnedAscent is DeleteAscentWithDependents for an ascent logged by
// userID. Ascents of other users are reported as storage.ErrNotFound.
func (s *CascadeService) DeleteOwnedAscent(ctx context.Context, userID, ascentID string) (CascadeResult, error) {
	return s.deleteAscent(ctx, userID, ascentID)
}

// DeleteRouteWithDependents deletes a route with all of its ascents, and
// its area when no other route remains in it.
func (s *CascadeService) DeleteRouteWithDependents(ctx context.Context, routeID string) (CascadeResult, error) {
	return s.deleteRoute(ctx, "", routeID)
}

// DeleteOwnedRoute is DeleteRouteWithDependents for a route owned by
// userID. Routes of other users are reported as storage.ErrNotFound.
func (s *CascadeService) DeleteOwnedRoute(ctx context.Context, userID, routeID string) (CascadeResult, error) {
	return s.deleteRoute(ctx, userID, routeID)
}

func (s *CascadeService) deleteAscent(ctx context.Context, ownerID, ascentID string) (CascadeResult, error) {
	var res CascadeResult
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		res = CascadeResult{}

		ascent, err := tx.GetAscent(ctx, ascentID)
		if err != nil {
			return err
		}
		if ownerID != "" && ascent.UserID != ownerID {
			return fmt.Errorf("ascent %s: %w", ascentID, storage.ErrNotFound)
		}

		route, err := tx.GetRoute(ctx, ascent.RouteID)
		if err != nil {
			return fmt.Errorf("route of ascent %s: %w", ascentID, err)
		}
		res.RouteID = route.ID

		areaID, err := resolveArea(ctx, tx, route)
		if err != nil {
			return err
		}
		res.AreaID = areaID

		if err := tx.DeleteAscent(ctx, ascentID); err != nil {
			return err
		}
		res.AscentsDeleted = 1

		remaining, err := tx.CountAscents(ctx, storage.AscentFilter{RouteID: route.ID})
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		if err := tx.DeleteRoute(ctx, route.ID); err != nil {
			return err
		}
		res.RouteDeleted = true

		return pruneArea(ctx, tx, &res)
	})
	return s.finish("delete_ascent", ascentID, res, err)
}

func (s *CascadeService) deleteRoute(ctx context.Context, ownerID, routeID string) (CascadeResult, error) {
	var res CascadeResult
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		res = CascadeResult{}

		route, err := tx.GetRoute(ctx, routeID)
		if err != nil {
			return err
		}
		if ownerID != "" && route.OwnerID != ownerID {
			return fmt.Errorf("route %s: %w", routeID, storage.ErrNotFound)
		}
		res.RouteID = route.ID

		areaID, err := resolveArea(ctx, tx, route)
		if err != nil {
			return err
		}
		res.AreaID = areaID

		n, err := tx.DeleteAscents(ctx, storage.AscentFilter{RouteID: route.ID})
		if err != nil {
			return err
		}
		res.AscentsDeleted = n

		if err := tx.DeleteRoute(ctx, route.ID); err != nil {
			return err
		}
		res.RouteDeleted = true

		return pruneArea(ctx, tx, &res)
	})
	return s.finish("delete_route", routeID, res, err)
}

// resolveArea returns the ID of the route's area, or "" when the route
// has none or it no longer exists.
func resolveArea(ctx context.Context, tx storage.Store, route *models.Route) (string, error) {
	if route.AreaID == "" {
		return "", nil
	}
	area, err := tx.GetArea(ctx, route.AreaID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("area of route %s: %w", route.ID, err)
	}
	return area.ID, nil
}

// pruneArea deletes res.AreaID when no route references it any more.
func pruneArea(ctx context.Context, tx storage.Store, res *CascadeResult) error {
	if res.AreaID == "" {
		return nil
	}
	remaining, err := tx.CountRoutes(ctx, storage.RouteFilter{AreaID: res.AreaID})
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	if err := tx.DeleteArea(ctx, res.AreaID); err != nil {
		return err
	}
	res.AreaDeleted = true
	return nil
}

// finish records the outcome of a cascade. A failed cascade reports an
// empty result since nothing was committed.
func (s *CascadeService) finish(op, id string, res CascadeResult, err error) (CascadeResult, error) {
	if err != nil {
		metrics.CascadeAbortsTotal.WithLabelValues(op).Inc()
		lvl := zap.WarnLevel
		if errors.Is(err, storage.ErrNotFound) {
			lvl = zap.DebugLevel
		}
		s.log.Log(lvl, "cascade aborted", zap.String("op", op), zap.String("id", id), zap.Error(err))
		return CascadeResult{}, err
	}
	metrics.RecordCascade(res.AscentsDeleted, res.RouteDeleted, res.AreaDeleted)
	s.log.Info("cascade committed",
		zap.String("op", op),
		zap.String("id", id),
		zap.Int("ascents", res.AscentsDeleted),
		zap.Bool("route_deleted", res.RouteDeleted),
		zap.Bool("area_deleted", res.AreaDeleted),
	)
	return res, nil
}
