package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

const routeColumns = `id, name, grade, color, owner_id, area_id, bookmarked, created_at`

// CreateRoute inserts r, assigning an ID and creation time when unset.
// A taken name yields storage.ErrConflict, an unknown area
// storage.ErrNotFound.
func (s *SQLStore) CreateRoute(ctx context.Context, r *models.Route) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = s.timestamp(r.CreatedAt)

	_, err := s.exec(ctx,
		`INSERT INTO routes (`+routeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Grade, string(r.Color), r.OwnerID, nullable(r.AreaID), r.Bookmarked, toMillis(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create route: %w", s.classify(err, storage.ErrNotFound))
	}
	return nil
}

// GetRoute fetches a route by ID.
func (s *SQLStore) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	r, err := scanRoute(s.queryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("route %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route: %w", s.classify(err, storage.ErrNotFound))
	}
	return r, nil
}

// FindRoutes returns the routes matching f.
func (s *SQLStore) FindRoutes(ctx context.Context, f storage.RouteFilter) ([]models.Route, error) {
	w := routeWhere(f)
	tail, err := orderBy(f.Sort, routeSortColumns, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("find routes: %w", s.classify(err, storage.ErrNotFound))
	}

	rows, err := s.query(ctx, `SELECT `+routeColumns+` FROM routes`+w.String()+tail, w.args...)
	if err != nil {
		return nil, fmt.Errorf("find routes: %w", s.classify(err, storage.ErrNotFound))
	}
	defer rows.Close()

	routes := []models.Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		routes = append(routes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find routes: %w", s.classify(err, storage.ErrNotFound))
	}
	return routes, nil
}

// CountRoutes counts the routes matching f.
func (s *SQLStore) CountRoutes(ctx context.Context, f storage.RouteFilter) (int, error) {
	return s.count(ctx, "routes", routeWhere(f))
}

// SetRouteBookmarked sets the bookmark flag of a route.
func (s *SQLStore) SetRouteBookmarked(ctx context.Context, id string, bookmarked bool) error {
	res, err := s.exec(ctx, `UPDATE routes SET bookmarked = ? WHERE id = ?`, bookmarked, id)
	if err != nil {
		return fmt.Errorf("bookmark route: %w", s.classify(err, storage.ErrNotFound))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bookmark route: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("route %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteRoute removes a route. It fails with storage.ErrSerialization if
// an ascent still references it.
func (s *SQLStore) DeleteRoute(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "routes", id)
}

func scanRoute(row rowScanner) (*models.Route, error) {
	var (
		r       models.Route
		color   string
		areaID  sql.NullString
		created int64
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Grade, &color, &r.OwnerID, &areaID, &r.Bookmarked, &created); err != nil {
		return nil, err
	}
	r.Color = models.Color(color)
	r.AreaID = areaID.String
	r.CreatedAt = fromMillis(created)
	return &r, nil
}
