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

const areaColumns = `id, name, owner_id, steepness_tags, created_at`

// CreateArea inserts a, assigning an ID and creation time when unset.
func (s *SQLStore) CreateArea(ctx context.Context, a *models.Area) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.timestamp(a.CreatedAt)
	if a.SteepnessTags == nil {
		a.SteepnessTags = []models.Steepness{}
	}

	_, err := s.exec(ctx,
		`INSERT INTO areas (`+areaColumns+`) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.OwnerID, s.tagsArg(a.SteepnessTags), toMillis(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create area: %w", s.classify(err, storage.ErrNotFound))
	}
	return nil
}

// GetArea fetches an area by ID.
func (s *SQLStore) GetArea(ctx context.Context, id string) (*models.Area, error) {
	a, err := s.scanArea(s.queryRow(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("area %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get area: %w", s.classify(err, storage.ErrNotFound))
	}
	return a, nil
}

// ListAreas returns the areas of an owner sorted by name.
func (s *SQLStore) ListAreas(ctx context.Context, ownerID string) ([]models.Area, error) {
	rows, err := s.query(ctx, `SELECT `+areaColumns+` FROM areas WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", s.classify(err, storage.ErrNotFound))
	}
	defer rows.Close()

	areas := []models.Area{}
	for rows.Next() {
		a, err := s.scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		areas = append(areas, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list areas: %w", s.classify(err, storage.ErrNotFound))
	}
	return areas, nil
}

// DeleteArea removes an area. It fails with storage.ErrSerialization if
// a route still references it.
func (s *SQLStore) DeleteArea(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "areas", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanArea(row rowScanner) (*models.Area, error) {
	var (
		a       models.Area
		tags    []string
		created int64
	)
	if err := row.Scan(&a.ID, &a.Name, &a.OwnerID, s.tagsDest(&tags), &created); err != nil {
		return nil, err
	}
	a.SteepnessTags = toSteepness(tags)
	a.CreatedAt = fromMillis(created)
	return &a, nil
}
