package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

const ascentColumns = `id, route_id, user_id, date, notes, tick_type, created_at`

// CreateAscent inserts a, assigning an ID and creation time when unset.
// An unknown route or user yields storage.ErrNotFound.
func (s *SQLStore) CreateAscent(ctx context.Context, a *models.Ascent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Date = models.Day(a.Date)
	a.CreatedAt = s.timestamp(a.CreatedAt)

	_, err := s.exec(ctx,
		`INSERT INTO ascents (`+ascentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RouteID, a.UserID, formatDate(a.Date), a.Notes, string(a.TickType), toMillis(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create ascent: %w", s.classify(err, storage.ErrNotFound))
	}
	return nil
}

// GetAscent fetches an ascent by ID.
func (s *SQLStore) GetAscent(ctx context.Context, id string) (*models.Ascent, error) {
	a, err := scanAscent(s.queryRow(ctx, `SELECT `+ascentColumns+` FROM ascents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ascent %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ascent: %w", s.classify(err, storage.ErrNotFound))
	}
	return a, nil
}

// FindAscents returns the ascents matching f.
func (s *SQLStore) FindAscents(ctx context.Context, f storage.AscentFilter) ([]models.Ascent, error) {
	w := ascentWhere(f)
	tail, err := orderBy(f.Sort, ascentSortColumns, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("find ascents: %w", s.classify(err, storage.ErrNotFound))
	}

	rows, err := s.query(ctx, `SELECT `+ascentColumns+` FROM ascents`+w.String()+tail, w.args...)
	if err != nil {
		return nil, fmt.Errorf("find ascents: %w", s.classify(err, storage.ErrNotFound))
	}
	defer rows.Close()

	ascents := []models.Ascent{}
	for rows.Next() {
		a, err := scanAscent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ascents = append(ascents, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find ascents: %w", s.classify(err, storage.ErrNotFound))
	}
	return ascents, nil
}

// CountAscents counts the ascents matching f.
func (s *SQLStore) CountAscents(ctx context.Context, f storage.AscentFilter) (int, error) {
	return s.count(ctx, "ascents", ascentWhere(f))
}

// DistinctAscentDates returns the distinct days of matching ascents,
// oldest first.
func (s *SQLStore) DistinctAscentDates(ctx context.Context, f storage.AscentFilter) ([]time.Time, error) {
	w := ascentWhere(f)
	rows, err := s.query(ctx, `SELECT DISTINCT date FROM ascents`+w.String()+` ORDER BY date ASC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("distinct dates: %w", s.classify(err, storage.ErrNotFound))
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(dateColumn{t: &d}); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct dates: %w", s.classify(err, storage.ErrNotFound))
	}
	return dates, nil
}

// DeleteAscent removes one ascent.
func (s *SQLStore) DeleteAscent(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "ascents", id)
}

// DeleteAscents removes every ascent matching f. An empty filter is
// rejected rather than wiping the table.
func (s *SQLStore) DeleteAscents(ctx context.Context, f storage.AscentFilter) (int, error) {
	w := ascentWhere(f)
	if w.empty() {
		return 0, fmt.Errorf("delete ascents: empty filter")
	}
	res, err := s.exec(ctx, `DELETE FROM ascents`+w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("delete ascents: %w", s.classify(err, storage.ErrSerialization))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete ascents: %w", err)
	}
	return int(n), nil
}

func scanAscent(row rowScanner) (*models.Ascent, error) {
	var (
		a       models.Ascent
		tick    string
		created int64
	)
	if err := row.Scan(&a.ID, &a.RouteID, &a.UserID, dateColumn{t: &a.Date}, &a.Notes, &tick, &created); err != nil {
		return nil, err
	}
	a.TickType = models.TickType(tick)
	a.CreatedAt = fromMillis(created)
	return &a, nil
}
