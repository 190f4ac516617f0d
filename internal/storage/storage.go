// Package storage defines the persistence contract for users, areas,
// routes and ascents, independent of the backing database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/CragLog/internal/models"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on uniqueness violations.
	ErrConflict = errors.New("conflict")
	// ErrSerialization is returned when a transaction lost a race with a
	// concurrent writer. It matches ErrConflict and may be retried.
	ErrSerialization = fmt.Errorf("%w: serialization failure", ErrConflict)
)

// SortField names a column that lookups may be ordered by.
type SortField string

const (
	SortByDate      SortField = "date"
	SortByCreatedAt SortField = "created_at"
	SortByGrade     SortField = "grade"
	SortByName      SortField = "name"
)

// Order is one sort key.
type Order struct {
	Field SortField
	Desc  bool
}

// Asc and Desc build sort keys.
func Asc(f SortField) Order  { return Order{Field: f} }
func Desc(f SortField) Order { return Order{Field: f, Desc: true} }

// AscentFilter selects ascents. Zero-valued fields do not constrain the
// result. Date bounds are calendar days.
type AscentFilter struct {
	IDs       []string
	RouteID   string
	RouteIDs  []string
	UserID    string
	TickTypes []models.TickType
	// DateFrom and DateTo are inclusive bounds.
	DateFrom time.Time
	DateTo   time.Time
	// Before is an exclusive upper bound.
	Before time.Time
	// CreatedAfter is an exclusive lower bound on the creation time.
	CreatedAfter time.Time

	Sort  []Order
	Limit int
}

// RouteFilter selects routes. Zero-valued fields do not constrain the
// result.
type RouteFilter struct {
	IDs      []string
	OwnerID  string
	AreaID   string
	Grade    *int
	MinGrade *int
	MaxGrade *int
	// AscendedBy keeps routes with at least one ascent by this user,
	// restricted to AscentTickTypes when set.
	AscendedBy      string
	AscentTickTypes []models.TickType

	Sort  []Order
	Limit int
}

// Store is the persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id string, hash []byte) error

	CreateArea(ctx context.Context, a *models.Area) error
	GetArea(ctx context.Context, id string) (*models.Area, error)
	ListAreas(ctx context.Context, ownerID string) ([]models.Area, error)
	DeleteArea(ctx context.Context, id string) error

	CreateRoute(ctx context.Context, r *models.Route) error
	GetRoute(ctx context.Context, id string) (*models.Route, error)
	FindRoutes(ctx context.Context, f RouteFilter) ([]models.Route, error)
	CountRoutes(ctx context.Context, f RouteFilter) (int, error)
	SetRouteBookmarked(ctx context.Context, id string, bookmarked bool) error
	DeleteRoute(ctx context.Context, id string) error

	CreateAscent(ctx context.Context, a *models.Ascent) error
	GetAscent(ctx context.Context, id string) (*models.Ascent, error)
	FindAscents(ctx context.Context, f AscentFilter) ([]models.Ascent, error)
	CountAscents(ctx context.Context, f AscentFilter) (int, error)
	// DistinctAscentDates returns the distinct calendar days of matching
	// ascents in ascending order.
	DistinctAscentDates(ctx context.Context, f AscentFilter) ([]time.Time, error)
	DeleteAscent(ctx context.Context, id string) error
	// DeleteAscents removes every matching ascent and returns how many
	// were removed.
	DeleteAscents(ctx context.Context, f AscentFilter) (int, error)

	// WithinTx runs fn inside one transaction. fn must use the Store it
	// receives. The transaction commits when fn returns nil and rolls back
	// otherwise. Calling WithinTx on a transaction-bound Store joins the
	// running transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
