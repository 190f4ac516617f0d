package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atinyakov/CragLog/internal/db"
	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/repository"
	"github.com/atinyakov/CragLog/internal/storage"
)

// fixture seeds an in-memory SQLite store.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *repository.SQLStore
	seq   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: repository.NewSQLiteStore(conn),
		seq:   time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	u := &models.User{Username: name, PasswordHash: []byte("x")}
	require.NoError(f.t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) area(owner *models.User, name string) *models.Area {
	f.t.Helper()
	a := &models.Area{Name: name, OwnerID: owner.ID}
	require.NoError(f.t, f.store.CreateArea(f.ctx, a))
	return a
}

func (f *fixture) route(owner *models.User, area *models.Area, name string, grade int) *models.Route {
	f.t.Helper()
	r := &models.Route{Name: name, Grade: grade, Color: models.Blue, OwnerID: owner.ID}
	if area != nil {
		r.AreaID = area.ID
	}
	require.NoError(f.t, f.store.CreateRoute(f.ctx, r))
	return r
}

// ascent logs an ascent; creation times increase with every call.
func (f *fixture) ascent(u *models.User, r *models.Route, date time.Time, tick models.TickType) *models.Ascent {
	f.t.Helper()
	f.seq = f.seq.Add(time.Minute)
	a := &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: date, TickType: tick, CreatedAt: f.seq}
	require.NoError(f.t, f.store.CreateAscent(f.ctx, a))
	return a
}

func (f *fixture) ascentExists(id string) bool {
	_, err := f.store.GetAscent(f.ctx, id)
	return err == nil
}

func (f *fixture) routeExists(id string) bool {
	_, err := f.store.GetRoute(f.ctx, id)
	return err == nil
}

func (f *fixture) areaExists(id string) bool {
	_, err := f.store.GetArea(f.ctx, id)
	return err == nil
}

// failingStore injects errors into chosen store calls, including calls
// made through transaction-bound stores.
type failingStore struct {
	storage.Store
	deleteRouteErr error
	deleteAreaErr  error
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx storage.Store) error {
		return fn(&failingStore{Store: tx, deleteRouteErr: s.deleteRouteErr, deleteAreaErr: s.deleteAreaErr})
	})
}

func (s *failingStore) DeleteRoute(ctx context.Context, id string) error {
	if s.deleteRouteErr != nil {
		return s.deleteRouteErr
	}
	return s.Store.DeleteRoute(ctx, id)
}

func (s *failingStore) DeleteArea(ctx context.Context, id string) error {
	if s.deleteAreaErr != nil {
		return s.deleteAreaErr
	}
	return s.Store.DeleteArea(ctx, id)
}
