package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

func TestCatalog_CreateArea(t *testing.T) {
	f := newFixture(t)
	u := f.user("alex")
	svc := NewCatalogService(f.store, nil)

	area, err := svc.CreateArea(f.ctx, u.ID, " Cave ", []models.Steepness{models.Roof, models.Overhang, models.Roof})
	require.NoError(t, err)
	assert.Equal(t, "Cave", area.Name)
	assert.Equal(t, []models.Steepness{models.Roof, models.Overhang}, area.SteepnessTags)

	_, err = svc.CreateArea(f.ctx, u.ID, "Cave", nil)
	assert.ErrorIs(t, err, storage.ErrConflict)
	_, err = svc.CreateArea(f.ctx, u.ID, "Wall", []models.Steepness{"sideways"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateArea(f.ctx, u.ID, "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.ListAreas(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalog_CreateRoute(t *testing.T) {
	f := newFixture(t)
	u := f.user("alex")
	other := f.user("sam")
	svc := NewCatalogService(f.store, nil)
	area, err := svc.CreateArea(f.ctx, u.ID, "Cave", nil)
	require.NoError(t, err)

	r := &models.Route{Name: "Crimpy", Grade: 5, Color: models.Blue, OwnerID: u.ID, AreaID: area.ID}
	require.NoError(t, svc.CreateRoute(f.ctx, r))
	assert.NotEmpty(t, r.ID)

	err = svc.CreateRoute(f.ctx, &models.Route{Name: "Crimpy", Grade: 6, Color: models.Red, OwnerID: u.ID})
	assert.ErrorIs(t, err, storage.ErrConflict)

	err = svc.CreateRoute(f.ctx, &models.Route{Name: "Theirs", Grade: 6, Color: models.Red, OwnerID: other.ID, AreaID: area.ID})
	assert.ErrorIs(t, err, storage.ErrNotFound, "area of another user")

	err = svc.CreateRoute(f.ctx, &models.Route{Name: "Beige", Grade: 6, Color: "beige", OwnerID: u.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	routes, err := svc.ListRoutes(f.ctx, u.ID, area.ID)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Crimpy", routes[0].Name)
}

func TestCatalog_SetBookmark(t *testing.T) {
	f := newFixture(t)
	u := f.user("alex")
	other := f.user("sam")
	r := f.route(u, nil, "Crimpy", 5)
	svc := NewCatalogService(f.store, nil)

	require.NoError(t, svc.SetBookmark(f.ctx, u.ID, r.ID, true))
	got, err := f.store.GetRoute(f.ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Bookmarked)

	assert.ErrorIs(t, svc.SetBookmark(f.ctx, other.ID, r.ID, false), storage.ErrNotFound)
	assert.ErrorIs(t, svc.SetBookmark(f.ctx, u.ID, "missing", false), storage.ErrNotFound)
}

func TestCatalog_CreateAscent(t *testing.T) {
	f := newFixture(t)
	u := f.user("alex")
	r := f.route(u, nil, "Crimpy", 5)
	svc := NewCatalogService(f.store, nil)

	a := &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: time.Date(2023, 1, 1, 19, 0, 0, 0, time.UTC), TickType: models.Flash}
	require.NoError(t, svc.CreateAscent(f.ctx, a))
	assert.Equal(t, day(2023, 1, 1), a.Date)

	err := svc.CreateAscent(f.ctx, &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: day(2023, 1, 1), TickType: "onsight"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = svc.CreateAscent(f.ctx, &models.Ascent{RouteID: "missing", UserID: u.ID, Date: day(2023, 1, 1), TickType: models.Hang})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := svc.ListAscents(f.ctx, u.ID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalog_PrefillAscentDate(t *testing.T) {
	f := newFixture(t)
	u := f.user("alex")
	r := f.route(u, nil, "Crimpy", 5)
	svc := NewCatalogService(f.store, nil)
	now := time.Date(2023, 5, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	got, err := svc.PrefillAscentDate(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 5, 10), got, "no ascents yet")

	old := &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: day(2023, 5, 1), TickType: models.Attempt, CreatedAt: now.Add(-13 * time.Hour)}
	require.NoError(t, f.store.CreateAscent(f.ctx, old))
	got, err = svc.PrefillAscentDate(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 5, 10), got, "last ascent logged too long ago")

	recent := &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: day(2023, 5, 9), TickType: models.Attempt, CreatedAt: now.Add(-2 * time.Hour)}
	require.NoError(t, f.store.CreateAscent(f.ctx, recent))
	got, err = svc.PrefillAscentDate(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 5, 9), got)

	a := &models.Ascent{RouteID: r.ID, UserID: u.ID, TickType: models.Hang}
	require.NoError(t, svc.CreateAscent(f.ctx, a))
	assert.Equal(t, day(2023, 5, 9), a.Date, "zero date is prefilled")
}
