package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/CragLog/internal/db"
	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteStore(conn)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, s *SQLStore, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: []byte("x")}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestSQLite_Users(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	u := seedUser(t, s, "alex")
	assert.NotEmpty(t, u.ID)

	err := s.CreateUser(ctx, &models.User{Username: "alex", PasswordHash: []byte("y")})
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := s.GetUserByUsername(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []byte("x"), got.PasswordHash)

	require.NoError(t, s.UpdateUserPassword(ctx, u.ID, []byte("new")))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.PasswordHash)

	assert.ErrorIs(t, s.UpdateUserPassword(ctx, "missing", []byte("z")), storage.ErrNotFound)
	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_AreasTagsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := seedUser(t, s, "alex")

	cave := &models.Area{Name: "Cave", OwnerID: u.ID, SteepnessTags: []models.Steepness{models.Overhang, models.Roof}}
	slab := &models.Area{Name: "Slab wall", OwnerID: u.ID}
	require.NoError(t, s.CreateArea(ctx, cave))
	require.NoError(t, s.CreateArea(ctx, slab))

	err := s.CreateArea(ctx, &models.Area{Name: "Cave", OwnerID: u.ID})
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := s.GetArea(ctx, cave.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Steepness{models.Overhang, models.Roof}, got.SteepnessTags)

	list, err := s.ListAreas(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Cave", list[0].Name)
	assert.Empty(t, list[1].SteepnessTags)
}

func TestSQLite_RoutesConstraints(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := seedUser(t, s, "alex")

	r := &models.Route{Name: "Crimpy", Grade: 5, Color: models.Blue, OwnerID: u.ID}
	require.NoError(t, s.CreateRoute(ctx, r))

	err := s.CreateRoute(ctx, &models.Route{Name: "Crimpy", Grade: 3, Color: models.Red, OwnerID: u.ID})
	assert.ErrorIs(t, err, storage.ErrConflict, "route names are unique")

	err = s.CreateRoute(ctx, &models.Route{Name: "Ghost", Grade: 3, Color: models.Red, OwnerID: u.ID, AreaID: "nope"})
	assert.ErrorIs(t, err, storage.ErrNotFound, "unknown area")

	require.NoError(t, s.SetRouteBookmarked(ctx, r.ID, true))
	got, err := s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Bookmarked)
	assert.Empty(t, got.AreaID)

	assert.ErrorIs(t, s.SetRouteBookmarked(ctx, "missing", true), storage.ErrNotFound)
}

func TestSQLite_FindRoutesAndAscents(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := seedUser(t, s, "alex")
	other := seedUser(t, s, "sam")

	area := &models.Area{Name: "Cave", OwnerID: u.ID}
	require.NoError(t, s.CreateArea(ctx, area))

	easy := &models.Route{Name: "Easy", Grade: 2, Color: models.Yellow, OwnerID: u.ID, AreaID: area.ID}
	hard := &models.Route{Name: "Hard", Grade: 8, Color: models.Black, OwnerID: u.ID, AreaID: area.ID}
	mid := &models.Route{Name: "Mid", Grade: 5, Color: models.Green, OwnerID: u.ID}
	for _, r := range []*models.Route{easy, hard, mid} {
		require.NoError(t, s.CreateRoute(ctx, r))
	}

	ascents := []*models.Ascent{
		{RouteID: easy.ID, UserID: u.ID, Date: day(2023, 1, 1), TickType: models.Flash},
		{RouteID: hard.ID, UserID: u.ID, Date: day(2023, 1, 1), TickType: models.Attempt},
		{RouteID: hard.ID, UserID: u.ID, Date: day(2023, 1, 8), TickType: models.Redpoint},
		{RouteID: mid.ID, UserID: other.ID, Date: day(2023, 1, 3), TickType: models.Flash},
	}
	for _, a := range ascents {
		require.NoError(t, s.CreateAscent(ctx, a))
	}

	err := s.CreateAscent(ctx, &models.Ascent{RouteID: "missing", UserID: u.ID, Date: day(2023, 1, 1), TickType: models.Flash})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	inArea, err := s.FindRoutes(ctx, storage.RouteFilter{AreaID: area.ID, Sort: []storage.Order{storage.Asc(storage.SortByGrade)}})
	require.NoError(t, err)
	require.Len(t, inArea, 2)
	assert.Equal(t, "Easy", inArea[0].Name)

	sent, err := s.FindRoutes(ctx, storage.RouteFilter{
		AscendedBy:      u.ID,
		AscentTickTypes: models.SendTickTypes,
		Sort:            []storage.Order{storage.Desc(storage.SortByGrade)},
		Limit:           1,
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Hard", sent[0].Name)

	minGrade := 3
	n, err := s.CountRoutes(ctx, storage.RouteFilter{MinGrade: &minGrade})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	onHard, err := s.FindAscents(ctx, storage.AscentFilter{
		RouteID: hard.ID,
		Sort:    []storage.Order{storage.Asc(storage.SortByDate)},
	})
	require.NoError(t, err)
	require.Len(t, onHard, 2)
	assert.Equal(t, models.Attempt, onHard[0].TickType)
	assert.Equal(t, day(2023, 1, 8), onHard[1].Date)

	before, err := s.FindAscents(ctx, storage.AscentFilter{UserID: u.ID, Before: day(2023, 1, 8)})
	require.NoError(t, err)
	assert.Len(t, before, 2)

	ranged, err := s.CountAscents(ctx, storage.AscentFilter{DateFrom: day(2023, 1, 2), DateTo: day(2023, 1, 8)})
	require.NoError(t, err)
	assert.Equal(t, 2, ranged)

	dates, err := s.DistinctAscentDates(ctx, storage.AscentFilter{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2023, 1, 1), day(2023, 1, 8)}, dates)
}

func TestSQLite_DeleteRespectsReferences(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := seedUser(t, s, "alex")

	area := &models.Area{Name: "Cave", OwnerID: u.ID}
	require.NoError(t, s.CreateArea(ctx, area))
	r := &models.Route{Name: "Crimpy", Grade: 5, Color: models.Blue, OwnerID: u.ID, AreaID: area.ID}
	require.NoError(t, s.CreateRoute(ctx, r))
	a1 := &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: day(2023, 1, 1), TickType: models.Attempt}
	a2 := &models.Ascent{RouteID: r.ID, UserID: u.ID, Date: day(2023, 1, 2), TickType: models.Redpoint}
	require.NoError(t, s.CreateAscent(ctx, a1))
	require.NoError(t, s.CreateAscent(ctx, a2))

	assert.ErrorIs(t, s.DeleteRoute(ctx, r.ID), storage.ErrSerialization)
	assert.ErrorIs(t, s.DeleteArea(ctx, area.ID), storage.ErrSerialization)

	_, err := s.DeleteAscents(ctx, storage.AscentFilter{})
	assert.Error(t, err)

	n, err := s.DeleteAscents(ctx, storage.AscentFilter{RouteID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.DeleteRoute(ctx, r.ID))
	require.NoError(t, s.DeleteArea(ctx, area.ID))
	assert.ErrorIs(t, s.DeleteArea(ctx, area.ID), storage.ErrNotFound)
}

func TestSQLite_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := seedUser(t, s, "alex")

	boom := errors.New("boom")
	var routeID string
	err := s.WithinTx(ctx, func(tx storage.Store) error {
		r := &models.Route{Name: "Temp", Grade: 1, Color: models.White, OwnerID: u.ID}
		if err := tx.CreateRoute(ctx, r); err != nil {
			return err
		}
		routeID = r.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetRoute(ctx, routeID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.WithinTx(ctx, func(tx storage.Store) error {
		return tx.CreateRoute(ctx, &models.Route{Name: "Kept", Grade: 1, Color: models.White, OwnerID: u.ID})
	})
	require.NoError(t, err)
	n, err := s.CountRoutes(ctx, storage.RouteFilter{OwnerID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
