package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

// StatsService derives per-user statistics from logged ascents. All
// methods are read-only and run outside transactions; a missing ascent
// is an empty result, not an error.
type StatsService struct {
	store     storage.Store
	order     models.TickOrder
	weekStart time.Weekday
}

// NewStatsService creates a StatsService ranking tick types by order and
// bucketing weeks from weekStart.
func NewStatsService(store storage.Store, order models.TickOrder, weekStart time.Weekday) *StatsService {
	if len(order) == 0 {
		order = models.DefaultTickOrder
	}
	return &StatsService{store: store, order: order, weekStart: weekStart}
}

// TickOrder returns the ranking used by the service.
func (s *StatsService) TickOrder() models.TickOrder { return s.order }

// IsFlashed reports whether the user flashed the route.
func (s *StatsService) IsFlashed(ctx context.Context, userID, routeID string) (bool, error) {
	return s.exists(ctx, storage.AscentFilter{UserID: userID, RouteID: routeID, TickTypes: []models.TickType{models.Flash}})
}

// IsSent reports whether the user flashed or redpointed the route.
func (s *StatsService) IsSent(ctx context.Context, userID, routeID string) (bool, error) {
	return s.exists(ctx, storage.AscentFilter{UserID: userID, RouteID: routeID, TickTypes: models.SendTickTypes})
}

func (s *StatsService) exists(ctx context.Context, f storage.AscentFilter) (bool, error) {
	n, err := s.store.CountAscents(ctx, f)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HighestTickType returns the user's best ascent of the route, or nil.
func (s *StatsService) HighestTickType(ctx context.Context, userID, routeID string) (*models.Ascent, error) {
	ascents, err := s.store.FindAscents(ctx, storage.AscentFilter{UserID: userID, RouteID: routeID})
	if err != nil {
		return nil, err
	}
	best, ok := s.order.Highest(ascents)
	if !ok {
		return nil, nil
	}
	return &best, nil
}

// SessionsToSend returns 0 if the user flashed the route, Unsent if the
// route was never sent, and otherwise the number of distinct days the
// user climbed the route before the first redpoint.
func (s *StatsService) SessionsToSend(ctx context.Context, userID, routeID string) (int, error) {
	flashed, err := s.IsFlashed(ctx, userID, routeID)
	if err != nil {
		return 0, err
	}
	if flashed {
		return 0, nil
	}

	rp, err := s.firstAscent(ctx, storage.AscentFilter{
		UserID:    userID,
		RouteID:   routeID,
		TickTypes: []models.TickType{models.Redpoint},
	})
	if err != nil {
		return 0, err
	}
	if rp == nil {
		return Unsent, nil
	}

	dates, err := s.store.DistinctAscentDates(ctx, storage.AscentFilter{
		UserID:  userID,
		RouteID: routeID,
		Before:  rp.Date,
	})
	if err != nil {
		return 0, err
	}
	return len(dates), nil
}

// FirstSentAscent returns the user's earliest flash or redpoint of the
// route, or nil.
func (s *StatsService) FirstSentAscent(ctx context.Context, userID, routeID string) (*models.Ascent, error) {
	return s.firstAscent(ctx, storage.AscentFilter{UserID: userID, RouteID: routeID, TickTypes: models.SendTickTypes})
}

func (s *StatsService) firstAscent(ctx context.Context, f storage.AscentFilter) (*models.Ascent, error) {
	f.Sort = []storage.Order{storage.Asc(storage.SortByDate), storage.Asc(storage.SortByCreatedAt)}
	f.Limit = 1
	ascents, err := s.store.FindAscents(ctx, f)
	if err != nil || len(ascents) == 0 {
		return nil, err
	}
	return &ascents[0], nil
}

// RouteFirstAscentDate returns the day of the user's first ascent of the
// route, or nil.
func (s *StatsService) RouteFirstAscentDate(ctx context.Context, userID, routeID string) (*time.Time, error) {
	return s.edgeDate(ctx, storage.AscentFilter{UserID: userID, RouteID: routeID}, false)
}

// RouteLastAscentDate returns the day of the user's latest ascent of the
// route, or nil.
func (s *StatsService) RouteLastAscentDate(ctx context.Context, userID, routeID string) (*time.Time, error) {
	return s.edgeDate(ctx, storage.AscentFilter{UserID: userID, RouteID: routeID}, true)
}

// UserFirstAscentDate returns the day of the user's first ascent, or nil.
func (s *StatsService) UserFirstAscentDate(ctx context.Context, userID string) (*time.Time, error) {
	return s.edgeDate(ctx, storage.AscentFilter{UserID: userID}, false)
}

// UserLastAscentDate returns the day of the user's latest ascent, or nil.
func (s *StatsService) UserLastAscentDate(ctx context.Context, userID string) (*time.Time, error) {
	return s.edgeDate(ctx, storage.AscentFilter{UserID: userID}, true)
}

func (s *StatsService) edgeDate(ctx context.Context, f storage.AscentFilter, latest bool) (*time.Time, error) {
	o := storage.Asc(storage.SortByDate)
	if latest {
		o = storage.Desc(storage.SortByDate)
	}
	f.Sort = []storage.Order{o}
	f.Limit = 1
	ascents, err := s.store.FindAscents(ctx, f)
	if err != nil || len(ascents) == 0 {
		return nil, err
	}
	d := ascents[0].Date
	return &d, nil
}

// MinimumAscentGrade returns the lowest grade among routes the user
// ascended, or nil.
func (s *StatsService) MinimumAscentGrade(ctx context.Context, userID string) (*int, error) {
	return s.edgeGrade(ctx, storage.RouteFilter{AscendedBy: userID}, false)
}

// MaximumAscentGrade returns the highest grade among routes the user
// ascended, or nil.
func (s *StatsService) MaximumAscentGrade(ctx context.Context, userID string) (*int, error) {
	return s.edgeGrade(ctx, storage.RouteFilter{AscendedBy: userID}, true)
}

// MaximumGradeByTickType returns the highest grade the user ascended
// with the given tick type, or nil.
func (s *StatsService) MaximumGradeByTickType(ctx context.Context, userID string, tick models.TickType) (*int, error) {
	if !s.order.Valid(tick) {
		return nil, fmt.Errorf("tick type %q: %w", tick, ErrInvalidInput)
	}
	return s.edgeGrade(ctx, storage.RouteFilter{AscendedBy: userID, AscentTickTypes: []models.TickType{tick}}, true)
}

// MaximumSentGradeByArea returns the highest grade the user sent in the
// area, or nil.
func (s *StatsService) MaximumSentGradeByArea(ctx context.Context, userID, areaID string) (*int, error) {
	return s.edgeGrade(ctx, storage.RouteFilter{
		AreaID:          areaID,
		AscendedBy:      userID,
		AscentTickTypes: models.SendTickTypes,
	}, true)
}

func (s *StatsService) edgeGrade(ctx context.Context, f storage.RouteFilter, highest bool) (*int, error) {
	o := storage.Asc(storage.SortByGrade)
	if highest {
		o = storage.Desc(storage.SortByGrade)
	}
	f.Sort = []storage.Order{o}
	f.Limit = 1
	routes, err := s.store.FindRoutes(ctx, f)
	if err != nil || len(routes) == 0 {
		return nil, err
	}
	g := routes[0].Grade
	return &g, nil
}

// BestAscentsByTickType returns, at the highest grade the user ascended
// with tick, the first sends whose tick type is tick.
func (s *StatsService) BestAscentsByTickType(ctx context.Context, userID string, tick models.TickType) ([]models.Ascent, error) {
	grade, err := s.MaximumGradeByTickType(ctx, userID, tick)
	if err != nil {
		return nil, err
	}
	best := []models.Ascent{}
	if grade == nil {
		return best, nil
	}

	routes, err := s.store.FindRoutes(ctx, storage.RouteFilter{
		Grade:           grade,
		AscendedBy:      userID,
		AscentTickTypes: []models.TickType{tick},
		Sort:            []storage.Order{storage.Asc(storage.SortByName)},
	})
	if err != nil {
		return nil, err
	}
	for _, r := range routes {
		first, err := s.FirstSentAscent(ctx, userID, r.ID)
		if err != nil {
			return nil, err
		}
		if first != nil && first.TickType == tick {
			best = append(best, *first)
		}
	}
	return best, nil
}

// WeeklyTickTypeCounts returns the user's gap-free weekly histogram.
func (s *StatsService) WeeklyTickTypeCounts(ctx context.Context, userID string) ([]WeekCounts, error) {
	ascents, err := s.store.FindAscents(ctx, storage.AscentFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	return WeeklyTickTypeCounts(ascents, s.order, s.weekStart), nil
}

// GradeTickCounts counts, for one grade, the routes whose highest tick
// type is each tick type.
type GradeTickCounts struct {
	Grade  int                     `json:"grade"`
	Total  int                     `json:"total"`
	Counts map[models.TickType]int `json:"counts"`
}

// GradeBestTickTypeCounts returns one entry per grade between the user's
// lowest and highest ascended grade inclusive.
func (s *StatsService) GradeBestTickTypeCounts(ctx context.Context, userID string) ([]GradeTickCounts, error) {
	routes, byRoute, err := s.ascendedRoutes(ctx, userID)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := gradeRange(routes)
	if !ok {
		return []GradeTickCounts{}, nil
	}

	out := make([]GradeTickCounts, hi-lo+1)
	for i := range out {
		out[i] = GradeTickCounts{Grade: lo + i, Counts: s.order.ZeroCounts()}
	}
	for _, r := range routes {
		best, ok := s.order.Highest(byRoute[r.ID])
		if !ok {
			continue
		}
		g := &out[r.Grade-lo]
		g.Counts[best.TickType]++
		g.Total++
	}
	return out, nil
}

// GradeOndra holds the sessions-to-send of the routes of one grade and
// their Ondra score, nil when undefined.
type GradeOndra struct {
	Grade          int        `json:"grade"`
	SessionsToSend []Sessions `json:"sessionsToSend"`
	OndraScore     *int       `json:"ondraScore"`
}

// GradeOndraScores returns one entry per grade between the user's lowest
// and highest ascended grade inclusive.
func (s *StatsService) GradeOndraScores(ctx context.Context, userID string) ([]GradeOndra, error) {
	routes, byRoute, err := s.ascendedRoutes(ctx, userID)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := gradeRange(routes)
	if !ok {
		return []GradeOndra{}, nil
	}

	sessions := make([][]int, hi-lo+1)
	for _, r := range routes {
		sessions[r.Grade-lo] = append(sessions[r.Grade-lo], sessionsToSend(byRoute[r.ID]))
	}

	out := make([]GradeOndra, len(sessions))
	for i, ss := range sessions {
		out[i] = GradeOndra{Grade: lo + i, SessionsToSend: toSessions(ss)}
		if score, ok := OndraScore(ss); ok {
			out[i].OndraScore = &score
		}
	}
	return out, nil
}

// ascendedRoutes loads the routes the user ascended, sorted by grade,
// together with the user's ascents grouped by route.
func (s *StatsService) ascendedRoutes(ctx context.Context, userID string) ([]models.Route, map[string][]models.Ascent, error) {
	routes, err := s.store.FindRoutes(ctx, storage.RouteFilter{
		AscendedBy: userID,
		Sort:       []storage.Order{storage.Asc(storage.SortByGrade), storage.Asc(storage.SortByName)},
	})
	if err != nil {
		return nil, nil, err
	}
	ascents, err := s.store.FindAscents(ctx, storage.AscentFilter{UserID: userID})
	if err != nil {
		return nil, nil, err
	}
	return routes, groupByRoute(ascents), nil
}

// RouteSummary is a route with the derived fields of one user's ascents.
type RouteSummary struct {
	models.Route
	Flashed         bool             `json:"flashed"`
	Sent            bool             `json:"sent"`
	SessionsToSend  Sessions         `json:"sessionsToSend"`
	HighestTickType *models.TickType `json:"highestTickType"`
	FirstSentAscent *models.Ascent   `json:"firstSentAscent"`
	FirstAscentDate *time.Time       `json:"firstAscentDate"`
	LastAscentDate  *time.Time       `json:"lastAscentDate"`
	AscentCount     int              `json:"ascentCount"`
}

// RouteSummary loads a route and derives its fields from the user's
// ascents in a single read.
func (s *StatsService) RouteSummary(ctx context.Context, userID, routeID string) (*RouteSummary, error) {
	route, err := s.store.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	ascents, err := s.store.FindAscents(ctx, storage.AscentFilter{
		UserID:  userID,
		RouteID: routeID,
		Sort:    []storage.Order{storage.Asc(storage.SortByDate), storage.Asc(storage.SortByCreatedAt)},
	})
	if err != nil {
		return nil, err
	}

	sum := &RouteSummary{
		Route:           *route,
		Flashed:         hasTick(ascents, models.Flash),
		Sent:            hasTick(ascents, models.SendTickTypes...),
		SessionsToSend:  Sessions(sessionsToSend(ascents)),
		FirstSentAscent: firstSent(ascents),
		AscentCount:     len(ascents),
	}
	if best, ok := s.order.Highest(ascents); ok {
		sum.HighestTickType = &best.TickType
	}
	if len(ascents) > 0 {
		first, last := ascents[0].Date, ascents[len(ascents)-1].Date
		sum.FirstAscentDate, sum.LastAscentDate = &first, &last
	}
	return sum, nil
}
