package service

import (
	"slices"
	"time"

	"github.com/atinyakov/CragLog/internal/models"
)

// Pure derivations over the ascents of one user on one route.

func hasTick(ascents []models.Ascent, ticks ...models.TickType) bool {
	return slices.ContainsFunc(ascents, func(a models.Ascent) bool {
		return slices.Contains(ticks, a.TickType)
	})
}

// earliest returns the earliest ascent with one of ticks, by date then
// creation time, or nil.
func earliest(ascents []models.Ascent, ticks ...models.TickType) *models.Ascent {
	var best *models.Ascent
	for i := range ascents {
		a := &ascents[i]
		if !slices.Contains(ticks, a.TickType) {
			continue
		}
		if best == nil || a.Date.Before(best.Date) ||
			(a.Date.Equal(best.Date) && a.CreatedAt.Before(best.CreatedAt)) {
			best = a
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func firstSent(ascents []models.Ascent) *models.Ascent {
	return earliest(ascents, models.SendTickTypes...)
}

// sessionsToSend is 0 for a flashed route, Unsent when no redpoint
// exists, and otherwise the number of distinct days with an ascent
// before the first redpoint.
func sessionsToSend(ascents []models.Ascent) int {
	if hasTick(ascents, models.Flash) {
		return 0
	}
	rp := earliest(ascents, models.Redpoint)
	if rp == nil {
		return Unsent
	}
	days := map[time.Time]struct{}{}
	for _, a := range ascents {
		d := models.Day(a.Date)
		if d.Before(rp.Date) {
			days[d] = struct{}{}
		}
	}
	return len(days)
}

func groupByRoute(ascents []models.Ascent) map[string][]models.Ascent {
	out := make(map[string][]models.Ascent)
	for _, a := range ascents {
		out[a.RouteID] = append(out[a.RouteID], a)
	}
	return out
}

// gradeRange returns the lowest and highest grade of routes.
func gradeRange(routes []models.Route) (lo, hi int, ok bool) {
	for i, r := range routes {
		if i == 0 || r.Grade < lo {
			lo = r.Grade
		}
		if i == 0 || r.Grade > hi {
			hi = r.Grade
		}
	}
	return lo, hi, len(routes) > 0
}
