package service

import (
	"time"

	"github.com/atinyakov/CragLog/internal/models"
)

// WeekCounts is the ascent histogram of one calendar week.
type WeekCounts struct {
	WeekStartDate time.Time               `json:"weekStartDate"`
	WeekEndDate   time.Time               `json:"weekEndDate"`
	Total         int                     `json:"total"`
	Counts        map[models.TickType]int `json:"counts"`
}

// WeekStartOf returns the first day of the week containing d.
func WeekStartOf(d time.Time, weekStart time.Weekday) time.Time {
	d = models.Day(d)
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// WeeklyTickTypeCounts buckets ascents into weeks starting on weekStart,
// from the week of the earliest ascent through the week of the latest.
// Weeks without ascents are included with zero counts, and every tick
// type of order is present in each week.
func WeeklyTickTypeCounts(ascents []models.Ascent, order models.TickOrder, weekStart time.Weekday) []WeekCounts {
	if len(ascents) == 0 {
		return []WeekCounts{}
	}

	first, last := models.Day(ascents[0].Date), models.Day(ascents[0].Date)
	for _, a := range ascents[1:] {
		d := models.Day(a.Date)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	start := WeekStartOf(first, weekStart)
	weeks := daysBetween(start, WeekStartOf(last, weekStart))/7 + 1

	out := make([]WeekCounts, weeks)
	for i := range out {
		ws := start.AddDate(0, 0, 7*i)
		out[i] = WeekCounts{
			WeekStartDate: ws,
			WeekEndDate:   ws.AddDate(0, 0, 6),
			Counts:        order.ZeroCounts(),
		}
	}

	for _, a := range ascents {
		w := &out[daysBetween(start, models.Day(a.Date))/7]
		w.Counts[a.TickType]++
		w.Total++
	}
	return out
}

// daysBetween counts whole days from a to b; both must be UTC midnights.
// Works on unix seconds since time.Duration overflows past ~292 years.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
