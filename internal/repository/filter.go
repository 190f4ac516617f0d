package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

// where accumulates AND-ed conditions with ? placeholders.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	w.conds = append(w.conds, column+" IN ("+marks+")")
	for _, v := range values {
		w.args = append(w.args, v)
	}
}

func (w where) empty() bool { return len(w.conds) == 0 }

func (w where) String() string {
	if w.empty() {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func tickStrings(ticks []models.TickType) []string {
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = string(t)
	}
	return out
}

func formatDate(t time.Time) string {
	return models.Day(t).Format(models.DateLayout)
}

func ascentWhere(f storage.AscentFilter) where {
	var w where
	w.in("id", f.IDs)
	if f.RouteID != "" {
		w.add("route_id = ?", f.RouteID)
	}
	w.in("route_id", f.RouteIDs)
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	w.in("tick_type", tickStrings(f.TickTypes))
	if !f.DateFrom.IsZero() {
		w.add("date >= ?", formatDate(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		w.add("date <= ?", formatDate(f.DateTo))
	}
	if !f.Before.IsZero() {
		w.add("date < ?", formatDate(f.Before))
	}
	if !f.CreatedAfter.IsZero() {
		w.add("created_at > ?", toMillis(f.CreatedAfter))
	}
	return w
}

func routeWhere(f storage.RouteFilter) where {
	var w where
	w.in("id", f.IDs)
	if f.OwnerID != "" {
		w.add("owner_id = ?", f.OwnerID)
	}
	if f.AreaID != "" {
		w.add("area_id = ?", f.AreaID)
	}
	if f.Grade != nil {
		w.add("grade = ?", *f.Grade)
	}
	if f.MinGrade != nil {
		w.add("grade >= ?", *f.MinGrade)
	}
	if f.MaxGrade != nil {
		w.add("grade <= ?", *f.MaxGrade)
	}
	if f.AscendedBy != "" {
		var sub where
		sub.add("user_id = ?", f.AscendedBy)
		sub.in("tick_type", tickStrings(f.AscentTickTypes))
		w.add("id IN (SELECT route_id FROM ascents"+sub.String()+")", sub.args...)
	}
	return w
}

var (
	ascentSortColumns = map[storage.SortField]string{
		storage.SortByDate:      "date",
		storage.SortByCreatedAt: "created_at",
	}
	routeSortColumns = map[storage.SortField]string{
		storage.SortByGrade:     "grade",
		storage.SortByName:      "name",
		storage.SortByCreatedAt: "created_at",
	}
)

// orderBy renders ORDER BY and LIMIT clauses, rejecting unknown fields.
func orderBy(orders []storage.Order, columns map[storage.SortField]string, limit int) (string, error) {
	var b strings.Builder
	for i, o := range orders {
		col, ok := columns[o.Field]
		if !ok {
			return "", fmt.Errorf("unsupported sort field %q", o.Field)
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(col)
		if o.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String(), nil
}
