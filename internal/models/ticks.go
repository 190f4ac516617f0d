package models

import (
	"fmt"
	"slices"
)

// TickType categorizes the quality of an ascent.
type TickType string

const (
	// Attempt is a go on a route that did not end at the top.
	Attempt TickType = "attempt"
	// Hang is a top reached with rests on the rope or holds.
	Hang TickType = "hang"
	// Redpoint is a clean send after prior attempts.
	Redpoint TickType = "redpoint"
	// Flash is a clean send on the first go.
	Flash TickType = "flash"
)

// SendTickTypes are the tick types that count as sending a route.
var SendTickTypes = []TickType{Flash, Redpoint}

// IsSend reports whether t counts as a send.
func (t TickType) IsSend() bool {
	return slices.Contains(SendTickTypes, t)
}

// TickOrder is the ordered list of known tick types, lowest first.
type TickOrder []TickType

// DefaultTickOrder is used when no order is configured.
var DefaultTickOrder = TickOrder{Attempt, Hang, Redpoint, Flash}

// ParseTickOrder builds a TickOrder from names, rejecting duplicates and
// orders that miss one of the send tick types.
func ParseTickOrder(names []string) (TickOrder, error) {
	if len(names) == 0 {
		return slices.Clone(DefaultTickOrder), nil
	}
	order := make(TickOrder, 0, len(names))
	for _, n := range names {
		t := TickType(n)
		if t == "" {
			return nil, fmt.Errorf("empty tick type in order")
		}
		if slices.Contains(order, t) {
			return nil, fmt.Errorf("duplicate tick type %q in order", n)
		}
		order = append(order, t)
	}
	for _, s := range SendTickTypes {
		if !slices.Contains(order, s) {
			return nil, fmt.Errorf("tick order must contain %q", s)
		}
	}
	return order, nil
}

// Position returns the rank of t in the order, or -1 if t is unknown.
func (o TickOrder) Position(t TickType) int {
	return slices.Index(o, t)
}

// Valid reports whether t is part of the order.
func (o TickOrder) Valid(t TickType) bool {
	return o.Position(t) >= 0
}

// Compare returns -1, 0 or +1 comparing a and b by rank.
func (o TickOrder) Compare(a, b TickType) int {
	pa, pb := o.Position(a), o.Position(b)
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	}
	return 0
}

// Highest returns the ascent with the highest ranked tick type. Among
// equal ranks the earliest by date, then creation time, then id wins.
// ok is false when ascents is empty.
func (o TickOrder) Highest(ascents []Ascent) (best Ascent, ok bool) {
	for _, a := range ascents {
		if !ok {
			best, ok = a, true
			continue
		}
		switch c := o.Compare(a.TickType, best.TickType); {
		case c > 0:
			best = a
		case c == 0 && ascentBefore(a, best):
			best = a
		}
	}
	return best, ok
}

func ascentBefore(a, b Ascent) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// ZeroCounts returns a map with every tick type of the order set to 0.
func (o TickOrder) ZeroCounts() map[TickType]int {
	m := make(map[TickType]int, len(o))
	for _, t := range o {
		m[t] = 0
	}
	return m
}
