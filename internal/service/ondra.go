package service

import "strconv"

// Unsent is the sessions-to-send value of a route that was never sent.
const Unsent = -1

const (
	// maxSessionsToSend caps a route's contribution to an Ondra score and
	// is the penalty charged for unsent routes.
	maxSessionsToSend = 10
	// minSentRoutes is how many sent routes a grade needs before its
	// Ondra score is defined.
	minSentRoutes = 3
)

// OndraScore aggregates the sessions-to-send of the routes of one grade.
// ok is false when fewer than three of the routes were sent. Sent routes
// add min(sessions, 10), unsent routes add 10. Lower is better.
func OndraScore(sessions []int) (score int, ok bool) {
	sent := 0
	for _, s := range sessions {
		if s != Unsent {
			sent++
		}
	}
	if sent < minSentRoutes {
		return 0, false
	}

	for _, s := range sessions {
		if s == Unsent {
			score += maxSessionsToSend
			continue
		}
		score += min(s, maxSessionsToSend)
	}
	return score, true
}

// Sessions is a sessions-to-send value that encodes Unsent as JSON null.
type Sessions int

// MarshalJSON implements json.Marshaler.
func (s Sessions) MarshalJSON() ([]byte, error) {
	if s == Unsent {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

func toSessions(values []int) []Sessions {
	out := make([]Sessions, len(values))
	for i, v := range values {
		out[i] = Sessions(v)
	}
	return out
}
