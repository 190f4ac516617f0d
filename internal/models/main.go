// Package models defines the core data structures for users, areas,
// routes and ascents.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// PasswordHash is the hashed password of the user.
	PasswordHash []byte `json:"-"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// Area groups routes, typically a wall or sector of a gym or crag.
type Area struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	OwnerID       string      `json:"ownerId"`
	SteepnessTags []Steepness `json:"steepnessTags"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Route is a single climb. AreaID is empty when the route is not
// attached to an area.
type Route struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Grade      int       `json:"grade"`
	Color      Color     `json:"color"`
	OwnerID    string    `json:"ownerId"`
	AreaID     string    `json:"areaId,omitempty"`
	Bookmarked bool      `json:"bookmarked"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Ascent is one logged go on a route by a user on a calendar day.
type Ascent struct {
	ID      string `json:"id"`
	RouteID string `json:"routeId"`
	UserID  string `json:"userId"`
	// Date is the UTC calendar day of the ascent (time part is zero).
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes,omitempty"`
	TickType TickType  `json:"tickType"`
	// CreatedAt orders ascents logged on the same day.
	CreatedAt time.Time `json:"createdAt"`
}

// Steepness tags an area by wall angle.
type Steepness string

const (
	Slab     Steepness = "slab"
	Vertical Steepness = "vertical"
	Overhang Steepness = "overhang"
	Roof     Steepness = "roof"
)

// SteepnessOptions lists every valid steepness tag.
var SteepnessOptions = []Steepness{Slab, Vertical, Overhang, Roof}

// Color is the hold color used to identify a route.
type Color string

const (
	White  Color = "white"
	Yellow Color = "yellow"
	Orange Color = "orange"
	Green  Color = "green"
	Blue   Color = "blue"
	Red    Color = "red"
	Purple Color = "purple"
	Pink   Color = "pink"
	Black  Color = "black"
	Grey   Color = "grey"
)

// RouteColors lists every valid route color.
var RouteColors = []Color{White, Yellow, Orange, Green, Blue, Red, Purple, Pink, Black, Grey}

// DateLayout is the wire and storage format of ascent dates.
const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
