// Package core defines the domain model for robust task-sequence planning.
package core

import (
	"fmt"
	"strings"
)

// Heading is the facing direction of an agent on the grid.
type Heading int

const (
	East Heading = iota
	South
	West
	North
)

func (h Heading) String() string {
	return [...]string{"East", "South", "West", "North"}[h&3]
}

// Right returns the heading after a clockwise quarter turn.
func (h Heading) Right() Heading {
	return (h + 1) & 3
}

// Left returns the heading after a counter-clockwise quarter turn.
func (h Heading) Left() Heading {
	return (h + 3) & 3
}

// Valid reports whether h is one of the four compass headings.
func (h Heading) Valid() bool {
	return h >= East && h <= North
}

// Position is a cell index paired with a heading.
// Headingless planners carry the heading through unchanged.
type Position struct {
	Loc     int
	Heading Heading
}

// At returns the position at cell loc facing h.
func At(loc int, h Heading) Position {
	return Position{Loc: loc, Heading: h}
}

// ParseHeading accepts a compass name or its initial, in any case.
func ParseHeading(s string) (Heading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "east", "":
		return East, nil
	case "s", "south":
		return South, nil
	case "w", "west":
		return West, nil
	case "n", "north":
		return North, nil
	}
	return East, fmt.Errorf("unknown heading %q", s)
}
