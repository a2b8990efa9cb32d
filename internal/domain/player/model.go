package player

import "strings"

// Position is the fantasy game's singular position name.
type Position string

const (
	PositionGoalkeeper Position = "Goalkeeper"
	PositionDefender   Position = "Defender"
	PositionMidfielder Position = "Midfielder"
	PositionForward    Position = "Forward"
)

// Player is a member of the canonical fantasy player pool.
type Player struct {
	ID        int64
	FirstName string
	LastName  string
	WebName   string
	TeamName  string
	Position  Position
	// Cost is in tenths of a million, as published by the fantasy game.
	Cost int
}

// FullName is the canonical identity used for matching and in dataset files.
func (p Player) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
