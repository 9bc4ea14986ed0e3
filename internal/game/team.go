// internal/game/team.go

package game

import "github.com/google/uuid"

// defaultPalette supplies colors for teams that join without one.
var defaultPalette = []string{"#3498db", "#e74c3c", "#f39c12", "#27ae60"}

// Team is a scoring identity inside one session. The record outlives its
// connection: Connected flips on disconnect/reconnect but the team, and
// its score, stay for the session's lifetime.
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Score     int       `json:"score"`
	Connected bool      `json:"connected"`
}
