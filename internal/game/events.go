// internal/game/events.go

package game

import "github.com/google/uuid"

// Event types broadcast by a session. The error event is never broadcast;
// rejections go back to the offending connection only.
const (
	EventRoomState      = "room_state"
	EventTeamJoined     = "team_joined"
	EventGuessCommitted = "guess_committed"
	EventAnswerRevealed = "answer_revealed"
	EventTurnSkipped    = "turn_skipped"
	EventRoundEnded     = "round_ended"
	EventGameEnded      = "game_ended"
	EventError          = "error"
)

// Broadcaster fans an event out to every connection bound to a room.
// The hub implements it; sessions call it from inside their run loop, so
// implementations must not block on slow consumers.
type Broadcaster interface {
	BroadcastEvent(code string, eventType string, data any)
}

// AnswerView is an answer slot as clients see it. Text and points are
// withheld until the slot is revealed.
type AnswerView struct {
	Index    int    `json:"index"`
	Revealed bool   `json:"revealed"`
	Text     string `json:"text,omitempty"`
	Points   int    `json:"points,omitempty"`
}

// QuestionView is the current question as clients see it.
type QuestionView struct {
	Text    string       `json:"text"`
	Answers []AnswerView `json:"answers"`
}

// RoomState is the full snapshot broadcast on round transitions and sent
// unicast to a freshly bound connection.
type RoomState struct {
	Code           string        `json:"code"`
	Phase          Phase         `json:"phase"`
	Teams          []Team        `json:"teams"`
	ActiveTeam     *uuid.UUID    `json:"active_team,omitempty"`
	QuestionNumber int           `json:"question_number"`
	TotalQuestions int           `json:"total_questions"`
	Question       *QuestionView `json:"question,omitempty"`
}

type TeamJoinedData struct {
	Team       Team `json:"team"`
	TotalTeams int  `json:"total_teams"`
}

type GuessCommittedData struct {
	TeamID uuid.UUID `json:"team_id"`
}

type AnswerRevealedData struct {
	AnswerIndex  int       `json:"answer_index"`
	Text         string    `json:"text"`
	Points       int       `json:"points"`
	CreditedTeam uuid.UUID `json:"credited_team"`
	NewScore     int       `json:"new_score"`
	Phase        Phase     `json:"phase"`
}

type TurnSkippedData struct {
	SkippedTeam uuid.UUID `json:"skipped_team"`
	ActiveTeam  uuid.UUID `json:"active_team"`
}

type RoundEndedData struct {
	QuestionNumber int `json:"question_number"`
}

type FinalScore struct {
	TeamID uuid.UUID `json:"team_id"`
	Name   string    `json:"name"`
	Score  int       `json:"score"`
}

type GameEndedData struct {
	FinalScores []FinalScore `json:"final_scores"`
	Reason      string       `json:"reason,omitempty"`
}
