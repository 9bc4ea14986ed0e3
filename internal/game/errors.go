// internal/game/errors.go

package game

// Error is a rejection produced by the session state machine or the
// registry. Code is stable and goes on the wire; Message is for humans.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUnknownRoom       = &Error{Code: "unknown_room", Message: "room not found"}
	ErrRoomExpired       = &Error{Code: "room_expired", Message: "room has expired"}
	ErrRoomClosed        = &Error{Code: "room_closed", Message: "room is closed"}
	ErrCapacityExceeded  = &Error{Code: "capacity_exceeded", Message: "could not allocate a room code"}
	ErrUnknownTeam       = &Error{Code: "unknown_team", Message: "team not found"}
	ErrDuplicateTeamName = &Error{Code: "duplicate_team_name", Message: "a team with that name already joined"}
	ErrRoomFull          = &Error{Code: "room_full", Message: "room already has the maximum number of teams"}
	ErrNotEnoughTeams    = &Error{Code: "not_enough_teams", Message: "at least two teams are needed to start"}
	ErrWrongPhase        = &Error{Code: "wrong_phase", Message: "action not valid in the current phase"}
	ErrNotYourTurn       = &Error{Code: "not_your_turn", Message: "only the active team may guess"}
	ErrSelfReveal        = &Error{Code: "self_reveal", Message: "the active team may not reveal answers"}
	ErrAlreadyRevealed   = &Error{Code: "already_revealed", Message: "that answer is already revealed"}
	ErrInvalidAnswer     = &Error{Code: "invalid_answer_index", Message: "answer index out of range"}

	// ErrNoQuestions is returned by a QuestionSource when the bank has no
	// question matching the requested difficulties. It is fatal to a session.
	ErrNoQuestions = &Error{Code: "no_questions_available", Message: "no questions available for the configured difficulties"}
)
