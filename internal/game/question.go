// internal/game/question.go

package game

// Answer is one board slot of a drawn question. Points are fixed when the
// question is drawn; revealing never changes them.
type Answer struct {
	Text   string
	Points int
}

// Question is an immutable question drawn into a round. Answers keep the
// display order the bank stores them in.
type Question struct {
	Text    string
	Answers []Answer
}

// QuestionSource supplies questions for new rounds. Implementations never
// mutate session state. Draw returns ErrNoQuestions when nothing matches
// the difficulty filter; the session treats that as fatal to the room.
type QuestionSource interface {
	Draw(difficulties []string) (*Question, error)
}
