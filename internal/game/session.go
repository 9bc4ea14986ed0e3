// internal/game/session.go

package game

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Phase is the session's state-machine state.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseAwaitingGuess Phase = "awaiting_guess"
	PhaseReveal        Phase = "reveal"
	PhaseRoundEnd      Phase = "round_end"
	PhaseGameOver      Phase = "game_over"
)

// Settings are the per-room knobs fixed at creation time.
type Settings struct {
	MaxTeams     int
	Rounds       int // turns per team; total questions = Rounds * team count
	TurnTimeout  time.Duration
	Difficulties []string
}

type round struct {
	question  *Question
	revealed  []bool
	remaining int
}

type action struct {
	fn    func() error
	reply chan error
}

// Session owns the authoritative state for one room. Every mutating action
// goes through the actions channel and is applied by the single run
// goroutine, strictly in arrival order. There are no locks on game state.
type Session struct {
	code        string
	settings    Settings
	questions   QuestionSource
	broadcaster Broadcaster
	log         *logrus.Entry

	actions     chan action
	done        chan struct{}
	closeOnce   sync.Once
	onTerminate func(code string)

	// State below is owned by the run goroutine.
	phase          Phase
	teams          []*Team
	activeIdx      int
	starterIdx     int
	questionNum    int
	totalQuestions int
	round          *round
	turnTimer      *time.Timer
	timerArmed     bool

	// emptySince is read by the registry's eviction sweep from outside the
	// run loop, so it gets its own lock. Zero means at least one team is
	// connected.
	mu         sync.Mutex
	emptySince time.Time
}

// NewSession creates a session in the lobby phase and starts its run loop.
// onTerminate is invoked (on its own goroutine) when the session dies from
// a collaborator failure, so the registry can drop the code.
func NewSession(code string, settings Settings, questions QuestionSource, broadcaster Broadcaster, onTerminate func(code string)) *Session {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	s := &Session{
		code:        code,
		settings:    settings,
		questions:   questions,
		broadcaster: broadcaster,
		log:         logrus.WithFields(logrus.Fields{"component": "session", "room": code}),
		actions:     make(chan action, 64),
		done:        make(chan struct{}),
		onTerminate: onTerminate,
		phase:       PhaseLobby,
		turnTimer:   timer,
	}
	s.markEmpty()

	go s.run()
	return s
}

// Code returns the room code.
func (s *Session) Code() string {
	return s.code
}

// Settings returns the room's fixed configuration.
func (s *Session) Settings() Settings {
	return s.settings
}

// Close stops the run loop. Pending and future actions fail with ErrRoomClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) run() {
	for {
		select {
		case act := <-s.actions:
			act.reply <- act.fn()
		case <-s.turnTimer.C:
			s.timerArmed = false
			s.skipTurn()
		case <-s.done:
			return
		}
	}
}

// do submits fn to the run loop and waits for its result.
func (s *Session) do(fn func() error) error {
	act := action{fn: fn, reply: make(chan error, 1)}
	select {
	case s.actions <- act:
	case <-s.done:
		return ErrRoomClosed
	}
	select {
	case err := <-act.reply:
		return err
	case <-s.done:
		return ErrRoomClosed
	}
}

// Join adds a team during the lobby phase and returns its record.
func (s *Session) Join(name, color string) (Team, error) {
	var team Team
	err := s.do(func() error {
		t, err := s.applyJoin(name, color)
		if err != nil {
			return err
		}
		team = *t
		return nil
	})
	return team, err
}

// StartGame locks the lobby and begins the first round.
func (s *Session) StartGame() error {
	return s.do(s.applyStart)
}

// Guess commits the active team to a guess, opening the reveal phase.
func (s *Session) Guess(teamID uuid.UUID) error {
	return s.do(func() error { return s.applyGuess(teamID) })
}

// Reveal exposes one answer on behalf of a non-active team, crediting its
// points to the active team.
func (s *Session) Reveal(teamID uuid.UUID, answerIndex int) error {
	return s.do(func() error { return s.applyReveal(teamID, answerIndex) })
}

// AdvanceRound draws the next question or ends the game when the round
// budget is spent.
func (s *Session) AdvanceRound() error {
	return s.do(s.applyAdvance)
}

// Restart rewinds a finished game to round one with the same teams and
// zeroed scores.
func (s *Session) Restart() error {
	return s.do(s.applyRestart)
}

// Disconnect clears a team's connection binding. Phase and score are
// untouched; the team record stays for the session's lifetime.
func (s *Session) Disconnect(teamID uuid.UUID) error {
	return s.do(func() error { return s.applyDisconnect(teamID) })
}

// Reconnect restores a team's connection binding and returns its record.
func (s *Session) Reconnect(teamID uuid.UUID) (Team, error) {
	var team Team
	err := s.do(func() error {
		t, err := s.applyReconnect(teamID)
		if err != nil {
			return err
		}
		team = *t
		return nil
	})
	return team, err
}

// Snapshot returns the full current-state view sent to freshly bound
// connections.
func (s *Session) Snapshot() (RoomState, error) {
	var state RoomState
	err := s.do(func() error {
		state = s.buildState()
		return nil
	})
	return state, err
}

// --- transitions, run only on the loop goroutine ---

func (s *Session) applyJoin(name, color string) (*Team, error) {
	if s.phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if len(s.teams) >= s.settings.MaxTeams {
		return nil, ErrRoomFull
	}
	for _, t := range s.teams {
		if strings.EqualFold(t.Name, name) {
			return nil, ErrDuplicateTeamName
		}
	}

	if color == "" {
		color = defaultPalette[len(s.teams)%len(defaultPalette)]
	}
	team := &Team{
		ID:        uuid.New(),
		Name:      name,
		Color:     color,
		Connected: true,
	}
	s.teams = append(s.teams, team)
	s.markConnected()

	s.log.WithFields(logrus.Fields{"team": team.Name, "total": len(s.teams)}).Info("team joined")
	s.broadcast(EventTeamJoined, TeamJoinedData{Team: *team, TotalTeams: len(s.teams)})
	return team, nil
}

func (s *Session) applyStart() error {
	if s.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(s.teams) < 2 {
		return ErrNotEnoughTeams
	}

	s.totalQuestions = s.settings.Rounds * len(s.teams)
	if err := s.drawQuestion(); err != nil {
		return err
	}
	s.questionNum = 1
	s.starterIdx = 0
	s.activeIdx = 0
	s.phase = PhaseAwaitingGuess
	s.armTurnTimer()

	s.log.WithField("teams", len(s.teams)).Info("game started")
	s.broadcast(EventRoomState, s.buildState())
	return nil
}

func (s *Session) applyGuess(teamID uuid.UUID) error {
	if s.phase != PhaseAwaitingGuess {
		return ErrWrongPhase
	}
	team := s.findTeam(teamID)
	if team == nil {
		return ErrUnknownTeam
	}
	if team.ID != s.teams[s.activeIdx].ID {
		return ErrNotYourTurn
	}

	s.disarmTurnTimer()
	s.phase = PhaseReveal
	s.broadcast(EventGuessCommitted, GuessCommittedData{TeamID: team.ID})
	return nil
}

func (s *Session) applyReveal(teamID uuid.UUID, answerIndex int) error {
	if s.phase != PhaseReveal {
		return ErrWrongPhase
	}
	team := s.findTeam(teamID)
	if team == nil {
		return ErrUnknownTeam
	}
	active := s.teams[s.activeIdx]
	if team.ID == active.ID {
		return ErrSelfReveal
	}
	if answerIndex < 0 || answerIndex >= len(s.round.question.Answers) {
		return ErrInvalidAnswer
	}
	if s.round.revealed[answerIndex] {
		return ErrAlreadyRevealed
	}

	answer := s.round.question.Answers[answerIndex]
	s.round.revealed[answerIndex] = true
	s.round.remaining--
	active.Score += answer.Points

	if s.round.remaining > 0 {
		s.phase = PhaseAwaitingGuess
		s.armTurnTimer()
	} else {
		s.phase = PhaseRoundEnd
	}

	s.log.WithFields(logrus.Fields{
		"answer_index": answerIndex,
		"points":       answer.Points,
		"credited":     active.Name,
	}).Info("answer revealed")

	s.broadcast(EventAnswerRevealed, AnswerRevealedData{
		AnswerIndex:  answerIndex,
		Text:         answer.Text,
		Points:       answer.Points,
		CreditedTeam: active.ID,
		NewScore:     active.Score,
		Phase:        s.phase,
	})
	if s.phase == PhaseRoundEnd {
		s.broadcast(EventRoundEnded, RoundEndedData{QuestionNumber: s.questionNum})
	}
	return nil
}

func (s *Session) applyAdvance() error {
	if s.phase != PhaseRoundEnd {
		return ErrWrongPhase
	}
	if s.questionNum >= s.totalQuestions {
		s.finishGame("")
		return nil
	}

	if err := s.drawQuestion(); err != nil {
		return err
	}
	s.questionNum++
	s.starterIdx = (s.starterIdx + 1) % len(s.teams)
	s.activeIdx = s.starterIdx
	s.phase = PhaseAwaitingGuess
	s.armTurnTimer()

	s.broadcast(EventRoomState, s.buildState())
	return nil
}

func (s *Session) applyRestart() error {
	if s.phase != PhaseGameOver {
		return ErrWrongPhase
	}
	for _, t := range s.teams {
		t.Score = 0
	}
	s.totalQuestions = s.settings.Rounds * len(s.teams)
	if err := s.drawQuestion(); err != nil {
		return err
	}
	s.questionNum = 1
	s.starterIdx = 0
	s.activeIdx = 0
	s.phase = PhaseAwaitingGuess
	s.armTurnTimer()

	s.log.Info("game restarted")
	s.broadcast(EventRoomState, s.buildState())
	return nil
}

func (s *Session) applyDisconnect(teamID uuid.UUID) error {
	team := s.findTeam(teamID)
	if team == nil {
		return ErrUnknownTeam
	}
	if !team.Connected {
		return nil
	}
	team.Connected = false

	connected := 0
	for _, t := range s.teams {
		if t.Connected {
			connected++
		}
	}
	if connected == 0 {
		s.markEmpty()
	}

	s.log.WithField("team", team.Name).Info("team disconnected")
	s.broadcast(EventRoomState, s.buildState())
	return nil
}

func (s *Session) applyReconnect(teamID uuid.UUID) (*Team, error) {
	team := s.findTeam(teamID)
	if team == nil {
		return nil, ErrUnknownTeam
	}
	team.Connected = true
	s.markConnected()

	s.log.WithField("team", team.Name).Info("team reconnected")
	s.broadcast(EventRoomState, s.buildState())
	return team, nil
}

// skipTurn fires when the active team sat on its turn past the timeout.
// The turn rotates without penalty so one absent team cannot stall the room.
func (s *Session) skipTurn() {
	if s.phase != PhaseAwaitingGuess {
		return
	}
	skipped := s.teams[s.activeIdx]
	s.activeIdx = (s.activeIdx + 1) % len(s.teams)
	next := s.teams[s.activeIdx]
	s.armTurnTimer()

	s.log.WithFields(logrus.Fields{"skipped": skipped.Name, "next": next.Name}).Info("turn skipped")
	s.broadcast(EventTurnSkipped, TurnSkippedData{SkippedTeam: skipped.ID, ActiveTeam: next.ID})
}

func (s *Session) drawQuestion() error {
	q, err := s.questions.Draw(s.settings.Difficulties)
	if err != nil {
		s.log.WithError(err).Error("question draw failed, terminating room")
		s.terminate("question bank exhausted")
		return ErrNoQuestions
	}
	s.round = &round{
		question:  q,
		revealed:  make([]bool, len(q.Answers)),
		remaining: len(q.Answers),
	}
	return nil
}

// finishGame ends the game normally. The session stays around in the
// game_over phase so clients can read final scores or restart; idle
// eviction reclaims it eventually.
func (s *Session) finishGame(reason string) {
	s.disarmTurnTimer()
	s.phase = PhaseGameOver
	s.broadcast(EventGameEnded, GameEndedData{FinalScores: s.finalScores(), Reason: reason})
	s.log.Info("game ended")
}

// terminate is finishGame plus teardown, used when a collaborator failure
// makes the room unplayable.
func (s *Session) terminate(reason string) {
	s.finishGame(reason)
	if s.onTerminate != nil {
		go s.onTerminate(s.code)
	}
}

func (s *Session) finalScores() []FinalScore {
	scores := make([]FinalScore, 0, len(s.teams))
	for _, t := range s.teams {
		scores = append(scores, FinalScore{TeamID: t.ID, Name: t.Name, Score: t.Score})
	}
	return scores
}

func (s *Session) findTeam(id uuid.UUID) *Team {
	for _, t := range s.teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Session) buildState() RoomState {
	state := RoomState{
		Code:           s.code,
		Phase:          s.phase,
		Teams:          make([]Team, 0, len(s.teams)),
		QuestionNumber: s.questionNum,
		TotalQuestions: s.totalQuestions,
	}
	for _, t := range s.teams {
		state.Teams = append(state.Teams, *t)
	}
	if s.phase == PhaseAwaitingGuess || s.phase == PhaseReveal {
		id := s.teams[s.activeIdx].ID
		state.ActiveTeam = &id
	}
	if s.round != nil && s.phase != PhaseLobby && s.phase != PhaseGameOver {
		view := &QuestionView{Text: s.round.question.Text}
		for i, a := range s.round.question.Answers {
			av := AnswerView{Index: i, Revealed: s.round.revealed[i]}
			if av.Revealed {
				av.Text = a.Text
				av.Points = a.Points
			}
			view.Answers = append(view.Answers, av)
		}
		state.Question = view
	}
	return state
}

func (s *Session) broadcast(eventType string, data any) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(s.code, eventType, data)
	}
}

func (s *Session) armTurnTimer() {
	if s.settings.TurnTimeout <= 0 {
		return
	}
	s.disarmTurnTimer()
	s.turnTimer.Reset(s.settings.TurnTimeout)
	s.timerArmed = true
}

func (s *Session) disarmTurnTimer() {
	if !s.timerArmed {
		return
	}
	if !s.turnTimer.Stop() {
		select {
		case <-s.turnTimer.C:
		default:
		}
	}
	s.timerArmed = false
}

func (s *Session) markConnected() {
	s.mu.Lock()
	s.emptySince = time.Time{}
	s.mu.Unlock()
}

func (s *Session) markEmpty() {
	s.mu.Lock()
	s.emptySince = time.Now()
	s.mu.Unlock()
}

// idleFor reports how long the session has had zero bound connections.
// Zero means at least one team is still connected.
func (s *Session) idleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emptySince.IsZero() {
		return 0
	}
	return now.Sub(s.emptySince)
}
