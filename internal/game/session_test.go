package game_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrisavellas/trivia-game/internal/game"
)

// fakeSource cycles through a fixed list of questions, optionally failing
// after a number of draws to simulate bank exhaustion.
type fakeSource struct {
	mu        sync.Mutex
	questions []*game.Question
	draws     int
	failAfter int // 0 means never fail
}

func (f *fakeSource) Draw(difficulties []string) (*game.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && f.draws >= f.failAfter {
		return nil, game.ErrNoQuestions
	}
	q := f.questions[f.draws%len(f.questions)]
	f.draws++
	return q, nil
}

// recorder captures broadcast events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Room string
	Type string
	Data any
}

func (r *recorder) BroadcastEvent(code string, eventType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Room: code, Type: eventType, Data: data})
}

func (r *recorder) ofType(eventType string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func threeAnswerQuestion() *game.Question {
	return &game.Question{
		Text: "Name something you pack for a beach trip",
		Answers: []game.Answer{
			{Text: "Sunscreen", Points: 10},
			{Text: "Towel", Points: 20},
			{Text: "Snacks", Points: 30},
		},
	}
}

func oneAnswerQuestion() *game.Question {
	return &game.Question{
		Text: "Capital of Greece",
		Answers: []game.Answer{
			{Text: "Athens", Points: 50},
		},
	}
}

func newTestSession(t *testing.T, settings game.Settings, src *fakeSource) (*game.Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := game.NewSession("ROOM42", settings, src, rec, nil)
	t.Cleanup(s.Close)
	return s, rec
}

func defaultSettings() game.Settings {
	return game.Settings{MaxTeams: 4, Rounds: 5}
}

func TestJoinLobby(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{threeAnswerQuestion()}}
	s, rec := newTestSession(t, game.Settings{MaxTeams: 2, Rounds: 1}, src)

	teamA, err := s.Join("Team A", "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, teamA.ID)
	assert.NotEmpty(t, teamA.Color, "palette color assigned when none given")
	assert.True(t, teamA.Connected)

	_, err = s.Join("team a", "#ff0000")
	assert.Equal(t, game.ErrDuplicateTeamName, err, "names collide case-insensitively")

	_, err = s.Join("Team B", "#00ff00")
	require.NoError(t, err)

	_, err = s.Join("Team C", "")
	assert.Equal(t, game.ErrRoomFull, err)

	state, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.PhaseLobby, state.Phase)
	assert.Len(t, state.Teams, 2, "rejected team was not added")
	assert.Len(t, rec.ofType(game.EventTeamJoined), 2)
}

func TestStartGameNeedsTwoTeams(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{threeAnswerQuestion()}}
	s, _ := newTestSession(t, defaultSettings(), src)

	assert.Equal(t, game.ErrNotEnoughTeams, s.StartGame())

	_, err := s.Join("Solo", "")
	require.NoError(t, err)
	assert.Equal(t, game.ErrNotEnoughTeams, s.StartGame())
}

func TestGuessAndRevealFlow(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{threeAnswerQuestion()}}
	s, rec := newTestSession(t, defaultSettings(), src)

	teamA, err := s.Join("Team A", "")
	require.NoError(t, err)
	teamB, err := s.Join("Team B", "")
	require.NoError(t, err)

	require.NoError(t, s.StartGame())

	state, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, game.PhaseAwaitingGuess, state.Phase)
	require.NotNil(t, state.ActiveTeam)
	assert.Equal(t, teamA.ID, *state.ActiveTeam, "first team in join order starts")

	// Only the active team may guess.
	err = s.Guess(teamB.ID)
	assert.Equal(t, game.ErrNotYourTurn, err)
	state, _ = s.Snapshot()
	assert.Equal(t, game.PhaseAwaitingGuess, state.Phase, "rejected guess changes nothing")

	require.NoError(t, s.Guess(teamA.ID))
	state, _ = s.Snapshot()
	assert.Equal(t, game.PhaseReveal, state.Phase)

	// The guessing team may not control the board.
	err = s.Reveal(teamA.ID, 1)
	assert.Equal(t, game.ErrSelfReveal, err)
	state, _ = s.Snapshot()
	assert.Equal(t, 0, state.Teams[0].Score)

	// Out-of-range index.
	assert.Equal(t, game.ErrInvalidAnswer, s.Reveal(teamB.ID, 3))
	assert.Equal(t, game.ErrInvalidAnswer, s.Reveal(teamB.ID, -1))

	// Opposing team reveals; points go to the active team.
	require.NoError(t, s.Reveal(teamB.ID, 0))
	state, _ = s.Snapshot()
	assert.Equal(t, 10, state.Teams[0].Score)
	assert.Equal(t, 0, state.Teams[1].Score)
	assert.Equal(t, game.PhaseAwaitingGuess, state.Phase, "answers remain, active team keeps guessing")
	assert.True(t, state.Question.Answers[0].Revealed)
	assert.Equal(t, "Sunscreen", state.Question.Answers[0].Text)
	assert.Empty(t, state.Question.Answers[1].Text, "hidden answers stay masked")

	// Same slot cannot flip back or be revealed twice.
	require.NoError(t, s.Guess(teamA.ID))
	assert.Equal(t, game.ErrAlreadyRevealed, s.Reveal(teamB.ID, 0))

	require.NoError(t, s.Reveal(teamB.ID, 1))
	require.NoError(t, s.Guess(teamA.ID))
	require.NoError(t, s.Reveal(teamB.ID, 2))

	state, _ = s.Snapshot()
	assert.Equal(t, game.PhaseRoundEnd, state.Phase, "all answers revealed ends the round")
	assert.Equal(t, 60, state.Teams[0].Score)
	assert.Nil(t, state.ActiveTeam)

	revealEvents := rec.ofType(game.EventAnswerRevealed)
	require.Len(t, revealEvents, 3)
	first := revealEvents[0].Data.(game.AnswerRevealedData)
	assert.Equal(t, 0, first.AnswerIndex)
	assert.Equal(t, 10, first.Points)
	assert.Equal(t, teamA.ID, first.CreditedTeam)
	assert.Len(t, rec.ofType(game.EventRoundEnded), 1)
}

func TestAdvanceRotatesActiveTeam(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{oneAnswerQuestion()}}
	s, _ := newTestSession(t, game.Settings{MaxTeams: 4, Rounds: 2}, src)

	teamA, _ := s.Join("Team A", "")
	teamB, _ := s.Join("Team B", "")
	require.NoError(t, s.StartGame())

	require.NoError(t, s.Guess(teamA.ID))
	require.NoError(t, s.Reveal(teamB.ID, 0))

	assert.Equal(t, game.ErrWrongPhase, s.Guess(teamA.ID), "no guessing between rounds")

	require.NoError(t, s.AdvanceRound())
	state, _ := s.Snapshot()
	require.Equal(t, game.PhaseAwaitingGuess, state.Phase)
	assert.Equal(t, teamB.ID, *state.ActiveTeam, "round starter rotates")
	assert.Equal(t, 2, state.QuestionNumber)
	assert.Equal(t, 4, state.TotalQuestions)
}

func TestRoundRobinFairnessAndGameEnd(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{oneAnswerQuestion()}}
	rounds := 2
	s, rec := newTestSession(t, game.Settings{MaxTeams: 4, Rounds: rounds}, src)

	teamA, _ := s.Join("Team A", "")
	teamB, _ := s.Join("Team B", "")
	teamC, _ := s.Join("Team C", "")
	teams := []game.Team{teamA, teamB, teamC}

	require.NoError(t, s.StartGame())

	activeCounts := make(map[uuid.UUID]int)
	totalQuestions := rounds * len(teams)

	for q := 0; q < totalQuestions; q++ {
		state, err := s.Snapshot()
		require.NoError(t, err)
		require.Equal(t, game.PhaseAwaitingGuess, state.Phase)
		require.NotNil(t, state.ActiveTeam)
		activeCounts[*state.ActiveTeam]++

		// The active team guesses, any other team clears the board.
		require.NoError(t, s.Guess(*state.ActiveTeam))
		var revealer game.Team
		for _, team := range teams {
			if team.ID != *state.ActiveTeam {
				revealer = team
				break
			}
		}
		require.NoError(t, s.Reveal(revealer.ID, 0))
		require.NoError(t, s.AdvanceRound())
	}

	for _, team := range teams {
		assert.Equal(t, rounds, activeCounts[team.ID], "every team is active once per round cycle")
	}

	state, _ := s.Snapshot()
	assert.Equal(t, game.PhaseGameOver, state.Phase)

	ended := rec.ofType(game.EventGameEnded)
	require.Len(t, ended, 1)
	data := ended[0].Data.(game.GameEndedData)
	assert.Len(t, data.FinalScores, 3)
	assert.Empty(t, data.Reason)
}

func TestTurnTimeoutSkipsWithoutPenalty(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{threeAnswerQuestion()}}
	s, rec := newTestSession(t, game.Settings{MaxTeams: 4, Rounds: 1, TurnTimeout: 30 * time.Millisecond}, src)

	teamA, _ := s.Join("Team A", "")
	teamB, _ := s.Join("Team B", "")
	require.NoError(t, s.StartGame())

	// The active team never guesses; the turn must rotate on its own.
	require.Eventually(t, func() bool {
		return len(rec.ofType(game.EventTurnSkipped)) >= 1
	}, time.Second, 5*time.Millisecond)

	skipped := rec.ofType(game.EventTurnSkipped)[0].Data.(game.TurnSkippedData)
	assert.Equal(t, teamA.ID, skipped.SkippedTeam)
	assert.Equal(t, teamB.ID, skipped.ActiveTeam)

	state, _ := s.Snapshot()
	assert.Equal(t, game.PhaseAwaitingGuess, state.Phase)
	assert.Equal(t, 0, state.Teams[0].Score)
	assert.Equal(t, 0, state.Teams[1].Score)
}

func TestDisconnectKeepsTeamAndScore(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{threeAnswerQuestion()}}
	s, _ := newTestSession(t, defaultSettings(), src)

	teamA, _ := s.Join("Team A", "")
	teamB, _ := s.Join("Team B", "")
	require.NoError(t, s.StartGame())

	require.NoError(t, s.Guess(teamA.ID))
	require.NoError(t, s.Reveal(teamB.ID, 2))

	require.NoError(t, s.Disconnect(teamA.ID))
	state, _ := s.Snapshot()
	assert.Equal(t, game.PhaseAwaitingGuess, state.Phase, "disconnect never changes phase")
	assert.False(t, state.Teams[0].Connected)
	assert.Equal(t, 30, state.Teams[0].Score)

	restored, err := s.Reconnect(teamA.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, restored.Score, "score survives the disconnect")
	assert.True(t, restored.Connected)

	_, err = s.Reconnect(uuid.New())
	assert.Equal(t, game.ErrUnknownTeam, err)
}

func TestQuestionExhaustionEndsGame(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{oneAnswerQuestion()}, failAfter: 1}
	terminated := make(chan string, 1)
	rec := &recorder{}
	s := game.NewSession("DOOMED", game.Settings{MaxTeams: 4, Rounds: 5}, src, rec, func(code string) {
		terminated <- code
	})
	t.Cleanup(s.Close)

	teamA, _ := s.Join("Team A", "")
	teamB, _ := s.Join("Team B", "")
	require.NoError(t, s.StartGame())

	require.NoError(t, s.Guess(teamA.ID))
	require.NoError(t, s.Reveal(teamB.ID, 0))

	err := s.AdvanceRound()
	assert.Equal(t, game.ErrNoQuestions, err)

	ended := rec.ofType(game.EventGameEnded)
	require.Len(t, ended, 1)
	data := ended[0].Data.(game.GameEndedData)
	assert.Equal(t, "question bank exhausted", data.Reason)
	assert.Equal(t, 50, data.FinalScores[0].Score)

	select {
	case code := <-terminated:
		assert.Equal(t, "DOOMED", code)
	case <-time.After(time.Second):
		t.Fatal("session never signalled teardown")
	}
}

func TestRestartKeepsTeamsResetsScores(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{oneAnswerQuestion()}}
	s, _ := newTestSession(t, game.Settings{MaxTeams: 4, Rounds: 1}, src)

	teamA, _ := s.Join("Team A", "")
	teamB, _ := s.Join("Team B", "")
	require.NoError(t, s.StartGame())

	for q := 0; q < 2; q++ {
		state, _ := s.Snapshot()
		require.NoError(t, s.Guess(*state.ActiveTeam))
		revealer := teamB
		if *state.ActiveTeam == teamB.ID {
			revealer = teamA
		}
		require.NoError(t, s.Reveal(revealer.ID, 0))
		require.NoError(t, s.AdvanceRound())
	}

	state, _ := s.Snapshot()
	require.Equal(t, game.PhaseGameOver, state.Phase)
	require.Equal(t, 50, state.Teams[0].Score)

	require.NoError(t, s.Restart())
	state, _ = s.Snapshot()
	assert.Equal(t, game.PhaseAwaitingGuess, state.Phase)
	assert.Len(t, state.Teams, 2, "teams survive a restart")
	assert.Equal(t, 0, state.Teams[0].Score)
	assert.Equal(t, 0, state.Teams[1].Score)
	assert.Equal(t, 1, state.QuestionNumber)
	assert.Equal(t, teamA.ID, *state.ActiveTeam)
}

func TestRestartOnlyAfterGameOver(t *testing.T) {
	src := &fakeSource{questions: []*game.Question{oneAnswerQuestion()}}
	s, _ := newTestSession(t, defaultSettings(), src)

	_, err := s.Join("Team A", "")
	require.NoError(t, err)
	assert.Equal(t, game.ErrWrongPhase, s.Restart())
}
