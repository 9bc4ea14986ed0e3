// internal/handlers/game_handler.go

package handlers

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dimitrisavellas/trivia-game/internal/game"
	ws "github.com/dimitrisavellas/trivia-game/internal/websocket"
)

// Inbound actions
const (
	ActionJoin         = "join"
	ActionStartGame    = "start_game"
	ActionGuess        = "guess"
	ActionReveal       = "reveal"
	ActionAdvanceRound = "advance_round"
	ActionRestartGame  = "restart_game"
	ActionReconnect    = "reconnect"
)

var errBadRequest = &game.Error{Code: "bad_request", Message: "malformed message"}

// Envelope is the inbound wire format: {action, team_id, payload}.
type Envelope struct {
	Action  string          `json:"action"`
	TeamID  string          `json:"team_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
}

type RevealPayload struct {
	AnswerIndex *int `json:"answer_index"`
}

type ReconnectPayload struct {
	RoomCode string `json:"room_code"`
	TeamID   string `json:"team_id"`
}

// boundState is the snapshot unicast to a freshly bound connection; "you"
// tells the client which team it is.
type boundState struct {
	game.RoomState
	You uuid.UUID `json:"you"`
}

// GameHandler routes inbound client actions to the owning session and
// returns rejections to the offending connection only.
type GameHandler struct {
	registry *game.Registry
	hub      *ws.Hub
	log      *logrus.Entry
}

func NewGameHandler(registry *game.Registry, hub *ws.Hub) *GameHandler {
	return &GameHandler{
		registry: registry,
		hub:      hub,
		log:      logrus.WithField("component", "game_handler"),
	}
}

// HandleMessage processes one inbound WebSocket message.
func (h *GameHandler) HandleMessage(client *ws.Client, message []byte) error {
	var envelope Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		return h.sendError(client, errBadRequest)
	}

	h.log.WithFields(logrus.Fields{"action": envelope.Action, "client": client.ID}).Debug("action received")

	switch envelope.Action {
	case ActionJoin:
		return h.handleJoin(client, envelope.Payload)
	case ActionReconnect:
		return h.handleReconnect(client, envelope.Payload)
	case ActionStartGame:
		return h.withSession(client, func(s *game.Session) error {
			return s.StartGame()
		})
	case ActionGuess:
		if !h.teamMatches(client, envelope.TeamID) {
			return h.sendError(client, errBadRequest)
		}
		return h.withSession(client, func(s *game.Session) error {
			return s.Guess(client.TeamID)
		})
	case ActionReveal:
		var payload RevealPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil || payload.AnswerIndex == nil {
			return h.sendError(client, errBadRequest)
		}
		return h.withSession(client, func(s *game.Session) error {
			return s.Reveal(client.TeamID, *payload.AnswerIndex)
		})
	case ActionAdvanceRound:
		return h.withSession(client, func(s *game.Session) error {
			return s.AdvanceRound()
		})
	case ActionRestartGame:
		return h.withSession(client, func(s *game.Session) error {
			return s.Restart()
		})
	default:
		return h.sendError(client, &game.Error{Code: "bad_request", Message: "unknown action"})
	}
}

// HandleDisconnect clears the team's connection binding when the socket
// drops. The team record and its score stay.
func (h *GameHandler) HandleDisconnect(client *ws.Client) {
	if !client.Bound() {
		return
	}
	session, err := h.registry.Get(client.RoomCode)
	if err != nil {
		return
	}
	if err := session.Disconnect(client.TeamID); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"client": client.ID, "team": client.TeamName}).Warn("disconnect not recorded")
	}
}

func (h *GameHandler) handleJoin(client *ws.Client, payload json.RawMessage) error {
	var data JoinPayload
	if err := json.Unmarshal(payload, &data); err != nil || data.Name == "" {
		return h.sendError(client, errBadRequest)
	}
	if client.Bound() {
		return h.sendError(client, &game.Error{Code: "bad_request", Message: "connection already bound to a team"})
	}

	session, err := h.registry.Get(data.RoomCode)
	if err != nil {
		return h.sendError(client, err)
	}

	team, err := session.Join(data.Name, data.Color)
	if err != nil {
		return h.sendError(client, err)
	}

	h.bind(client, session, team)
	return h.sendSnapshot(client, session, team.ID)
}

func (h *GameHandler) handleReconnect(client *ws.Client, payload json.RawMessage) error {
	var data ReconnectPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return h.sendError(client, errBadRequest)
	}
	teamID, err := uuid.Parse(data.TeamID)
	if err != nil {
		return h.sendError(client, errBadRequest)
	}
	if client.Bound() {
		return h.sendError(client, &game.Error{Code: "bad_request", Message: "connection already bound to a team"})
	}

	session, err := h.registry.Get(data.RoomCode)
	if err != nil {
		return h.sendError(client, err)
	}

	team, err := session.Reconnect(teamID)
	if err != nil {
		return h.sendError(client, err)
	}

	h.bind(client, session, team)
	return h.sendSnapshot(client, session, team.ID)
}

func (h *GameHandler) bind(client *ws.Client, session *game.Session, team game.Team) {
	client.RoomCode = session.Code()
	client.TeamID = team.ID
	client.TeamName = team.Name
	h.hub.Register <- client
}

// sendSnapshot unicasts the full current state so a fresh or reconnecting
// client is consistent without replaying history.
func (h *GameHandler) sendSnapshot(client *ws.Client, session *game.Session, you uuid.UUID) error {
	state, err := session.Snapshot()
	if err != nil {
		return h.sendError(client, err)
	}
	return h.hub.SendToClient(client, ws.Event{
		Type: game.EventRoomState,
		Data: boundState{RoomState: state, You: you},
	})
}

func (h *GameHandler) withSession(client *ws.Client, fn func(*game.Session) error) error {
	if !client.Bound() {
		return h.sendError(client, &game.Error{Code: "bad_request", Message: "join a room first"})
	}
	session, err := h.registry.Get(client.RoomCode)
	if err != nil {
		return h.sendError(client, err)
	}
	if err := fn(session); err != nil {
		return h.sendError(client, err)
	}
	return nil
}

// teamMatches rejects envelopes claiming a team other than the one this
// connection is bound to.
func (h *GameHandler) teamMatches(client *ws.Client, claimed string) bool {
	return claimed == "" || claimed == client.TeamID.String()
}

func (h *GameHandler) sendError(client *ws.Client, err error) error {
	var gameErr *game.Error
	if !errors.As(err, &gameErr) {
		gameErr = &game.Error{Code: "internal_error", Message: "something went wrong"}
		h.log.WithError(err).Error("unexpected error")
	}
	return h.hub.SendToClient(client, ws.Event{
		Type: game.EventError,
		Data: gameErr,
	})
}
