// internal/handlers/websocket_handler.go

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	ws "github.com/dimitrisavellas/trivia-game/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the deployed frontend origin
		return true
	},
}

type WebSocketHandler struct {
	hub         *ws.Hub
	gameHandler *GameHandler
}

func NewWebSocketHandler(hub *ws.Hub, gameHandler *GameHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		gameHandler: gameHandler,
	}
}

// HandleConnection upgrades the request and starts the client pumps. The
// connection stays unbound until a join or reconnect action arrives.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("failed to upgrade connection")
		return
	}

	clientID := uuid.New().String()
	client := ws.NewClient(h.hub, conn, clientID)
	client.SetMessageHandler(h.gameHandler.HandleMessage)
	client.SetCloseHandler(h.gameHandler.HandleDisconnect)

	go client.ReadPump()
	go client.WritePump()

	logrus.WithField("client", clientID).Info("websocket connection established")
}

// RegisterRoutes registers the WebSocket endpoint
func (h *WebSocketHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleConnection)
}
