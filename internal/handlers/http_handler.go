// internal/handlers/http_handler.go

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/dimitrisavellas/trivia-game/internal/game"
	ws "github.com/dimitrisavellas/trivia-game/internal/websocket"
)

type HTTPHandler struct {
	registry *game.Registry
	hub      *ws.Hub
}

func NewHTTPHandler(registry *game.Registry, hub *ws.Hub) *HTTPHandler {
	return &HTTPHandler{
		registry: registry,
		hub:      hub,
	}
}

type RoomResponse struct {
	Code         string   `json:"code"`
	Phase        string   `json:"phase"`
	Teams        int      `json:"teams"`
	Connections  int      `json:"connections"`
	MaxTeams     int      `json:"max_teams"`
	Rounds       int      `json:"rounds"`
	Difficulties []string `json:"difficulties"`
}

// CreateRoom allocates a fresh room code. The body may override max teams,
// rounds and the difficulty filter; an empty body keeps server defaults.
func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	var opts game.CreateOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
			return
		}
	}

	session, err := h.registry.CreateRoom(opts)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.roomResponse(session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetRoom validates a room code before the client opens a socket.
func (h *HTTPHandler) GetRoom(c *gin.Context) {
	session, err := h.registry.Get(c.Param("code"))
	if err != nil {
		status := http.StatusNotFound
		if err == game.ErrRoomExpired {
			status = http.StatusGone
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// The session can close between lookup and snapshot; a half-built
	// response would read as an empty lobby.
	resp, err := h.roomResponse(session)
	if err != nil {
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RoomQR renders a PNG QR code of the room's join URL.
func (h *HTTPHandler) RoomQR(c *gin.Context) {
	session, err := h.registry.Get(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Respect TLS and X-Forwarded-Proto when deriving the share URL.
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := fmt.Sprintf("%s://%s/?room=%s", scheme, c.Request.Host, session.Code())

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *HTTPHandler) roomResponse(session *game.Session) (RoomResponse, error) {
	settings := session.Settings()
	state, err := session.Snapshot()
	if err != nil {
		return RoomResponse{}, err
	}
	return RoomResponse{
		Code:         session.Code(),
		Phase:        string(state.Phase),
		Teams:        len(state.Teams),
		Connections:  h.hub.CountInRoom(session.Code()),
		MaxTeams:     settings.MaxTeams,
		Rounds:       settings.Rounds,
		Difficulties: settings.Difficulties,
	}, nil
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	{
		api.POST("/rooms", h.CreateRoom)
		api.GET("/rooms/:code", h.GetRoom)
		api.GET("/rooms/:code/qr", h.RoomQR)
	}
}
