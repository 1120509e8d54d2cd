package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/services"
	ws "github.com/thereayou/study-hub/internal/websocket"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub            *ws.Hub
	chat           *services.ChatService
	messageHandler *MessageHandler
	upgrader       websocket.Upgrader
	log            *logrus.Logger
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, chat *services.ChatService, messageHandler *MessageHandler, log *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		chat:           chat,
		messageHandler: messageHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// HandleWebSocket checks the handshake and membership before upgrading,
// so a rejected connection gets a plain HTTP error.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	rawStudyID := c.Param("id")
	if rawStudyID == "" {
		rawStudyID = c.Query("studyId")
	}

	hs, err := ws.ParseHandshake(rawStudyID, middleware.IdentityFrom(c))
	switch {
	case errors.Is(err, ws.ErrMissingStudy):
		respondError(c, h.log, apperror.Validation("studyId", "study id is required"))
		return
	case errors.Is(err, ws.ErrMissingUser):
		respondError(c, h.log, apperror.Auth("login required"))
		return
	}

	ident := middleware.IdentityFrom(c)
	if err := h.chat.Admit(c.Request.Context(), hs.StudyID, ident); err != nil {
		respondError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, hs)
	if err := h.hub.Join(client); err != nil {
		h.log.WithError(err).WithField("study_id", hs.StudyID).Warn("websocket join failed")
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.messageHandler)
}
