package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/services"
	"github.com/thereayou/study-hub/internal/websocket"
)

const sendTimeout = 5 * time.Second

// MessageHandler processes chat frames arriving on a joined connection.
type MessageHandler struct {
	chat *services.ChatService
	log  *logrus.Logger
}

func NewMessageHandler(chat *services.ChatService, log *logrus.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, log: log}
}

// HandleMessage runs on the connection's read pump, so one sender's
// messages are stored and broadcast in the order they arrived.
func (h *MessageHandler) HandleMessage(client *websocket.Client, msg *websocket.Inbound) error {
	var text string
	if err := json.Unmarshal(msg.Data, &text); err != nil {
		return websocket.ErrInvalidMessage
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err := h.chat.Send(ctx, client.StudyID, client.Identity(), text)
	return err
}
