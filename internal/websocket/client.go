package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/models"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 16 * 1024

	sendQueueSize = 256
)

// State of a connection: Connecting → Joined → Disconnected, or
// Connecting → Rejected.
type State int32

const (
	StateConnecting State = iota
	StateJoined
	StateDisconnected
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type ClientMessageHandler interface {
	HandleMessage(client *Client, msg *Inbound) error
}

type Client struct {
	ID       uuid.UUID
	UserID   uint
	Nickname string
	StudyID  uint
	Conn     *websocket.Conn
	Send     chan []byte

	hub       *Hub
	state     atomic.Int32
	closeOnce sync.Once
}

// NewClient wraps conn. conn may be nil for connections driven without a socket.
func NewClient(hub *Hub, conn *websocket.Conn, hs Handshake) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   hs.UserID,
		Nickname: hs.Nickname,
		StudyID:  hs.StudyID,
		Conn:     conn,
		Send:     make(chan []byte, sendQueueSize),
		hub:      hub,
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Client) transition(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

func (c *Client) Identity() models.Identity {
	return models.Identity{UserID: c.UserID, Nickname: c.Nickname}
}

func (c *Client) handshake() Handshake {
	return Handshake{StudyID: c.StudyID, UserID: c.UserID, Nickname: c.Nickname}
}

// disconnect closes the send queue once; the write pump then closes the socket.
func (c *Client) disconnect() {
	if c.State() != StateRejected {
		c.setState(StateDisconnected)
	}
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *Client) logger() *logrus.Entry {
	return c.hub.log.WithFields(logrus.Fields{
		"client_id": c.ID,
		"study_id":  c.StudyID,
		"user_id":   c.UserID,
	})
}

// ReadPump читает сообщения от клиента
func (c *Client) ReadPump(handler ClientMessageHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().WithError(err).Warn("websocket read error")
			}
			break
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError(ErrInvalidMessage.Error())
			continue
		}

		if msg.Event != EventChatMessage || handler == nil {
			continue
		}

		if err := handler.HandleMessage(c, &msg); err != nil {
			c.logger().WithError(err).Warn("error handling message")
			c.SendError(err.Error())
		}
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendError queues an error frame for this client only. It is a no-op once
// the client has left its room.
func (c *Client) SendError(errorMsg string) {
	data, _ := json.Marshal(map[string]string{"error": errorMsg})
	frame, err := json.Marshal(Outbound{Event: EventError, Data: data})
	if err != nil {
		return
	}
	c.hub.sendTo(c, frame)
}
