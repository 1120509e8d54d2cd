package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/metrics"
)

const (
	EventChatMessage = "chatMessage"
	EventError       = "error"
)

// Inbound is a frame sent by a client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is a frame delivered to clients. Seq increases by one per
// broadcast within a room.
type Outbound struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// Hub binds connections to study rooms and fans messages out.
// A single mutex guards the room table so broadcasts within a room are
// delivered in the order they acquire it.
type Hub struct {
	mu    sync.Mutex
	rooms map[uint]map[uuid.UUID]*Client
	seq   map[uint]uint64

	unregister chan *Client

	log *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log *logrus.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:      make(map[uint]map[uuid.UUID]*Client),
		seq:        make(map[uint]uint64),
		unregister: make(chan *Client),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes disconnects coming from read pumps until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.unregister:
			h.Leave(client)
		}
	}
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	var clients []*Client
	for studyID, room := range h.rooms {
		for _, client := range room {
			clients = append(clients, client)
		}
		delete(h.rooms, studyID)
	}
	h.updateGaugesLocked()
	h.mu.Unlock()

	for _, client := range clients {
		metrics.ChatConnections.Dec()
		client.disconnect()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		h.Leave(client)
	}
}

// Join binds a connecting client to the room of its study.
func (h *Hub) Join(client *Client) error {
	if err := client.handshake().Validate(); err != nil {
		client.setState(StateRejected)
		return ErrHandshakeRejected
	}

	h.mu.Lock()
	// Stop cancels before it drains the rooms under mu.
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return ErrHubStopped
	}
	if !client.transition(StateConnecting, StateJoined) {
		h.mu.Unlock()
		return ErrClientNotConnecting
	}

	room, ok := h.rooms[client.StudyID]
	if !ok {
		room = make(map[uuid.UUID]*Client)
		h.rooms[client.StudyID] = room
	}
	room[client.ID] = client
	h.updateGaugesLocked()
	h.mu.Unlock()

	metrics.ChatConnections.Inc()
	h.log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"study_id":  client.StudyID,
		"user_id":   client.UserID,
	}).Debug("client joined room")

	return nil
}

// Leave unbinds the client and closes its queue. Safe to call repeatedly.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	removed := h.removeLocked(client)
	h.mu.Unlock()

	if removed {
		metrics.ChatConnections.Dec()
		h.log.WithFields(logrus.Fields{
			"client_id": client.ID,
			"study_id":  client.StudyID,
			"user_id":   client.UserID,
		}).Debug("client left room")
	}

	client.disconnect()
}

func (h *Hub) removeLocked(client *Client) bool {
	room, ok := h.rooms[client.StudyID]
	if !ok {
		return false
	}
	if _, ok := room[client.ID]; !ok {
		return false
	}

	delete(room, client.ID)
	if len(room) == 0 {
		delete(h.rooms, client.StudyID)
	}
	h.updateGaugesLocked()
	return true
}

// Broadcast delivers an event to every client in the room, including the
// sender. It returns the number of clients the frame was queued for.
func (h *Hub) Broadcast(studyID uint, event string, data any) (int, error) {
	if h.ctx.Err() != nil {
		return 0, ErrHubStopped
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq[studyID]++
	frame, err := json.Marshal(Outbound{Event: event, Seq: h.seq[studyID], Data: payload})
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, client := range h.rooms[studyID] {
		select {
		case client.Send <- frame:
			delivered++
		default:
			metrics.ChatMessages.WithLabelValues(metrics.OutcomeDropped).Inc()
			h.log.WithFields(logrus.Fields{
				"client_id": client.ID,
				"study_id":  studyID,
			}).Warn("client send queue full, frame dropped")
		}
	}

	return delivered, nil
}

// sendTo queues frame for a single client. The queue is closed only after the
// client is removed from its room under mu, so membership guards the send.
func (h *Hub) sendTo(client *Client, frame []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.StudyID][client.ID] != client {
		return false
	}

	select {
	case client.Send <- frame:
		return true
	default:
		client.logger().Warn(ErrClientQueueFull.Error())
		return false
	}
}

// Evict disconnects every connection of userID from the study room.
func (h *Hub) Evict(studyID, userID uint) int {
	h.mu.Lock()
	var evicted []*Client
	for _, client := range h.rooms[studyID] {
		if client.UserID == userID {
			evicted = append(evicted, client)
		}
	}
	for _, client := range evicted {
		h.removeLocked(client)
	}
	h.mu.Unlock()

	for _, client := range evicted {
		metrics.ChatConnections.Dec()
		client.disconnect()
	}
	return len(evicted)
}

// CloseRoom disconnects every connection of the study room.
func (h *Hub) CloseRoom(studyID uint) int {
	h.mu.Lock()
	room := h.rooms[studyID]
	delete(h.rooms, studyID)
	delete(h.seq, studyID)
	h.updateGaugesLocked()
	h.mu.Unlock()

	for _, client := range room {
		metrics.ChatConnections.Dec()
		client.disconnect()
	}
	return len(room)
}

// RoomUsers returns the distinct users connected to a room.
func (h *Hub) RoomUsers(studyID uint) []uint {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[uint]bool)
	users := make([]uint, 0)
	for _, client := range h.rooms[studyID] {
		if !seen[client.UserID] {
			seen[client.UserID] = true
			users = append(users, client.UserID)
		}
	}
	return users
}

func (h *Hub) RoomSize(studyID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[studyID])
}

func (h *Hub) updateGaugesLocked() {
	metrics.ChatRooms.Set(float64(len(h.rooms)))
}
