package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/metrics"
	"github.com/thereayou/study-hub/internal/models"
	"github.com/thereayou/study-hub/internal/websocket"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 100
)

// ChatStore is the persistence the chat path needs.
type ChatStore interface {
	SaveChatMessage(ctx context.Context, message *models.StudyChatMessage) error
	RecentChatMessages(ctx context.Context, studyID uint, limit int) ([]models.ChatMessageView, error)
}

// RoomBroadcaster fans an event out to every connection of a study room.
type RoomBroadcaster interface {
	Broadcast(studyID uint, event string, data any) (int, error)
}

// ChatMessage is the payload of an outbound chatMessage event.
type ChatMessage struct {
	ID        uint      `json:"id,omitempty"`
	UserID    uint      `json:"userId"`
	Nickname  string    `json:"nickname"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatService struct {
	store ChatStore
	gate  *Gate
	rooms RoomBroadcaster
	log   *logrus.Logger
}

func NewChatService(store ChatStore, gate *Gate, rooms RoomBroadcaster, log *logrus.Logger) *ChatService {
	return &ChatService{store: store, gate: gate, rooms: rooms, log: log}
}

// Admit checks that actor may bind a connection to the study room.
func (s *ChatService) Admit(ctx context.Context, studyID uint, actor *models.Identity) error {
	_, err := s.gate.Require(ctx, studyID, actor, CapParticipate)
	return err
}

// Send persists the message and broadcasts it to the room, sender included.
// Blank text is dropped without error. A failed write is logged and the
// message is still delivered.
func (s *ChatService) Send(ctx context.Context, studyID uint, sender models.Identity, text string) (*ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ChatMessages.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return nil, nil
	}

	row := &models.StudyChatMessage{
		StudyID:   studyID,
		UserID:    sender.UserID,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}

	outcome := metrics.OutcomeDelivered
	if err := s.store.SaveChatMessage(ctx, row); err != nil {
		outcome = metrics.OutcomePersistFailed
		row.ID = 0
		s.log.WithError(err).WithFields(logrus.Fields{
			"study_id": studyID,
			"user_id":  sender.UserID,
		}).Warn("chat message not persisted, broadcasting anyway")
	}

	msg := &ChatMessage{
		ID:        row.ID,
		UserID:    sender.UserID,
		Nickname:  sender.Nickname,
		Message:   text,
		CreatedAt: row.CreatedAt,
	}

	if _, err := s.rooms.Broadcast(studyID, websocket.EventChatMessage, msg); err != nil {
		return nil, apperror.Transient("broadcast chat message", err)
	}

	metrics.ChatMessages.WithLabelValues(outcome).Inc()
	return msg, nil
}

// Recent returns the latest persisted messages, oldest first.
func (s *ChatService) Recent(ctx context.Context, studyID uint, viewer *models.Identity, limit int) ([]ChatMessage, error) {
	if _, err := s.gate.Require(ctx, studyID, viewer, CapParticipate); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	rows, err := s.store.RecentChatMessages(ctx, studyID, limit)
	if err != nil {
		return nil, apperror.Transient("recent chat messages", err)
	}

	messages := make([]ChatMessage, len(rows))
	for i, r := range rows {
		messages[i] = ChatMessage{
			ID:        r.ID,
			UserID:    r.UserID,
			Nickname:  r.Nickname,
			Message:   r.Message,
			CreatedAt: r.CreatedAt,
		}
	}
	return messages, nil
}
