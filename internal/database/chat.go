package database

import (
	"context"

	"github.com/thereayou/study-hub/internal/models"
)

func (d *Database) SaveChatMessage(ctx context.Context, message *models.StudyChatMessage) error {
	return d.db.WithContext(ctx).Create(message).Error
}

// RecentChatMessages returns the newest limit messages of a study, oldest first.
func (d *Database) RecentChatMessages(ctx context.Context, studyID uint, limit int) ([]models.ChatMessageView, error) {
	messages := make([]models.ChatMessageView, 0, limit)

	err := d.db.WithContext(ctx).
		Table("study_chat_messages AS cm").
		Select("cm.*, COALESCE(u.nickname, '') AS nickname").
		Joins("LEFT JOIN users u ON u.id = cm.user_id").
		Where("cm.study_id = ?", studyID).
		Order("cm.created_at DESC").
		Order("cm.id DESC").
		Limit(limit).
		Scan(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
