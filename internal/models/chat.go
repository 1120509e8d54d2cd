package models

import "time"

// StudyChatMessage is append-only.
type StudyChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudyID   uint      `gorm:"not null;index:idx_chat_study_created,priority:1" json:"studyId"`
	UserID    uint      `gorm:"not null" json:"userId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index:idx_chat_study_created,priority:2" json:"createdAt"`

	Study *Study `gorm:"foreignKey:StudyID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (StudyChatMessage) TableName() string {
	return "study_chat_messages"
}

type ChatMessageView struct {
	StudyChatMessage
	Nickname string `json:"nickname"`
}
