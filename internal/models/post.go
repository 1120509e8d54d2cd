package models

import "time"

type StudyPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudyID   uint      `gorm:"not null;index" json:"studyId"`
	UserID    uint      `gorm:"not null" json:"userId"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	Study *Study `gorm:"foreignKey:StudyID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (StudyPost) TableName() string {
	return "study_posts"
}

type StudyComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudyID   uint      `gorm:"not null;index" json:"studyId"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	UserID    uint      `gorm:"not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	Post *StudyPost `gorm:"foreignKey:PostID" json:"-"`
	User *User      `gorm:"foreignKey:UserID" json:"-"`
}

func (StudyComment) TableName() string {
	return "study_comments"
}

type PostView struct {
	StudyPost
	AuthorName   string `json:"authorName"`
	CommentCount int64  `json:"commentCount"`
}

type CommentView struct {
	StudyComment
	AuthorName string `json:"authorName"`
}
