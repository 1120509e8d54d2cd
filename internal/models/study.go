package models

import "time"

const DefaultMaxMembers = 10

type Study struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text;not null;default:''" json:"description"`
	MaxMembers   int       `gorm:"not null;default:10" json:"maxMembers"`
	Day          string    `gorm:"size:20;not null;default:'';index" json:"day"`
	BookISBN     *string   `gorm:"column:book_isbn;size:32" json:"bookIsbn"`
	BookTitle    *string   `gorm:"column:book_title;size:255" json:"bookTitle"`
	BookCoverURL *string   `gorm:"column:book_cover_url;size:512" json:"bookCoverUrl"`
	BookAuthor   *string   `gorm:"column:book_author;size:255" json:"bookAuthor"`
	CreatorID    uint      `gorm:"not null;index" json:"creatorId"`
	CreatedAt    time.Time `json:"createdAt"`

	Creator *User `gorm:"foreignKey:CreatorID" json:"-"`
}

func (Study) TableName() string {
	return "studies"
}

// StudyView is a study joined with its creator nickname and roster size.
type StudyView struct {
	Study
	CreatorName string `json:"creatorName"`
	MemberCount int64  `json:"memberCount"`
}

// MyStudy is a study as listed on the member's own page.
type MyStudy struct {
	Study
	CreatorName string `json:"creatorName"`
	Role        Role   `json:"role"`
}
