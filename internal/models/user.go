package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Nickname     string    `gorm:"size:50;not null" json:"nickname"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is what leaves the credential store.
type PublicUser struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Nickname: u.Nickname}
}

// Identity is the authenticated caller resolved by the session layer.
type Identity struct {
	UserID   uint
	Nickname string
}
