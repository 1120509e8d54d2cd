package models

import "time"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

type StudyMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	StudyID  uint      `gorm:"not null;uniqueIndex:idx_study_user" json:"studyId"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_study_user;index" json:"userId"`
	Role     Role      `gorm:"size:10;not null;default:'MEMBER'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`

	Study *Study `gorm:"foreignKey:StudyID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (StudyMember) TableName() string {
	return "study_members"
}

type MemberView struct {
	UserID   uint      `json:"userId"`
	Nickname string    `json:"nickname"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
