package services

import (
	"context"

	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/models"
)

// Capability is what a caller wants to do with a study.
type Capability int

const (
	// CapView covers public discovery: listing, detail, roster.
	CapView Capability = iota
	// CapParticipate covers board, comments and chat.
	CapParticipate
	// CapManage covers editing and deleting the study itself.
	CapManage
)

// Access is the result of a successful check. Role is empty for non-members.
type Access struct {
	Study *models.Study
	Role  models.Role
}

func (a *Access) IsOwner() bool {
	return a.Role == models.RoleOwner
}

// Gate is the one authorization check every study-scoped operation goes through.
type Gate struct {
	db *database.Database
}

func NewGate(db *database.Database) *Gate {
	return &Gate{db: db}
}

func (g *Gate) Require(ctx context.Context, studyID uint, actor *models.Identity, capability Capability) (*Access, error) {
	study, err := g.db.GetStudy(ctx, studyID)
	if err != nil {
		return nil, storeError("load study", "study", err)
	}

	access := &Access{Study: study}

	if actor == nil {
		if capability == CapView {
			return access, nil
		}
		return nil, apperror.Auth("login required")
	}

	role, err := g.role(ctx, studyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	access.Role = role

	switch capability {
	case CapParticipate:
		if access.Role == "" {
			return nil, apperror.Forbidden("you are not a member of this study")
		}
	case CapManage:
		if !access.IsOwner() {
			return nil, apperror.Forbidden("only the study owner can do this")
		}
	}

	return access, nil
}

func (g *Gate) role(ctx context.Context, studyID, userID uint) (models.Role, error) {
	member, err := g.db.GetMembership(ctx, studyID, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return "", nil
		}
		return "", apperror.Transient("load membership", err)
	}
	return member.Role, nil
}

func (g *Gate) IsMember(ctx context.Context, studyID, userID uint) (bool, error) {
	role, err := g.role(ctx, studyID, userID)
	return role != "", err
}

func (g *Gate) IsOwner(ctx context.Context, studyID, userID uint) (bool, error) {
	role, err := g.role(ctx, studyID, userID)
	return role == models.RoleOwner, err
}
