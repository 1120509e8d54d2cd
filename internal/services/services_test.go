package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/database/dbtest"
	"github.com/thereayou/study-hub/internal/logger"
	"github.com/thereayou/study-hub/internal/models"
)

type env struct {
	db      *database.Database
	gate    *Gate
	studies *StudyService
	board   *BoardService

	owner  *models.Identity
	member *models.Identity
	guest  *models.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()

	d := dbtest.New(t)
	gate := NewGate(d)
	log := logger.Discard()

	ident := func(email, nickname string) *models.Identity {
		u := dbtest.CreateUser(t, d, email, nickname)
		return &models.Identity{UserID: u.ID, Nickname: u.Nickname}
	}

	return &env{
		db:      d,
		gate:    gate,
		studies: NewStudyService(d, gate, log),
		board:   NewBoardService(d, gate, log),
		owner:   ident("owner@example.com", "owner"),
		member:  ident("member@example.com", "member"),
		guest:   ident("guest@example.com", "guest"),
	}
}

// study creates a study owned by e.owner with e.member joined.
func (e *env) study(t *testing.T, title string) *models.Study {
	t.Helper()
	ctx := context.Background()

	s, err := e.studies.CreateStudy(ctx, e.owner, StudyInput{Title: title, Description: "Weekly reads", Day: "MON"})
	require.NoError(t, err)
	require.NoError(t, e.studies.JoinStudy(ctx, s.ID, e.member))
	return s
}
