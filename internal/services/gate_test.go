package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/models"
)

func TestGateRequire(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.study(t, "Book Club")

	cases := []struct {
		name  string
		actor *models.Identity
		cap   Capability
		kind  apperror.Kind
		role  models.Role
	}{
		{"anonymous view", nil, CapView, 0, ""},
		{"anonymous participate", nil, CapParticipate, apperror.KindAuth, ""},
		{"guest view", e.guest, CapView, 0, ""},
		{"guest participate", e.guest, CapParticipate, apperror.KindForbidden, ""},
		{"member participate", e.member, CapParticipate, 0, models.RoleMember},
		{"member manage", e.member, CapManage, apperror.KindForbidden, ""},
		{"owner manage", e.owner, CapManage, 0, models.RoleOwner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			access, err := e.gate.Require(ctx, s.ID, tc.actor, tc.cap)
			if tc.kind != 0 {
				assert.Equal(t, tc.kind, apperror.KindOf(err))
				assert.Nil(t, access)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.role, access.Role)
			assert.Equal(t, s.ID, access.Study.ID)
		})
	}

	_, err := e.gate.Require(ctx, 9999, e.owner, CapView)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestGatePredicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.study(t, "Book Club")

	for _, tc := range []struct {
		who           *models.Identity
		member, owner bool
	}{
		{e.owner, true, true},
		{e.member, true, false},
		{e.guest, false, false},
	} {
		isMember, err := e.gate.IsMember(ctx, s.ID, tc.who.UserID)
		require.NoError(t, err)
		assert.Equal(t, tc.member, isMember, tc.who.Nickname)

		isOwner, err := e.gate.IsOwner(ctx, s.ID, tc.who.UserID)
		require.NoError(t, err)
		assert.Equal(t, tc.owner, isOwner, tc.who.Nickname)
	}
}
