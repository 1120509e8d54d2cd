package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/database/dbtest"
	"github.com/thereayou/study-hub/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var studyTables = []string{"studies", "study_members", "study_posts", "study_comments", "study_chat_messages"}

func seedStudy(t *testing.T, d *database.Database) (*models.User, *models.User, *models.Study) {
	t.Helper()
	ctx := context.Background()

	owner := dbtest.CreateUser(t, d, "owner@example.com", "owner")
	member := dbtest.CreateUser(t, d, "member@example.com", "member")

	study := &models.Study{Title: "Book Club", Description: "Weekly reads", MaxMembers: 10, CreatorID: owner.ID}
	require.NoError(t, d.CreateStudyWithOwner(ctx, study))

	created, err := d.AddMember(ctx, &models.StudyMember{StudyID: study.ID, UserID: member.ID, Role: models.RoleMember})
	require.NoError(t, err)
	require.True(t, created)

	post := &models.StudyPost{StudyID: study.ID, UserID: member.ID, Title: "Chapter 1", Content: "thoughts"}
	require.NoError(t, d.CreatePost(ctx, post))
	require.NoError(t, d.CreateComment(ctx, &models.StudyComment{StudyID: study.ID, PostID: post.ID, UserID: owner.ID, Content: "agreed"}))
	require.NoError(t, d.SaveChatMessage(ctx, &models.StudyChatMessage{StudyID: study.ID, UserID: member.ID, Message: "hi"}))

	return owner, member, study
}

func TestCreateStudyWithOwner(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()
	owner, _, study := seedStudy(t, d)

	owners, err := d.CountOwners(ctx, study.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owners)

	m, err := d.GetMembership(ctx, study.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, m.Role)
}

func TestGetStudyView(t *testing.T) {
	d := dbtest.New(t)
	_, _, study := seedStudy(t, d)

	view, err := d.GetStudyView(context.Background(), study.ID)
	require.NoError(t, err)

	assert.Equal(t, "Book Club", view.Title)
	assert.Equal(t, "Weekly reads", view.Description)
	assert.Equal(t, "owner", view.CreatorName)
	assert.Equal(t, int64(2), view.MemberCount)

	_, err = d.GetStudyView(context.Background(), study.ID+100)
	assert.True(t, database.IsNotFound(err))
}

func TestAddMemberIsIdempotent(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()
	_, member, study := seedStudy(t, d)

	created, err := d.AddMember(ctx, &models.StudyMember{StudyID: study.ID, UserID: member.ID, Role: models.RoleMember})
	require.NoError(t, err)
	assert.False(t, created)

	n, err := d.CountMembers(ctx, study.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestJoinWithinCapacity(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()

	owner := dbtest.CreateUser(t, d, "owner@example.com", "owner")
	first := dbtest.CreateUser(t, d, "first@example.com", "first")
	second := dbtest.CreateUser(t, d, "second@example.com", "second")

	study := &models.Study{Title: "Pair", MaxMembers: 2, CreatorID: owner.ID}
	require.NoError(t, d.CreateStudyWithOwner(ctx, study))

	created, err := d.JoinWithinCapacity(ctx, &models.StudyMember{StudyID: study.ID, UserID: first.ID, Role: models.RoleMember})
	require.NoError(t, err)
	assert.True(t, created)

	_, err = d.JoinWithinCapacity(ctx, &models.StudyMember{StudyID: study.ID, UserID: second.ID, Role: models.RoleMember})
	assert.ErrorIs(t, err, database.ErrStudyFull)

	_, err = d.JoinWithinCapacity(ctx, &models.StudyMember{StudyID: 9999, UserID: second.ID, Role: models.RoleMember})
	assert.True(t, database.IsNotFound(err))

	assert.Equal(t, int64(2), dbtest.CountByStudy(t, d, "study_members", study.ID))
}

func TestRemoveMemberNeverRemovesOwner(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()
	owner, member, study := seedStudy(t, d)

	removed, err := d.RemoveMember(ctx, study.ID, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = d.RemoveMember(ctx, study.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestListStudiesFilters(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, d, "o@example.com", "owner")

	require.NoError(t, d.CreateStudyWithOwner(ctx, &models.Study{Title: "Go Reading", Day: "mon", MaxMembers: 5, CreatorID: owner.ID}))
	require.NoError(t, d.CreateStudyWithOwner(ctx, &models.Study{Title: "Rust Reading", Day: "tue", MaxMembers: 5, CreatorID: owner.ID}))
	require.NoError(t, d.CreateStudyWithOwner(ctx, &models.Study{Title: "Algorithms", Day: "mon", MaxMembers: 5, CreatorID: owner.ID}))

	all, err := d.ListStudies(ctx, database.StudyFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	reading, err := d.ListStudies(ctx, database.StudyFilter{Keyword: "reading"})
	require.NoError(t, err)
	assert.Len(t, reading, 2)

	monday, err := d.ListStudies(ctx, database.StudyFilter{Keyword: "READING", Day: "mon"})
	require.NoError(t, err)
	require.Len(t, monday, 1)
	assert.Equal(t, "Go Reading", monday[0].Title)
	assert.Equal(t, "owner", monday[0].CreatorName)
}

func TestDeleteStudyCascadeRemovesEverything(t *testing.T) {
	d := dbtest.New(t)
	_, _, study := seedStudy(t, d)
	other := seedOther(t, d)

	require.NoError(t, d.DeleteStudyCascade(context.Background(), study.ID))

	for _, table := range studyTables {
		assert.Zero(t, dbtest.CountByStudy(t, d, table, study.ID), table)
	}
	assert.Equal(t, int64(1), dbtest.CountByStudy(t, d, "studies", other.ID))
}

func seedOther(t *testing.T, d *database.Database) *models.Study {
	t.Helper()
	u := dbtest.CreateUser(t, d, "other@example.com", "other")
	s := &models.Study{Title: "Other", MaxMembers: 3, CreatorID: u.ID}
	require.NoError(t, d.CreateStudyWithOwner(context.Background(), s))
	return s
}

func TestDeleteStudyCascadeMissingStudy(t *testing.T) {
	d := dbtest.New(t)

	err := d.DeleteStudyCascade(context.Background(), 404)
	assert.True(t, database.IsNotFound(err))
}

func TestDeleteStudyCascadeRollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Config())
	require.NoError(t, err)
	d := database.NewDatabase(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "study_comments"`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "study_chat_messages"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = d.DeleteStudyCascade(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStudyWithOwnerRollsBackWhenOwnerInsertFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Config())
	require.NoError(t, err)
	d := database.NewDatabase(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "studies"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "study_members"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = d.CreateStudyWithOwner(context.Background(), &models.Study{Title: "Go", CreatorID: 1})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinWithinCapacityLocksStudyRow(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Config())
	require.NoError(t, err)
	d := database.NewDatabase(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "studies" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "max_members"}).AddRow(7, 2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "study_members"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	created, err := d.JoinWithinCapacity(context.Background(), &models.StudyMember{StudyID: 7, UserID: 3, Role: models.RoleMember})
	assert.ErrorIs(t, err, database.ErrStudyFull)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
