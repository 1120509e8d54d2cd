package database

import (
	"context"
	"errors"

	"github.com/thereayou/study-hub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrStudyFull = errors.New("study is full")

func (d *Database) GetMembership(ctx context.Context, studyID, userID uint) (*models.StudyMember, error) {
	var member models.StudyMember
	err := d.db.WithContext(ctx).
		Where("study_id = ? AND user_id = ?", studyID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember inserts the row unless (study, user) already exists.
// It reports whether a row was created.
func (d *Database) AddMember(ctx context.Context, member *models.StudyMember) (bool, error) {
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// JoinWithinCapacity adds a MEMBER row while holding a lock on the study row.
// It returns ErrStudyFull when the roster already has MaxMembers rows.
func (d *Database) JoinWithinCapacity(ctx context.Context, member *models.StudyMember) (bool, error) {
	var created bool
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var study models.Study
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&study, member.StudyID).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.StudyMember{}).Where("study_id = ?", member.StudyID).Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(study.MaxMembers) {
			return ErrStudyFull
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(member)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	return created, err
}

// RemoveMember deletes a MEMBER row. OWNER rows are never matched.
func (d *Database) RemoveMember(ctx context.Context, studyID, userID uint) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("study_id = ? AND user_id = ? AND role = ?", studyID, userID, models.RoleMember).
		Delete(&models.StudyMember{})
	return res.RowsAffected, res.Error
}

func (d *Database) CountMembers(ctx context.Context, studyID uint) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.StudyMember{}).Where("study_id = ?", studyID).Count(&n).Error
	return n, err
}

func (d *Database) CountOwners(ctx context.Context, studyID uint) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).
		Model(&models.StudyMember{}).
		Where("study_id = ? AND role = ?", studyID, models.RoleOwner).
		Count(&n).Error
	return n, err
}

func (d *Database) ListMembers(ctx context.Context, studyID uint) ([]models.MemberView, error) {
	members := make([]models.MemberView, 0)
	err := d.db.WithContext(ctx).
		Table("study_members AS m").
		Select("m.user_id, COALESCE(u.nickname, '') AS nickname, m.role, m.joined_at").
		Joins("LEFT JOIN users u ON u.id = m.user_id").
		Where("m.study_id = ?", studyID).
		Order("CASE WHEN m.role = 'OWNER' THEN 0 ELSE 1 END").
		Order("m.joined_at").
		Order("m.id").
		Scan(&members).Error
	return members, err
}
