package database

import (
	"context"
	"strings"

	"github.com/thereayou/study-hub/internal/models"
	"gorm.io/gorm"
)

type StudyFilter struct {
	Keyword string
	Day     string
}

// CreateStudyWithOwner inserts the study and its OWNER membership atomically.
func (d *Database) CreateStudyWithOwner(ctx context.Context, study *models.Study) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(study).Error; err != nil {
			return err
		}

		owner := &models.StudyMember{
			StudyID: study.ID,
			UserID:  study.CreatorID,
			Role:    models.RoleOwner,
		}
		return tx.Create(owner).Error
	})
}

func (d *Database) GetStudy(ctx context.Context, id uint) (*models.Study, error) {
	var study models.Study
	if err := d.db.WithContext(ctx).First(&study, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &study, nil
}

func (d *Database) studyViews(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).
		Table("studies AS s").
		Select(`s.*, COALESCE(u.nickname, '') AS creator_name,
			(SELECT COUNT(*) FROM study_members m WHERE m.study_id = s.id) AS member_count`).
		Joins("LEFT JOIN users u ON u.id = s.creator_id")
}

func (d *Database) GetStudyView(ctx context.Context, id uint) (*models.StudyView, error) {
	var view models.StudyView
	res := d.studyViews(ctx).Where("s.id = ?", id).Limit(1).Scan(&view)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &view, nil
}

// ListStudies returns newest studies first, optionally filtered.
func (d *Database) ListStudies(ctx context.Context, filter StudyFilter) ([]models.StudyView, error) {
	query := d.studyViews(ctx)

	if kw := strings.ToLower(strings.TrimSpace(filter.Keyword)); kw != "" {
		like := "%" + kw + "%"
		query = query.Where(
			"(LOWER(s.title) LIKE ? OR LOWER(s.description) LIKE ? OR LOWER(COALESCE(s.book_title, '')) LIKE ?)",
			like, like, like,
		)
	}

	if day := strings.TrimSpace(filter.Day); day != "" {
		query = query.Where("s.day = ?", day)
	}

	views := make([]models.StudyView, 0)
	err := query.Order("s.created_at DESC").Order("s.id DESC").Scan(&views).Error
	return views, err
}

func (d *Database) ListUserStudies(ctx context.Context, userID uint) ([]models.MyStudy, error) {
	studies := make([]models.MyStudy, 0)
	err := d.db.WithContext(ctx).
		Table("study_members AS m").
		Select("s.*, COALESCE(u.nickname, '') AS creator_name, m.role AS role").
		Joins("JOIN studies s ON s.id = m.study_id").
		Joins("LEFT JOIN users u ON u.id = s.creator_id").
		Where("m.user_id = ?", userID).
		Order("s.created_at DESC").
		Scan(&studies).Error
	return studies, err
}

func (d *Database) UpdateStudy(ctx context.Context, study *models.Study) error {
	return d.db.WithContext(ctx).
		Model(study).
		Select("title", "description", "max_members", "day", "book_isbn", "book_title", "book_cover_url", "book_author").
		Updates(study).Error
}

// DeleteStudyCascade removes every dependent row and then the study in one
// transaction. Nothing is removed if any statement fails.
func (d *Database) DeleteStudyCascade(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("study_id = ?", id).Delete(&models.StudyComment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("study_id = ?", id).Delete(&models.StudyChatMessage{}).Error; err != nil {
			return err
		}

		if err := tx.Where("study_id = ?", id).Delete(&models.StudyPost{}).Error; err != nil {
			return err
		}

		if err := tx.Where("study_id = ?", id).Delete(&models.StudyMember{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Study{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
