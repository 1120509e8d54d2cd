package database

import (
	"context"

	"github.com/thereayou/study-hub/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreatePost(ctx context.Context, post *models.StudyPost) error {
	return d.db.WithContext(ctx).Create(post).Error
}

// GetPost only matches a post that belongs to the given study.
func (d *Database) GetPost(ctx context.Context, studyID, postID uint) (*models.PostView, error) {
	var view models.PostView
	res := d.db.WithContext(ctx).
		Table("study_posts AS p").
		Select(`p.*, COALESCE(u.nickname, '') AS author_name,
			(SELECT COUNT(*) FROM study_comments c WHERE c.post_id = p.id) AS comment_count`).
		Joins("LEFT JOIN users u ON u.id = p.user_id").
		Where("p.id = ? AND p.study_id = ?", postID, studyID).
		Limit(1).
		Scan(&view)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &view, nil
}

func (d *Database) ListPosts(ctx context.Context, studyID uint) ([]models.PostView, error) {
	posts := make([]models.PostView, 0)
	err := d.db.WithContext(ctx).
		Table("study_posts AS p").
		Select(`p.*, COALESCE(u.nickname, '') AS author_name,
			(SELECT COUNT(*) FROM study_comments c WHERE c.post_id = p.id) AS comment_count`).
		Joins("LEFT JOIN users u ON u.id = p.user_id").
		Where("p.study_id = ?", studyID).
		Order("p.created_at DESC").
		Order("p.id DESC").
		Scan(&posts).Error
	return posts, err
}

// DeletePostCascade removes the post and its comments in one transaction.
func (d *Database) DeletePostCascade(ctx context.Context, postID uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.StudyComment{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.StudyPost{}, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
