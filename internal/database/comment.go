package database

import (
	"context"

	"github.com/thereayou/study-hub/internal/models"
)

func (d *Database) CreateComment(ctx context.Context, comment *models.StudyComment) error {
	return d.db.WithContext(ctx).Create(comment).Error
}

func (d *Database) GetComment(ctx context.Context, postID, commentID uint) (*models.StudyComment, error) {
	var comment models.StudyComment
	err := d.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns a post's comments oldest first.
func (d *Database) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	comments := make([]models.CommentView, 0)
	err := d.db.WithContext(ctx).
		Table("study_comments AS c").
		Select("c.*, COALESCE(u.nickname, '') AS author_name").
		Joins("LEFT JOIN users u ON u.id = c.user_id").
		Where("c.post_id = ?", postID).
		Order("c.created_at ASC").
		Order("c.id ASC").
		Scan(&comments).Error
	return comments, err
}

func (d *Database) DeleteComment(ctx context.Context, commentID uint) error {
	return d.db.WithContext(ctx).Delete(&models.StudyComment{}, commentID).Error
}
