package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/models"
)

type PostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=10000"`
}

type CommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type PostDetail struct {
	Post     models.PostView      `json:"post"`
	Comments []models.CommentView `json:"comments"`
}

// BoardService owns posts and comments. Every call requires membership.
type BoardService struct {
	db   *database.Database
	gate *Gate
	log  *logrus.Logger
}

func NewBoardService(db *database.Database, gate *Gate, log *logrus.Logger) *BoardService {
	return &BoardService{db: db, gate: gate, log: log}
}

func (s *BoardService) ListPosts(ctx context.Context, studyID uint, viewer *models.Identity) ([]models.PostView, error) {
	if _, err := s.gate.Require(ctx, studyID, viewer, CapParticipate); err != nil {
		return nil, err
	}

	posts, err := s.db.ListPosts(ctx, studyID)
	if err != nil {
		return nil, apperror.Transient("list posts", err)
	}
	return posts, nil
}

func (s *BoardService) CreatePost(ctx context.Context, studyID uint, author *models.Identity, in PostInput) (*models.StudyPost, error) {
	if _, err := s.gate.Require(ctx, studyID, author, CapParticipate); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post := &models.StudyPost{
		StudyID: studyID,
		UserID:  author.UserID,
		Title:   in.Title,
		Content: in.Content,
	}
	if err := s.db.CreatePost(ctx, post); err != nil {
		return nil, apperror.Transient("create post", err)
	}
	return post, nil
}

func (s *BoardService) GetPost(ctx context.Context, studyID, postID uint, viewer *models.Identity) (*PostDetail, error) {
	if _, err := s.gate.Require(ctx, studyID, viewer, CapParticipate); err != nil {
		return nil, err
	}

	post, err := s.db.GetPost(ctx, studyID, postID)
	if err != nil {
		return nil, storeError("get post", "post", err)
	}

	comments, err := s.db.ListComments(ctx, postID)
	if err != nil {
		return nil, apperror.Transient("list comments", err)
	}

	return &PostDetail{Post: *post, Comments: comments}, nil
}

// DeletePost is allowed for the post author and the study owner.
func (s *BoardService) DeletePost(ctx context.Context, studyID, postID uint, requester *models.Identity) error {
	access, err := s.gate.Require(ctx, studyID, requester, CapParticipate)
	if err != nil {
		return err
	}

	post, err := s.db.GetPost(ctx, studyID, postID)
	if err != nil {
		return storeError("get post", "post", err)
	}

	if post.UserID != requester.UserID && !access.IsOwner() {
		return apperror.Forbidden("only the author or the study owner can delete this post")
	}

	if err := s.db.DeletePostCascade(ctx, postID); err != nil {
		return storeError("delete post", "post", err)
	}

	s.log.WithFields(logrus.Fields{"study_id": studyID, "post_id": postID, "user_id": requester.UserID}).Info("post deleted")
	return nil
}

func (s *BoardService) CreateComment(ctx context.Context, studyID, postID uint, author *models.Identity, in CommentInput) (*models.StudyComment, error) {
	if _, err := s.gate.Require(ctx, studyID, author, CapParticipate); err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.db.GetPost(ctx, studyID, postID); err != nil {
		return nil, storeError("get post", "post", err)
	}

	comment := &models.StudyComment{
		StudyID: studyID,
		PostID:  postID,
		UserID:  author.UserID,
		Content: in.Content,
	}
	if err := s.db.CreateComment(ctx, comment); err != nil {
		return nil, apperror.Transient("create comment", err)
	}
	return comment, nil
}

// DeleteComment is allowed for the comment author only.
func (s *BoardService) DeleteComment(ctx context.Context, studyID, postID, commentID uint, requester *models.Identity) error {
	if _, err := s.gate.Require(ctx, studyID, requester, CapParticipate); err != nil {
		return err
	}

	if _, err := s.db.GetPost(ctx, studyID, postID); err != nil {
		return storeError("get post", "post", err)
	}

	comment, err := s.db.GetComment(ctx, postID, commentID)
	if err != nil {
		return storeError("get comment", "comment", err)
	}

	if comment.UserID != requester.UserID {
		return apperror.Forbidden("only the author can delete this comment")
	}

	if err := s.db.DeleteComment(ctx, commentID); err != nil {
		return apperror.Transient("delete comment", err)
	}
	return nil
}
