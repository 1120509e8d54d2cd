package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/models"
)

type StudyInput struct {
	Title        string `json:"title" validate:"min=2,max=200"`
	Description  string `json:"description" validate:"max=2000"`
	MaxMembers   int    `json:"maxMembers" validate:"gte=0,lte=100"`
	Day          string `json:"day" validate:"max=20"`
	BookISBN     string `json:"bookIsbn" validate:"max=32"`
	BookTitle    string `json:"bookTitle" validate:"max=255"`
	BookCoverURL string `json:"bookCoverUrl" validate:"omitempty,url,max=512"`
	BookAuthor   string `json:"bookAuthor" validate:"max=255"`
}

func (in *StudyInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Day = strings.TrimSpace(in.Day)
	in.BookCoverURL = strings.TrimSpace(in.BookCoverURL)
	if in.MaxMembers == 0 {
		in.MaxMembers = models.DefaultMaxMembers
	}
}

func (in *StudyInput) apply(study *models.Study) {
	study.Title = in.Title
	study.Description = in.Description
	study.MaxMembers = in.MaxMembers
	study.Day = in.Day
	study.BookISBN = optional(in.BookISBN)
	study.BookTitle = optional(in.BookTitle)
	study.BookCoverURL = optional(in.BookCoverURL)
	study.BookAuthor = optional(in.BookAuthor)
}

type StudyService struct {
	db   *database.Database
	gate *Gate
	log  *logrus.Logger
}

func NewStudyService(db *database.Database, gate *Gate, log *logrus.Logger) *StudyService {
	return &StudyService{db: db, gate: gate, log: log}
}

// CreateStudy stores the study with the creator as its OWNER.
func (s *StudyService) CreateStudy(ctx context.Context, creator *models.Identity, in StudyInput) (*models.Study, error) {
	if creator == nil {
		return nil, apperror.Auth("login required")
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	study := &models.Study{CreatorID: creator.UserID}
	in.apply(study)

	if err := s.db.CreateStudyWithOwner(ctx, study); err != nil {
		return nil, apperror.Transient("create study", err)
	}

	s.log.WithFields(logrus.Fields{"study_id": study.ID, "user_id": creator.UserID}).Info("study created")
	return study, nil
}

func (s *StudyService) UpdateStudy(ctx context.Context, studyID uint, requester *models.Identity, in StudyInput) (*models.Study, error) {
	access, err := s.gate.Require(ctx, studyID, requester, CapManage)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	count, err := s.db.CountMembers(ctx, studyID)
	if err != nil {
		return nil, apperror.Transient("count members", err)
	}
	if int64(in.MaxMembers) < count {
		return nil, apperror.Validation("maxMembers", "maxMembers cannot be lower than the current member count")
	}

	study := access.Study
	in.apply(study)

	if err := s.db.UpdateStudy(ctx, study); err != nil {
		return nil, apperror.Transient("update study", err)
	}
	return study, nil
}

// JoinStudy is idempotent for existing members.
func (s *StudyService) JoinStudy(ctx context.Context, studyID uint, actor *models.Identity) error {
	access, err := s.gate.Require(ctx, studyID, actor, CapView)
	if err != nil {
		return err
	}
	if actor == nil {
		return apperror.Auth("login required")
	}
	if access.Role != "" {
		return nil
	}

	created, err := s.db.JoinWithinCapacity(ctx, &models.StudyMember{
		StudyID: studyID,
		UserID:  actor.UserID,
		Role:    models.RoleMember,
	})
	if errors.Is(err, database.ErrStudyFull) {
		return apperror.Conflict("study is full")
	}
	if err != nil {
		return storeError("join study", "study", err)
	}

	if created {
		s.log.WithFields(logrus.Fields{"study_id": studyID, "user_id": actor.UserID}).Info("member joined")
	}
	return nil
}

// LeaveStudy removes a MEMBER. The OWNER has to delete the study instead.
func (s *StudyService) LeaveStudy(ctx context.Context, studyID uint, actor *models.Identity) error {
	access, err := s.gate.Require(ctx, studyID, actor, CapView)
	if err != nil {
		return err
	}
	if actor == nil {
		return apperror.Auth("login required")
	}

	switch access.Role {
	case "":
		return nil
	case models.RoleOwner:
		return apperror.Forbidden("the owner cannot leave the study; delete it instead")
	}

	if _, err := s.db.RemoveMember(ctx, studyID, actor.UserID); err != nil {
		return apperror.Transient("leave study", err)
	}

	s.log.WithFields(logrus.Fields{"study_id": studyID, "user_id": actor.UserID}).Info("member left")
	return nil
}

func (s *StudyService) DeleteStudy(ctx context.Context, studyID uint, requester *models.Identity) error {
	if _, err := s.gate.Require(ctx, studyID, requester, CapManage); err != nil {
		return err
	}

	if err := s.db.DeleteStudyCascade(ctx, studyID); err != nil {
		return storeError("delete study", "study", err)
	}

	s.log.WithFields(logrus.Fields{"study_id": studyID, "user_id": requester.UserID}).Info("study deleted")
	return nil
}

func (s *StudyService) GetStudy(ctx context.Context, studyID uint) (*models.StudyView, error) {
	view, err := s.db.GetStudyView(ctx, studyID)
	if err != nil {
		return nil, storeError("get study", "study", err)
	}
	return view, nil
}

// Viewer reports the requester's standing in the study. Anonymous viewers are neither.
func (s *StudyService) Viewer(ctx context.Context, studyID uint, viewer *models.Identity) (member, owner bool, err error) {
	if viewer == nil {
		return false, false, nil
	}
	if member, err = s.gate.IsMember(ctx, studyID, viewer.UserID); err != nil || !member {
		return false, false, err
	}
	owner, err = s.gate.IsOwner(ctx, studyID, viewer.UserID)
	return member, owner, err
}

func (s *StudyService) ListStudies(ctx context.Context, filter database.StudyFilter) ([]models.StudyView, error) {
	studies, err := s.db.ListStudies(ctx, filter)
	if err != nil {
		return nil, apperror.Transient("list studies", err)
	}
	return studies, nil
}

func (s *StudyService) ListMembers(ctx context.Context, studyID uint) ([]models.MemberView, error) {
	if _, err := s.gate.Require(ctx, studyID, nil, CapView); err != nil {
		return nil, err
	}

	members, err := s.db.ListMembers(ctx, studyID)
	if err != nil {
		return nil, apperror.Transient("list members", err)
	}
	return members, nil
}

func (s *StudyService) ListUserStudies(ctx context.Context, actor *models.Identity) ([]models.MyStudy, error) {
	if actor == nil {
		return nil, apperror.Auth("login required")
	}

	studies, err := s.db.ListUserStudies(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Transient("list user studies", err)
	}
	return studies, nil
}
