package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

// errInvalidCredentials is shared by unknown-email and wrong-password paths.
var errInvalidCredentials = apperror.Auth("invalid email or password")

type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Nickname string `json:"nickname" validate:"required,min=2,max=50"`
}

type nicknameInput struct {
	Nickname string `json:"nickname" validate:"required,min=2,max=50"`
}

type AuthService struct {
	db   *database.Database
	cost int
	log  *logrus.Logger
}

func NewAuthService(db *database.Database, cost int, log *logrus.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &AuthService{db: db, cost: cost, log: log}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.PublicUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Nickname = strings.TrimSpace(in.Nickname)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperror.Validation("password", "password is too long")
		}
		return nil, apperror.Transient("hash password", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Nickname:     in.Nickname,
	}

	if err := s.db.SaveUser(ctx, user); err != nil {
		if database.IsDuplicate(err) {
			return nil, apperror.Conflict("email is already registered")
		}
		return nil, apperror.Transient("create user", err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")

	pub := user.Public()
	return &pub, nil
}

// Authenticate never reveals whether the email exists.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}

	user, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, apperror.Transient("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.PublicUser, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("get user", "user", err)
	}
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) UpdateNickname(ctx context.Context, userID uint, nickname string) (*models.PublicUser, error) {
	in := nicknameInput{Nickname: strings.TrimSpace(nickname)}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.db.UpdateNickname(ctx, userID, in.Nickname); err != nil {
		return nil, storeError("update nickname", "user", err)
	}
	return s.Me(ctx, userID)
}
