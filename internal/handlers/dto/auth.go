package dto

import (
	"time"

	"github.com/thereayou/study-hub/internal/models"
	"github.com/thereayou/study-hub/internal/services"
)

type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Nickname string `json:"nickname" form:"nickname"`
}

func (r SignupRequest) ToInput() services.SignupInput {
	return services.SignupInput{Email: r.Email, Password: r.Password, Nickname: r.Nickname}
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type NicknameRequest struct {
	Nickname string `json:"nickname" form:"nickname"`
}

// TokenResponse is returned whenever a new session token is issued.
type TokenResponse struct {
	Token          string             `json:"token"`
	TokenExpiresAt time.Time          `json:"tokenExpiresAt"`
	User           *models.PublicUser `json:"user"`
}
