package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
	"github.com/thereayou/study-hub/internal/handlers/dto"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/models"
	"github.com/thereayou/study-hub/internal/services"
	"github.com/thereayou/study-hub/pkg/auth"
)

type AuthHandler struct {
	auth       *services.AuthService
	jwtManager *auth.JWTManager
	blacklist  middleware.TokenBlacklist
	log        *logrus.Logger
}

func NewAuthHandler(authService *services.AuthService, jwtMgr *auth.JWTManager, blacklist middleware.TokenBlacklist, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, jwtManager: jwtMgr, blacklist: blacklist, log: log}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login выдаёт JWT и кладёт его в cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := issueSession(c, h.jwtManager, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout ставит токен в черный список в Redis до истечения
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken := middleware.TokenFrom(c)

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		respondError(c, h.log, apperror.Auth("invalid token"))
		return
	}

	if err := h.blacklist.Revoke(c.Request.Context(), rawToken, time.Until(exp)); err != nil {
		respondError(c, h.log, apperror.Transient("revoke token", err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func issueSession(c *gin.Context, jwtMgr *auth.JWTManager, user *models.PublicUser) (*dto.TokenResponse, error) {
	token, err := jwtMgr.Generate(user.ID, user.Nickname)
	if err != nil {
		return nil, apperror.Transient("generate token", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(jwtMgr.Duration().Seconds()), "/", "", false, true)

	return &dto.TokenResponse{
		Token:          token,
		TokenExpiresAt: time.Now().Add(jwtMgr.Duration()).UTC(),
		User:           user,
	}, nil
}
