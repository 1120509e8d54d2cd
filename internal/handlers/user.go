package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/handlers/dto"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/services"
	"github.com/thereayou/study-hub/pkg/auth"
)

type UserHandler struct {
	auth       *services.AuthService
	studies    *services.StudyService
	jwtManager *auth.JWTManager
	log        *logrus.Logger
}

func NewUserHandler(authService *services.AuthService, studies *services.StudyService, jwtMgr *auth.JWTManager, log *logrus.Logger) *UserHandler {
	return &UserHandler{auth: authService, studies: studies, jwtManager: jwtMgr, log: log}
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	user, err := h.auth.Me(c.Request.Context(), ident.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe меняет никнейм. Никнейм зашит в токен, поэтому выдаём новый.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	var req dto.NicknameRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.auth.UpdateNickname(c.Request.Context(), ident.UserID, req.Nickname)
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

// MyStudies lists the studies the caller belongs to with their role.
func (h *UserHandler) MyStudies(c *gin.Context) {
	studies, err := h.studies.ListUserStudies(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"studies": studies})
}
