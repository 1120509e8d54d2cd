package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/services"
)

type HTTPMessageHandler struct {
	chat *services.ChatService
	log  *logrus.Logger
}

func NewHTTPMessageHandler(chat *services.ChatService, log *logrus.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{chat: chat, log: log}
}

// GetStudyMessages получает историю сообщений чата группы
func (h *HTTPMessageHandler) GetStudyMessages(c *gin.Context) {
	studyID, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// Параметры пагинации
	limit := services.DefaultRecentLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	messages, err := h.chat.Recent(c.Request.Context(), studyID, middleware.IdentityFrom(c), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
