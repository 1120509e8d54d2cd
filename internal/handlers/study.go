package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/handlers/dto"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/services"
)

// Rooms reports chat presence and drops connections that lost the right to
// stay in a room.
type Rooms interface {
	RoomUsers(studyID uint) []uint
	Evict(studyID, userID uint) int
	CloseRoom(studyID uint) int
}

type StudyHandler struct {
	studies *services.StudyService
	rooms   Rooms
	log     *logrus.Logger
}

func NewStudyHandler(studies *services.StudyService, rooms Rooms, log *logrus.Logger) *StudyHandler {
	return &StudyHandler{studies: studies, rooms: rooms, log: log}
}

func studyPath(id uint) string {
	return fmt.Sprintf("/studies/%d", id)
}

// ListStudies поиск по ключевому слову и дню недели
func (h *StudyHandler) ListStudies(c *gin.Context) {
	filter := database.StudyFilter{
		Keyword: c.Query("keyword"),
		Day:     c.Query("day"),
	}

	studies, err := h.studies.ListStudies(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"studies": studies})
}

// CreateStudy создает новую группу, создатель становится владельцем
func (h *StudyHandler) CreateStudy(c *gin.Context) {
	var req dto.StudyRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	study, err := h.studies.CreateStudy(c.Request.Context(), middleware.IdentityFrom(c), req.ToInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, studyPath(study.ID))
}

func (h *StudyHandler) GetStudy(c *gin.Context) {
	id, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	study, err := h.studies.GetStudy(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	member, owner, err := h.studies.Viewer(c.Request.Context(), id, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.StudyDetail{
		StudyView:   study,
		IsMember:    member,
		IsOwner:     owner,
		OnlineCount: len(h.rooms.RoomUsers(id)),
	})
}

func (h *StudyHandler) ListMembers(c *gin.Context) {
	id, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	members, err := h.studies.ListMembers(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *StudyHandler) UpdateStudy(c *gin.Context) {
	id, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req dto.StudyRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	if _, err := h.studies.UpdateStudy(c.Request.Context(), id, middleware.IdentityFrom(c), req.ToInput()); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, studyPath(id))
}

// DeleteStudy удаляет группу со всем содержимым и закрывает чат
func (h *StudyHandler) DeleteStudy(c *gin.Context) {
	id, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.studies.DeleteStudy(c.Request.Context(), id, middleware.IdentityFrom(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.rooms.CloseRoom(id)
	c.Redirect(http.StatusSeeOther, "/me/studies")
}

func (h *StudyHandler) JoinStudy(c *gin.Context) {
	id, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.studies.JoinStudy(c.Request.Context(), id, middleware.IdentityFrom(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, studyPath(id))
}

// LeaveStudy also drops the user's open chat connections for the study.
func (h *StudyHandler) LeaveStudy(c *gin.Context) {
	id, err := paramID(c, "id", "study")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ident := middleware.IdentityFrom(c)
	if err := h.studies.LeaveStudy(c.Request.Context(), id, ident); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.rooms.Evict(id, ident.UserID)
	c.Redirect(http.StatusSeeOther, studyPath(id))
}
