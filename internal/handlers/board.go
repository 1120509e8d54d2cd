package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/handlers/dto"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/services"
)

type BoardHandler struct {
	board *services.BoardService
	log   *logrus.Logger
}

func NewBoardHandler(board *services.BoardService, log *logrus.Logger) *BoardHandler {
	return &BoardHandler{board: board, log: log}
}

func boardPath(studyID uint) string {
	return fmt.Sprintf("/studies/%d/board", studyID)
}

func postPath(studyID, postID uint) string {
	return fmt.Sprintf("/studies/%d/board/%d", studyID, postID)
}

func (h *BoardHandler) ids(c *gin.Context, withPost bool) (studyID, postID uint, err error) {
	if studyID, err = paramID(c, "id", "study"); err != nil {
		return 0, 0, err
	}
	if withPost {
		if postID, err = paramID(c, "postId", "post"); err != nil {
			return 0, 0, err
		}
	}
	return studyID, postID, nil
}

func (h *BoardHandler) ListPosts(c *gin.Context) {
	studyID, _, err := h.ids(c, false)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	posts, err := h.board.ListPosts(c.Request.Context(), studyID, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *BoardHandler) CreatePost(c *gin.Context) {
	studyID, _, err := h.ids(c, false)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req dto.PostRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	post, err := h.board.CreatePost(c.Request.Context(), studyID, middleware.IdentityFrom(c), services.PostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, postPath(studyID, post.ID))
}

func (h *BoardHandler) GetPost(c *gin.Context) {
	studyID, postID, err := h.ids(c, true)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	detail, err := h.board.GetPost(c.Request.Context(), studyID, postID, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *BoardHandler) DeletePost(c *gin.Context) {
	studyID, postID, err := h.ids(c, true)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.board.DeletePost(c.Request.Context(), studyID, postID, middleware.IdentityFrom(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, boardPath(studyID))
}

func (h *BoardHandler) CreateComment(c *gin.Context) {
	studyID, postID, err := h.ids(c, true)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req dto.CommentRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	in := services.CommentInput{Content: req.Content}
	if _, err := h.board.CreateComment(c.Request.Context(), studyID, postID, middleware.IdentityFrom(c), in); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, postPath(studyID, postID))
}

func (h *BoardHandler) DeleteComment(c *gin.Context) {
	studyID, postID, err := h.ids(c, true)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	commentID, err := paramID(c, "commentId", "comment")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.board.DeleteComment(c.Request.Context(), studyID, postID, commentID, middleware.IdentityFrom(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusSeeOther, postPath(studyID, postID))
}
