package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/study-hub/internal/books"
)

type BookHandler struct {
	books *books.Client
}

func NewBookHandler(client *books.Client) *BookHandler {
	return &BookHandler{books: client}
}

// Search never fails; an unavailable upstream yields an empty list.
func (h *BookHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	result := h.books.Search(c.Request.Context(), c.Query("q"), size)
	c.JSON(http.StatusOK, gin.H{"books": result})
}
