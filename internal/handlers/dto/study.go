package dto

import (
	"github.com/thereayou/study-hub/internal/models"
	"github.com/thereayou/study-hub/internal/services"
)

// StudyRequest accepts both JSON bodies and HTML form posts.
type StudyRequest struct {
	Title        string `json:"title" form:"title"`
	Description  string `json:"description" form:"description"`
	MaxMembers   int    `json:"maxMembers" form:"maxMembers"`
	Day          string `json:"day" form:"day"`
	BookISBN     string `json:"bookIsbn" form:"bookIsbn"`
	BookTitle    string `json:"bookTitle" form:"bookTitle"`
	BookCoverURL string `json:"bookCoverUrl" form:"bookCoverUrl"`
	BookAuthor   string `json:"bookAuthor" form:"bookAuthor"`
}

func (r StudyRequest) ToInput() services.StudyInput {
	return services.StudyInput{
		Title:        r.Title,
		Description:  r.Description,
		MaxMembers:   r.MaxMembers,
		Day:          r.Day,
		BookISBN:     r.BookISBN,
		BookTitle:    r.BookTitle,
		BookCoverURL: r.BookCoverURL,
		BookAuthor:   r.BookAuthor,
	}
}

type PostRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

type CommentRequest struct {
	Content string `json:"content" form:"content"`
}

// StudyDetail is the study page payload with the viewer's standing.
type StudyDetail struct {
	*models.StudyView
	IsMember bool `json:"isMember"`
	IsOwner  bool `json:"isOwner"`
	// OnlineCount is the number of distinct users connected to the chat room.
	OnlineCount int `json:"onlineCount"`
}
