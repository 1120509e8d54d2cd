package websocket

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thereayou/study-hub/internal/models"
)

// Handshake is what a connection must present before it can join a room.
type Handshake struct {
	StudyID  uint
	UserID   uint
	Nickname string
}

// ParseHandshake builds a handshake from the raw study id and the session identity.
func ParseHandshake(rawStudyID string, identity *models.Identity) (Handshake, error) {
	var hs Handshake

	rawStudyID = strings.TrimSpace(rawStudyID)
	if rawStudyID != "" {
		id, err := strconv.ParseUint(rawStudyID, 10, 64)
		if err != nil {
			return hs, fmt.Errorf("%w: %q", ErrMissingStudy, rawStudyID)
		}
		hs.StudyID = uint(id)
	}

	if identity != nil {
		hs.UserID = identity.UserID
		hs.Nickname = identity.Nickname
	}

	return hs, hs.Validate()
}

func (h Handshake) Validate() error {
	if h.StudyID == 0 {
		return ErrMissingStudy
	}
	if h.UserID == 0 {
		return ErrMissingUser
	}
	return nil
}
