package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/apperror"
)

// respondError writes the error body for err and aborts the chain.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	appErr := apperror.As(err)

	if appErr.Kind == apperror.KindTransient {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
	}

	body := gin.H{"error": appErr.PublicMessage()}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), body)
}

// paramID parses a numeric path parameter. Anything else cannot name an
// existing row.
func paramID(c *gin.Context, name, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound(resource)
	}
	return uint(id), nil
}

func bind(c *gin.Context, req any) error {
	if err := c.ShouldBind(req); err != nil {
		return apperror.Validation("", "invalid request body")
	}
	return nil
}
