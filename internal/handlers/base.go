package handlers

import (
	"errors"
	"io"
	"net/http"

	"agora/internal/apperr"
	"agora/internal/middleware"
	"agora/internal/utils"

	"github.com/gin-gonic/gin"
)

var errBadJSON = apperr.New(apperr.CodeValidation, "request body must be valid JSON")

// Fail writes err as {"error": {...}}. Unexpected errors are recorded on
// the context for the request logger and reported as a bare 500.
func Fail(c *gin.Context, err error) {
	status, wire := apperr.HTTP(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": wire})
}

func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		Fail(c, apperr.Wrap(err, apperr.CodeValidation, errBadJSON.Error()))
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		Fail(c, apperr.WithField(err, name))
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) uint { return middleware.CurrentUserID(c) }
