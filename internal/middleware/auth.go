package middleware

import (
	"context"
	"net/http"
	"strings"

	"agora/internal/apperr"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user_id"

// SessionUserKey is the cookie-session field holding the signed-in user id.
const SessionUserKey = "user_id"

// Verifier resolves a bearer credential to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (uint, error)
}

var errAuthRequired = apperr.New(apperr.CodeUnauthorized, "authentication required")

// LoadUser resolves the caller from an Authorization bearer token, falling
// back to the cookie session. A presented but invalid token is rejected
// outright; no credential at all leaves the request anonymous.
func LoadUser(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				abortJSON(c, apperr.New(apperr.CodeUnauthorized, "authorization header must be a bearer token"))
				return
			}
			id, err := v.Verify(c.Request.Context(), token)
			if err != nil {
				abortJSON(c, err)
				return
			}
			c.Set(CheckUserKey, id)
			c.Next()
			return
		}

		if id := sessionUserID(c); id != 0 {
			c.Set(CheckUserKey, id)
		}
		c.Next()
	}
}

func sessionUserID(c *gin.Context) uint {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return 0
	}
	switch v := sessions.Default(c).Get(SessionUserKey).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

// AuthRequired rejects anonymous requests.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == 0 {
			abortJSON(c, errAuthRequired)
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the resolved caller, or 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(CheckUserKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func abortJSON(c *gin.Context, err error) {
	status, wire := apperr.HTTP(err)
	if status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"error": wire})
}
