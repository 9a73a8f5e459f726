package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/apperr"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier map[string]uint

func (v staticVerifier) Verify(_ context.Context, token string) (uint, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return 0, apperr.New(apperr.CodeUnauthorized, "bad token")
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("agora", cookie.NewStore([]byte("test"))))
	r.Use(RequestID(), LoadUser(staticVerifier{"good": 7}))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c)})
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, 11)
		if err := s.Save(); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, method, path string, mut func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if mut != nil {
		mut(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerTokenResolvesUser(t *testing.T) {
	r := newEngine()
	w := do(r, http.MethodGet, "/whoami", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestInvalidBearerIsRejected(t *testing.T) {
	r := newEngine()
	w := do(r, http.MethodGet, "/whoami", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/whoami", func(req *http.Request) { req.Header.Set("Authorization", "Basic Zm9v") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnonymousIsAllowedUntilRequired(t *testing.T) {
	r := newEngine()
	w := do(r, http.MethodGet, "/whoami", nil)
	assert.JSONEq(t, `{"id":0}`, w.Body.String())

	w = do(r, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestSessionCookieResolvesUser(t *testing.T) {
	r := newEngine()
	login := do(r, http.MethodGet, "/login/11", nil)
	require.Equal(t, http.StatusOK, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	w := do(r, http.MethodGet, "/whoami", func(req *http.Request) {
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
	})
	assert.JSONEq(t, `{"id":11}`, w.Body.String())
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newEngine()
	const id = "0b9f7d4e-5a43-4c0e-9a39-1e5e0f3d2c11"
	w := do(r, http.MethodGet, "/whoami", func(req *http.Request) { req.Header.Set(RequestIDHeader, id) })
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}
