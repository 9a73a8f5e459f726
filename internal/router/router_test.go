package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agora/internal/config"
	"agora/internal/svc"
	"agora/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	secret = "test-secret"
	issuer = "agora-test"
	alice  = 1 // seeded memory users
	bob    = 2
	carol  = 3
)

type api struct {
	t  *testing.T
	sc *svc.ServiceContext
	h  http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		AppEnv:            "test",
		StoreDriver:       config.DriverMemory,
		SessionSecret:     "session",
		JWTSecretKey:      secret,
		JWTIssuer:         issuer,
		VoteMaxAttempts:   5,
		NotifyDedupWindow: 24 * time.Hour,
		SideEffectTimeout: time.Second,
	}
	sc, err := svc.NewServiceContext(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(sc.Close)
	return &api{t: t, sc: sc, h: New(sc)}
}

func (a *api) do(method, path string, as uint, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != 0 {
		tok, err := utils.SignToken(secret, issuer, as, time.Minute)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	// side effects finish before assertions look at karma or notifications
	a.sc.Runner.Wait()
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errBody struct {
	Error struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func (a *api) createPost(as uint) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/posts", as, map[string]any{"title": "Hello", "body": "**hi**"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID uint `json:"id"`
	}](a.t, w).ID
}

func TestVoteFlowOverHTTP(t *testing.T) {
	a := newAPI(t)
	post := a.createPost(alice)
	path := fmt.Sprintf("/api/vote/post/%d", post)

	w := a.do(http.MethodPost, path, bob, map[string]string{"direction": "upvote"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"score":1,"upvotes":1,"downvotes":0,"userVote":"up"}`, w.Body.String())

	w = a.do(http.MethodPost, path, bob, map[string]string{"direction": "downvote"})
	assert.JSONEq(t, `{"score":-1,"upvotes":0,"downvotes":1,"userVote":"down"}`, w.Body.String())

	w = a.do(http.MethodPost, path, bob, map[string]string{"direction": "down"})
	assert.JSONEq(t, `{"score":0,"upvotes":0,"downvotes":0,"userVote":null}`, w.Body.String())

	me := decode[struct {
		Karma  int   `json:"karma"`
		Unread int64 `json:"unreadNotifications"`
	}](t, a.do(http.MethodGet, "/api/me", alice, nil))
	assert.Equal(t, 0, me.Karma)
	assert.EqualValues(t, 1, me.Unread)
}

func TestVoteErrorsOverHTTP(t *testing.T) {
	a := newAPI(t)
	post := a.createPost(alice)

	w := a.do(http.MethodPost, fmt.Sprintf("/api/vote/post/%d", post), 0, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/vote/post/%d", post), alice, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errBody](t, w).Error.Message, "own content")

	w = a.do(http.MethodPost, fmt.Sprintf("/api/vote/post/%d", post), bob, map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "direction", decode[errBody](t, w).Error.Field)

	w = a.do(http.MethodPost, "/api/vote/post/9999", bob, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/vote/user/1", bob, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/vote/post/abc", bob, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectionUserVoteOverHTTP(t *testing.T) {
	a := newAPI(t)
	post := a.createPost(alice)
	a.do(http.MethodPost, fmt.Sprintf("/api/vote/post/%d", post), bob, map[string]string{"direction": "up"})

	type view struct {
		Score    int     `json:"score"`
		UserVote *string `json:"userVote"`
		BodyHTML string  `json:"bodyHtml"`
	}
	anon := decode[view](t, a.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post), 0, nil))
	assert.Nil(t, anon.UserVote)
	assert.Equal(t, 1, anon.Score)
	assert.Contains(t, anon.BodyHTML, "<strong>hi</strong>")

	asBob := decode[view](t, a.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post), bob, nil))
	require.NotNil(t, asBob.UserVote)
	assert.Equal(t, "up", *asBob.UserVote)
}

func TestCommentThreadOverHTTP(t *testing.T) {
	a := newAPI(t)
	post := a.createPost(alice)

	w := a.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post), bob, map[string]any{"body": "first!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	top := decode[struct {
		ID uint `json:"id"`
	}](t, w).ID

	w = a.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post), carol, map[string]any{"body": "reply", "parentId": top})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, fmt.Sprintf("/api/vote/comment/%d", top), carol, map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[struct {
		Comments []struct {
			ID       uint    `json:"id"`
			UserVote *string `json:"userVote"`
		} `json:"comments"`
	}](t, a.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post), carol, nil))
	require.Len(t, list.Comments, 2)
	require.NotNil(t, list.Comments[0].UserVote)
	assert.Equal(t, "up", *list.Comments[0].UserVote)
	assert.Nil(t, list.Comments[1].UserVote)

	inbox := decode[struct {
		Notifications []struct {
			ID   uint   `json:"id"`
			Kind string `json:"kind"`
		} `json:"notifications"`
	}](t, a.do(http.MethodGet, "/api/notifications", bob, nil))
	require.Len(t, inbox.Notifications, 2)
	assert.Equal(t, "comment_upvote", inbox.Notifications[0].Kind)
	assert.Equal(t, "reply_comment", inbox.Notifications[1].Kind)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", inbox.Notifications[0].ID), bob, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", inbox.Notifications[0].ID), carol, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodPost, "/api/notifications/read-all", bob, nil)
	assert.JSONEq(t, `{"updated":1}`, w.Body.String())
	w = a.do(http.MethodDelete, fmt.Sprintf("/api/notifications/%d", inbox.Notifications[1].ID), bob, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", top), carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", top), bob, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	list2 := decode[struct {
		Comments []json.RawMessage `json:"comments"`
	}](t, a.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post), 0, nil))
	assert.Empty(t, list2.Comments)
}

func TestPublicEndpoints(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/api/communities", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"general"`)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/users/%d", bob), 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)
	assert.NotContains(t, w.Body.String(), "example.com")

	w = a.do(http.MethodGet, "/api/users/999", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeletePostOverHTTP(t *testing.T) {
	a := newAPI(t)
	post := a.createPost(alice)

	w := a.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post), alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post), 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
