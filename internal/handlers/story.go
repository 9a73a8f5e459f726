package handlers

import (
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

// StoryHandler serves posts and their comment threads.
type StoryHandler struct {
	content *services.ContentService
}

func NewStoryHandler(content *services.ContentService) *StoryHandler {
	return &StoryHandler{content: content}
}

func (h *StoryHandler) Create(c *gin.Context) {
	var in services.CreatePostInput
	if !bindJSON(c, &in) {
		return
	}
	in.AuthorID = currentUser(c)
	view, err := h.content.CreatePost(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *StoryHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.content.GetPost(c.Request.Context(), id, currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, view)
}

func (h *StoryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), id, currentUser(c)); err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) CreateComment(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.CreateCommentInput
	if !bindJSON(c, &in) {
		return
	}
	in.AuthorID = currentUser(c)
	in.PostID = postID
	view, err := h.content.CreateComment(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *StoryHandler) ListComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	views, err := h.content.ListComments(c.Request.Context(), postID, currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"comments": views})
}

// DeleteComment 删除评论及其全部回复
func (h *StoryHandler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteComment(c.Request.Context(), id, currentUser(c)); err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
