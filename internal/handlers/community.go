package handlers

import (
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	content *services.ContentService
}

func NewCommunityHandler(content *services.ContentService) *CommunityHandler {
	return &CommunityHandler{content: content}
}

// List 所有社区
func (h *CommunityHandler) List(c *gin.Context) {
	communities, err := h.content.Communities(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"communities": communities})
}
