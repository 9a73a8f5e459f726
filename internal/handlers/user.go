package handlers

import (
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts *services.AccountService
}

func NewUserHandler(accounts *services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Profile 用户公开资料
func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.accounts.Profile(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, p)
}

// Me returns the caller with their unread notification count.
func (h *UserHandler) Me(c *gin.Context) {
	me, err := h.accounts.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, me)
}
