package handlers

import (
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	accounts *services.AccountService
}

func NewNotificationHandler(accounts *services.AccountService) *NotificationHandler {
	return &NotificationHandler{accounts: accounts}
}

func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.accounts.Inbox(c.Request.Context(), currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"notifications": list})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.MarkRead(c.Request.Context(), currentUser(c), id); err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	n, err := h.accounts.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteNotification(c.Request.Context(), currentUser(c), id); err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
