package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type NotificationHandler struct {
	Notifications *services.NotificationService
}

func NewNotificationHandler(n *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

// List is GET /api/notifications?unread=true&limit=50
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, unread, err := h.Notifications.List(currentProfile(c).ID, unreadOnly, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "unreadCount": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.Notifications.MarkRead(currentProfile(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.Notifications.MarkAllRead(currentProfile(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.Notifications.Delete(currentProfile(c).ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) ClearRead(c *gin.Context) {
	count, err := h.Notifications.ClearRead(currentProfile(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
