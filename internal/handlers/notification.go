package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/utils"
	"veryus/internal/websocket"
)

type NotificationHandler struct {
	*Deps
}

func NewNotificationHandler(d *Deps) *NotificationHandler {
	return &NotificationHandler{Deps: d}
}

// List returns the latest 50 notifications of the current user.
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var notifications []models.Notification
	err := h.DB.WithContext(c.Request.Context()).
		Where("recipient_uid = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		respondError(c, utils.Unavailable("list notifications", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var count int64
	err := h.DB.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("recipient_uid = ? AND is_read = ?", user.ID, false).
		Count(&count).Error
	if err != nil {
		respondError(c, utils.Unavailable("count notifications", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	user := middleware.CurrentUser(c)

	res := h.DB.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("id = ? AND recipient_uid = ?", c.Param("id"), user.ID).
		Update("is_read", true)
	if res.Error != nil {
		respondError(c, utils.Unavailable("mark notification", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, utils.NotFound("notification not found"))
		return
	}
	h.publish(websocket.UserTopic(user.ID))
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := middleware.CurrentUser(c)

	res := h.DB.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("recipient_uid = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		respondError(c, utils.Unavailable("mark notifications", res.Error))
		return
	}
	h.publish(websocket.UserTopic(user.ID))
	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	res := h.DB.WithContext(c.Request.Context()).
		Where("id = ? AND recipient_uid = ?", c.Param("id"), user.ID).
		Delete(&models.Notification{})
	if res.Error != nil {
		respondError(c, utils.Unavailable("delete notification", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, utils.NotFound("notification not found"))
		return
	}
	h.publish(websocket.UserTopic(user.ID))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
