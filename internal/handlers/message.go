package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/services"
	"veryus/internal/utils"
)

const maxMessageLength = 2000

type MessageHandler struct {
	*Deps
}

func NewMessageHandler(d *Deps) *MessageHandler {
	return &MessageHandler{Deps: d}
}

type messageInput struct {
	ToUID   string `json:"toUid"`
	Content string `json:"content"`
}

// Send delivers a private message and notifies the recipient.
func (h *MessageHandler) Send(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()
	var in messageInput
	if !bindJSON(c, &in) {
		return
	}
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" || utf8.RuneCountInString(in.Content) > maxMessageLength {
		respondError(c, utils.InvalidInput("message must be 1-%d characters", maxMessageLength))
		return
	}
	if in.ToUID == user.ID {
		respondError(c, utils.InvalidInput("cannot message yourself"))
		return
	}

	var recipient models.User
	if err := h.DB.WithContext(ctx).First(&recipient, "id = ?", in.ToUID).Error; err != nil {
		respondError(c, notFoundOr(err, "recipient"))
		return
	}

	msg := models.Message{
		FromUID:      user.ID,
		FromNickname: user.Nickname,
		ToUID:        recipient.ID,
		ToNickname:   recipient.Nickname,
		Content:      in.Content,
	}
	if err := h.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		respondError(c, utils.Unavailable("send message", err))
		return
	}

	go func() {
		if err := h.Notifications.CreateMessageNotification(context.WithoutCancel(ctx), recipient.ID, user.Nickname); err != nil {
			h.Log.Error().Err(err).Str("message", msg.ID).Msg("message notification failed")
		}
	}()
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) list(c *gin.Context, where string, args ...any) {
	page, perPage, offset := utils.Page(c.Query("page"), c.Query("perPage"), 30, 100)
	var messages []models.Message
	err := h.DB.WithContext(c.Request.Context()).
		Where(where, args...).
		Order("created_at desc").
		Limit(perPage).Offset(offset).
		Find(&messages).Error
	if err != nil {
		respondError(c, utils.Unavailable("list messages", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "page": page, "perPage": perPage})
}

func (h *MessageHandler) Inbox(c *gin.Context) {
	user := middleware.CurrentUser(c)
	h.list(c, "to_uid = ? AND deleted_by_receiver = ?", user.ID, false)
}

func (h *MessageHandler) Sent(c *gin.Context) {
	user := middleware.CurrentUser(c)
	h.list(c, "from_uid = ? AND deleted_by_sender = ?", user.ID, false)
}

// Conversation lists the messages exchanged with one member.
func (h *MessageHandler) Conversation(c *gin.Context) {
	user := middleware.CurrentUser(c)
	other := c.Param("uid")
	h.list(c,
		"(from_uid = ? AND to_uid = ? AND deleted_by_sender = ?) OR (from_uid = ? AND to_uid = ? AND deleted_by_receiver = ?)",
		user.ID, other, false, other, user.ID, false)
}

// Read marks a message read. Only the recipient can.
func (h *MessageHandler) Read(c *gin.Context) {
	user := middleware.CurrentUser(c)
	now := time.Now()
	res := h.DB.WithContext(c.Request.Context()).Model(&models.Message{}).
		Where("id = ? AND to_uid = ? AND is_read = ?", c.Param("id"), user.ID, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	if res.Error != nil {
		respondError(c, utils.Unavailable("mark message", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		var msg models.Message
		if err := h.DB.WithContext(c.Request.Context()).First(&msg, "id = ? AND to_uid = ?", c.Param("id"), user.ID).Error; err != nil {
			respondError(c, notFoundOr(err, "message"))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

// Delete hides a message for the current side. The row goes once both sides deleted it.
func (h *MessageHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, "id = ?", c.Param("id")).Error; err != nil {
			return notFoundOr(err, "message")
		}
		switch user.ID {
		case msg.FromUID:
			msg.DeletedBySender = true
		case msg.ToUID:
			msg.DeletedByReceiver = true
		default:
			return utils.NotFound("message not found")
		}
		if msg.DeletedBySender && msg.DeletedByReceiver {
			return tx.Delete(&msg).Error
		}
		return tx.Model(&msg).Select("deleted_by_sender", "deleted_by_receiver").Updates(&msg).Error
	})
	if err != nil {
		respondError(c, services.StoreError(err, "delete message"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
