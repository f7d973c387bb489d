package handlers

import (
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
	"veryus/internal/websocket"
)

const (
	maxCommentLength = 3000
	threadCacheTTL   = 30 * time.Second
)

type CommentHandler struct {
	*Deps
}

func NewCommentHandler(d *Deps) *CommentHandler {
	return &CommentHandler{Deps: d}
}

type commentInput struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
	IsSecret bool    `json:"isSecret"`
}

func validComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", utils.InvalidInput("comment is empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", utils.InvalidInput("comment is longer than %d characters", maxCommentLength)
	}
	return content, nil
}

// thread returns the flattened comments of post, rendered but not yet redacted.
func (h *CommentHandler) thread(c *gin.Context, postID string) ([]services.ThreadEntry, error) {
	if cached, ok := h.Cache.Get(utils.ThreadKey(postID)).([]services.ThreadEntry); ok {
		return cached, nil
	}

	var comments []models.Comment
	if err := h.DB.WithContext(c.Request.Context()).Where("post_id = ?", postID).Find(&comments).Error; err != nil {
		return nil, utils.Unavailable("load comments", err)
	}
	result := services.FlattenThread(comments)
	if len(result.Cycles) > 0 {
		h.Log.Error().Str("post", postID).Strs("comments", result.Cycles).Msg("comment parent chain forms a cycle")
	}
	for i := range result.Entries {
		if !result.Entries[i].Deleted {
			result.Entries[i].HTML = utils.RenderComment(result.Entries[i].Content)
		}
	}
	h.Cache.Set(utils.ThreadKey(postID), result.Entries, threadCacheTTL)
	return result.Entries, nil
}

// List returns the display thread of a post as the viewer may see it.
func (h *CommentHandler) List(c *gin.Context) {
	post, err := loadPost(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := h.thread(c, post.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The cached slice is shared between requests.
	view := make([]services.ThreadEntry, len(entries))
	copy(view, entries)
	view = services.RedactHidden(view, middleware.CurrentSession(c), post.WriterUID)

	c.JSON(http.StatusOK, gin.H{"comments": view, "count": len(view)})
}

// Create stores a comment or reply. The counter update, realtime refresh and notification
// follow as separate steps and never undo the stored comment.
func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()
	var in commentInput
	if !bindJSON(c, &in) {
		return
	}
	content, err := validComment(in.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := loadPost(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if post.RecruitmentClosed(time.Now()) {
		respondError(c, utils.DeadlinePassed("recruitment for this post is closed"))
		return
	}

	event := services.CommentEvent{Post: *post}
	comment := models.Comment{
		PostID:         post.ID,
		Content:        content,
		WriterUID:      user.ID,
		WriterNickname: user.Nickname,
		IsSecret:       in.IsSecret,
		LikedBy:        []string{},
	}
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := loadComment(c, h.DB, *in.ParentID)
		if err != nil {
			respondError(c, err)
			return
		}
		if parent.PostID != post.ID {
			respondError(c, utils.InvalidInput("parent comment belongs to another post"))
			return
		}
		comment.ParentID = &parent.ID
		event.ParentAuthorUID = parent.WriterUID
	}

	if err := h.DB.WithContext(ctx).Create(&comment).Error; err != nil {
		respondError(c, utils.Unavailable("create comment", err))
		return
	}

	if err := services.AdjustCommentCount(ctx, h.DB, post.ID, 1); err != nil {
		h.Log.Error().Err(err).Str("post", post.ID).Msg("comment counter increment failed")
	}
	h.Counters.Schedule(post.ID)
	h.Cache.Delete(utils.ThreadKey(post.ID), utils.PostKey(post.ID))
	h.publish(websocket.PostTopic(post.ID))

	event.Comment = comment
	h.Dispatcher.Dispatch(ctx, event)

	c.JSON(http.StatusCreated, comment)
}

// Update edits a live comment. Only its writer may edit it.
func (h *CommentHandler) Update(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	comment, err := loadComment(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if comment.Deleted {
		respondError(c, utils.NotFound("comment not found"))
		return
	}
	if !viewer.Is(comment.WriterUID) {
		respondError(c, utils.Forbidden("only the writer can edit this comment"))
		return
	}

	var in commentInput
	if !bindJSON(c, &in) {
		return
	}
	content, err := validComment(in.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	updates := map[string]any{"content": content, "is_secret": in.IsSecret}
	if err := h.DB.WithContext(c.Request.Context()).Model(comment).Updates(updates).Error; err != nil {
		respondError(c, utils.Unavailable("update comment", err))
		return
	}
	comment.Content, comment.IsSecret = content, in.IsSecret

	h.Cache.Delete(utils.ThreadKey(comment.PostID))
	h.publish(websocket.PostTopic(comment.PostID))
	c.JSON(http.StatusOK, comment)
}

// Delete soft deletes a comment: the record stays so replies keep their place, but its content
// becomes a tombstone and it is no longer secret.
func (h *CommentHandler) Delete(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	ctx := c.Request.Context()
	comment, err := loadComment(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if comment.Deleted {
		respondError(c, utils.NotFound("comment already deleted"))
		return
	}
	post, err := loadPost(c, h.DB, comment.PostID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canModerate(viewer, comment.WriterUID) && !viewer.Is(post.WriterUID) {
		respondError(c, utils.Forbidden("not allowed to delete this comment"))
		return
	}

	updates := map[string]any{
		"content":   models.DeletedCommentContent,
		"is_secret": false,
		"deleted":   true,
	}
	res := h.DB.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND deleted = ?", comment.ID, false).
		Updates(updates)
	if res.Error != nil {
		respondError(c, utils.Unavailable("delete comment", res.Error))
		return
	}
	if res.RowsAffected > 0 {
		if err := services.AdjustCommentCount(ctx, h.DB, post.ID, -1); err != nil {
			h.Log.Error().Err(err).Str("post", post.ID).Msg("comment counter decrement failed")
		}
		h.Counters.Schedule(post.ID)
	}

	h.Cache.Delete(utils.ThreadKey(post.ID), utils.PostKey(post.ID))
	h.publish(websocket.PostTopic(post.ID))
	h.Log.Info().Str("comment", comment.ID).Str("user", viewer.UserID).Msg("comment deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Like toggles the viewer's like on a live comment.
func (h *CommentHandler) Like(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	var comment models.Comment
	var liked bool
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
			return notFoundOr(err, "comment")
		}
		if comment.Deleted {
			return utils.NotFound("comment not found")
		}
		if !services.IsVisible(comment, viewer, "") {
			var post models.Post
			if err := tx.Select("writer_uid").First(&post, "id = ?", comment.PostID).Error; err != nil {
				return notFoundOr(err, "post")
			}
			if !services.IsVisible(comment, viewer, post.WriterUID) {
				return utils.NotFound("comment not found")
			}
		}
		comment.LikedBy, liked = toggleLike(comment.LikedBy, viewer.UserID)
		comment.LikesCount = len(comment.LikedBy)
		return tx.Model(&comment).Select("liked_by", "likes_count").Updates(&comment).Error
	})
	if err != nil {
		respondError(c, services.StoreError(err, "like comment"))
		return
	}
	h.Cache.Delete(utils.ThreadKey(comment.PostID))
	h.publish(websocket.PostTopic(comment.PostID))
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likesCount": comment.LikesCount})
}
