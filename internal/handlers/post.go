package handlers

import (
	"html/template"
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
	maxTitleLength   = 100
	maxContentLength = 20000
	postCacheTTL     = time.Minute
)

type PostHandler struct {
	*Deps
}

func NewPostHandler(d *Deps) *PostHandler {
	return &PostHandler{Deps: d}
}

type postInput struct {
	Type           models.BoardType `json:"type"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Deadline       *time.Time       `json:"deadline"`
	AttachmentPath string           `json:"attachmentPath"`
}

// postDetail is the rendered form of a post.
type postDetail struct {
	models.Post
	HTML template.HTML `json:"html"`
}

func (in *postInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || utf8.RuneCountInString(in.Title) > maxTitleLength {
		return utils.InvalidInput("title must be 1-%d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(in.Content) > maxContentLength {
		return utils.InvalidInput("content is too long")
	}
	if in.Deadline != nil && in.Type != models.BoardPartner {
		return utils.InvalidInput("only partner posts have a deadline")
	}
	if in.AttachmentPath != "" && in.Type != models.BoardRecording {
		return utils.InvalidInput("only recordings carry an attachment")
	}
	return nil
}

// List returns one page of a board, newest first.
func (h *PostHandler) List(c *gin.Context) {
	board := models.BoardType(c.DefaultQuery("type", string(models.BoardFree)))
	if !board.Valid() {
		respondError(c, utils.InvalidInput("unknown board %q", board))
		return
	}
	page, perPage, offset := utils.Page(c.Query("page"), c.Query("perPage"), 20, 100)

	q := h.DB.WithContext(c.Request.Context()).Model(&models.Post{}).Where("type = ?", board)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, utils.Unavailable("count posts", err))
		return
	}
	var posts []models.Post
	if err := q.Order("created_at desc").Limit(perPage).Offset(offset).Find(&posts).Error; err != nil {
		respondError(c, utils.Unavailable("list posts", err))
		return
	}

	now := time.Now()
	for i := range posts {
		posts[i].Closed = posts[i].RecruitmentClosed(now)
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":   posts,
		"page":    page,
		"perPage": perPage,
		"total":   total,
	})
}

// Detail returns a rendered post and counts the view.
func (h *PostHandler) Detail(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	res := h.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		respondError(c, utils.Unavailable("count view", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, utils.NotFound("post not found"))
		return
	}

	// The cached copy is never written back per view; the count comes from the row.
	var detail postDetail
	if cached, ok := h.Cache.Get(utils.PostKey(id)).(postDetail); ok {
		detail = cached
		var views int
		err := h.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
			Select("view_count").Scan(&views).Error
		if err != nil {
			respondError(c, utils.Unavailable("load view count", err))
			return
		}
		detail.ViewCount = views
	} else {
		post, err := loadPost(c, h.DB, id)
		if err != nil {
			respondError(c, err)
			return
		}
		detail = postDetail{Post: *post}
		if post.Type == models.BoardRecording {
			detail.HTML = utils.RenderRecording(post.Content)
		} else {
			detail.HTML = utils.RenderMarkdown(post.Content)
		}
		h.Cache.Set(utils.PostKey(id), detail, postCacheTTL)
	}
	detail.Closed = detail.RecruitmentClosed(time.Now())
	c.JSON(http.StatusOK, detail)
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var in postInput
	if !bindJSON(c, &in) {
		return
	}
	if !in.Type.Valid() {
		respondError(c, utils.InvalidInput("unknown board %q", in.Type))
		return
	}
	if err := in.validate(); err != nil {
		respondError(c, err)
		return
	}

	post := models.Post{
		Type:           in.Type,
		Title:          in.Title,
		Content:        in.Content,
		WriterUID:      user.ID,
		WriterNickname: user.Nickname,
		LikedBy:        []string{},
		Deadline:       in.Deadline,
		AttachmentPath: in.AttachmentPath,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		respondError(c, utils.Unavailable("create post", err))
		return
	}
	h.Log.Info().Str("post", post.ID).Str("type", string(post.Type)).Str("user", user.ID).Msg("post created")
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	post, err := loadPost(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !canModerate(viewer, post.WriterUID) {
		respondError(c, utils.Forbidden("only the author can edit this post"))
		return
	}

	var in postInput
	if !bindJSON(c, &in) {
		return
	}
	in.Type = post.Type
	if err := in.validate(); err != nil {
		respondError(c, err)
		return
	}

	updates := map[string]any{
		"title":           in.Title,
		"content":         in.Content,
		"deadline":        in.Deadline,
		"attachment_path": in.AttachmentPath,
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(post).Updates(updates).Error; err != nil {
		respondError(c, utils.Unavailable("update post", err))
		return
	}
	post.Title, post.Content, post.Deadline, post.AttachmentPath = in.Title, in.Content, in.Deadline, in.AttachmentPath
	h.Cache.Delete(utils.PostKey(post.ID))
	h.publish(websocket.PostTopic(post.ID))
	c.JSON(http.StatusOK, post)
}

// Delete removes a post together with its comments.
func (h *PostHandler) Delete(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	post, err := loadPost(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !canModerate(viewer, post.WriterUID) {
		respondError(c, utils.Forbidden("only the author can delete this post"))
		return
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		respondError(c, utils.Unavailable("delete post", err))
		return
	}
	h.Cache.Delete(utils.PostKey(post.ID), utils.ThreadKey(post.ID))
	h.publish(websocket.PostTopic(post.ID))
	h.Log.Info().Str("post", post.ID).Str("user", viewer.UserID).Msg("post deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Like toggles the viewer's like.
func (h *PostHandler) Like(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	var post models.Post
	var liked bool
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", c.Param("id")).Error; err != nil {
			return notFoundOr(err, "post")
		}
		post.LikedBy, liked = toggleLike(post.LikedBy, viewer.UserID)
		post.LikesCount = len(post.LikedBy)
		return tx.Model(&post).Select("liked_by", "likes_count").Updates(&post).Error
	})
	if err != nil {
		respondError(c, services.StoreError(err, "like post"))
		return
	}
	h.Cache.Delete(utils.PostKey(post.ID))
	h.publish(websocket.PostTopic(post.ID))
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likesCount": post.LikesCount})
}

// Close ends recruitment on a partner post before its deadline.
func (h *PostHandler) Close(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	post, err := loadPost(c, h.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if post.Type != models.BoardPartner {
		respondError(c, utils.InvalidInput("only partner posts can be closed"))
		return
	}
	if !canModerate(viewer, post.WriterUID) {
		respondError(c, utils.Forbidden("only the author can close recruitment"))
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(post).Update("closed", true).Error; err != nil {
		respondError(c, utils.Unavailable("close post", err))
		return
	}
	post.Closed = true
	h.Cache.Delete(utils.PostKey(post.ID))
	h.publish(websocket.PostTopic(post.ID))
	c.JSON(http.StatusOK, post)
}
