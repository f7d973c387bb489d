package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/services"
	"veryus/internal/utils"
	"veryus/internal/websocket"
)

// Themes a member can pick.
var themes = map[string]bool{"light": true, "dark": true, "sunset": true, "ocean": true}

type UserHandler struct {
	*Deps
}

func NewUserHandler(d *Deps) *UserHandler {
	return &UserHandler{Deps: d}
}

// publicProfile is what other members see.
type publicProfile struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Grade     string `json:"grade"`
	GradeName string `json:"gradeName"`
	GradeIcon string `json:"gradeIcon"`
	Role      string `json:"role"`
	Bio       string `json:"bio"`
	Posts     int64  `json:"posts"`
}

func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	name, icon := utils.GradeLabel(user.Grade)
	c.JSON(http.StatusOK, gin.H{"user": user, "gradeName": name, "gradeIcon": icon})
}

func (h *UserHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, notFoundOr(err, "member"))
		return
	}
	var posts int64
	if err := h.DB.WithContext(ctx).Model(&models.Post{}).Where("writer_uid = ?", user.ID).Count(&posts).Error; err != nil {
		respondError(c, utils.Unavailable("count posts", err))
		return
	}
	name, icon := utils.GradeLabel(user.Grade)
	c.JSON(http.StatusOK, publicProfile{
		ID:        user.ID,
		Nickname:  user.Nickname,
		Grade:     user.Grade,
		GradeName: name,
		GradeIcon: icon,
		Role:      user.Role,
		Bio:       user.Bio,
		Posts:     posts,
	})
}

type profileInput struct {
	Nickname string `json:"nickname"`
	Bio      string `json:"bio"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var in profileInput
	if !bindJSON(c, &in) {
		return
	}
	nickname, err := validNickname(in.Nickname)
	if err != nil {
		respondError(c, err)
		return
	}
	bio := strings.TrimSpace(in.Bio)
	if utf8.RuneCountInString(bio) > 200 {
		respondError(c, utils.InvalidInput("bio is longer than 200 characters"))
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(user).Updates(map[string]any{"nickname": nickname, "bio": bio}).Error; err != nil {
		respondError(c, utils.Unavailable("update profile", err))
		return
	}
	user.Nickname, user.Bio = nickname, bio
	c.JSON(http.StatusOK, user)
}

type themeInput struct {
	Theme string `json:"theme"`
}

func (h *UserHandler) Theme(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var in themeInput
	if !bindJSON(c, &in) {
		return
	}
	if !themes[in.Theme] {
		respondError(c, utils.InvalidInput("unknown theme %q", in.Theme))
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(user).Update("theme", in.Theme).Error; err != nil {
		respondError(c, utils.Unavailable("update theme", err))
		return
	}
	user.Theme = in.Theme
	c.JSON(http.StatusOK, gin.H{"theme": user.Theme})
}

// ChangeGrade sets a member's grade or role.
func (h *UserHandler) ChangeGrade(c *gin.Context) {
	var in services.GradeChange
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.Grades.Change(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.publish(websocket.UserTopic(user.ID))
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GradeHistory(c *gin.Context) {
	logs, err := h.Grades.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

// Members lists accounts for the staff console.
func (h *UserHandler) Members(c *gin.Context) {
	page, perPage, offset := utils.Page(c.Query("page"), c.Query("perPage"), 50, 200)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.User{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		q = q.Where("nickname LIKE ?", "%"+s+"%")
	}
	var users []models.User
	if err := q.Order("created_at asc").Limit(perPage).Offset(offset).Find(&users).Error; err != nil {
		respondError(c, utils.Unavailable("list members", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": users, "page": page, "perPage": perPage})
}
