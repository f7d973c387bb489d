package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/utils"
)

type MomentHandler struct {
	*Deps
}

func NewMomentHandler(d *Deps) *MomentHandler {
	return &MomentHandler{Deps: d}
}

type momentInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImagePath   string `json:"imagePath"`
	TakenOn     string `json:"takenOn"`
}

func (h *MomentHandler) List(c *gin.Context) {
	page, perPage, offset := utils.Page(c.Query("page"), c.Query("perPage"), 24, 100)
	var moments []models.SpecialMoment
	err := h.DB.WithContext(c.Request.Context()).
		Order("taken_on desc, created_at desc").
		Limit(perPage).Offset(offset).
		Find(&moments).Error
	if err != nil {
		respondError(c, utils.Unavailable("list moments", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"moments": moments, "page": page, "perPage": perPage})
}

func (h *MomentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var in momentInput
	if !bindJSON(c, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		respondError(c, utils.InvalidInput("title is required"))
		return
	}
	if !strings.HasPrefix(in.ImagePath, "moments/") {
		respondError(c, utils.InvalidInput("upload the image first"))
		return
	}
	if in.TakenOn != "" {
		if _, err := time.Parse("2006-01-02", in.TakenOn); err != nil {
			respondError(c, utils.InvalidInput("takenOn must be YYYY-MM-DD"))
			return
		}
	}

	moment := models.SpecialMoment{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		ImagePath:   in.ImagePath,
		TakenOn:     in.TakenOn,
		CreatedBy:   user.ID,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&moment).Error; err != nil {
		respondError(c, utils.Unavailable("create moment", err))
		return
	}
	c.JSON(http.StatusCreated, moment)
}

// Delete removes the gallery entry and its image.
func (h *MomentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	var moment models.SpecialMoment
	if err := h.DB.WithContext(ctx).First(&moment, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, notFoundOr(err, "moment"))
		return
	}
	if err := h.DB.WithContext(ctx).Delete(&moment).Error; err != nil {
		respondError(c, utils.Unavailable("delete moment", err))
		return
	}
	if err := h.Store.Delete(ctx, moment.ImagePath); err != nil {
		h.Log.Warn().Err(err).Str("path", moment.ImagePath).Msg("moment image not removed")
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
