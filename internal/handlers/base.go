package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veryus/internal/config"
	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/services"
	"veryus/internal/utils"
	"veryus/internal/websocket"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	DB            *gorm.DB
	Log           zerolog.Logger
	Config        *config.Config
	Cache         *utils.Cache
	Hub           *websocket.Hub
	Store         services.ObjectStore
	Mail          *services.MailService
	Tokens        *middleware.TokenIssuer
	Notifications *services.NotificationService
	Dispatcher    *services.Dispatcher
	Counters      *services.CounterService
	Grades        *services.GradeService
	Contests      *services.ContestService
	Rooms         *services.RoomService
	Location      *time.Location
	ResetLimiter  *middleware.RateLimiter
}

// publish is a no-op without a hub.
func (d *Deps) publish(topic string) {
	if d.Hub != nil {
		d.Hub.Publish(topic)
	}
}

// respondError writes err as {"error": code, "message": msg}. Unexpected errors are logged
// and hidden from the client.
func respondError(c *gin.Context, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.NewAppError(utils.ErrInternal, "internal server error", err)
	}
	status := utils.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	message := appErr.Message
	if appErr.Code == utils.ErrInternal {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Code, "message": message})
}

// bindJSON decodes the body into obj and answers 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, utils.InvalidInput("invalid request body: %v", err))
		return false
	}
	return true
}

// notFoundOr converts gorm's not-found into a NOT_FOUND error.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound("%s not found", what)
	}
	return utils.Unavailable("load "+what, err)
}

func loadPost(c *gin.Context, db *gorm.DB, id string) (*models.Post, error) {
	var post models.Post
	if err := db.WithContext(c.Request.Context()).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "post")
	}
	return &post, nil
}

func loadComment(c *gin.Context, db *gorm.DB, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := db.WithContext(c.Request.Context()).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "comment")
	}
	return &comment, nil
}

// toggleLike adds or removes uid from likedBy.
func toggleLike(likedBy []string, uid string) ([]string, bool) {
	for i, id := range likedBy {
		if id == uid {
			return append(likedBy[:i:i], likedBy[i+1:]...), false
		}
	}
	return append(likedBy, uid), true
}

// canModerate reports whether viewer may edit or delete content written by ownerUID.
func canModerate(viewer *models.Session, ownerUID string) bool {
	return viewer != nil && (viewer.Is(ownerUID) || utils.IsPrivileged(viewer.Role))
}
