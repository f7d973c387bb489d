package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veryus/internal/models"
	"veryus/internal/utils"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// LoadUser resolves the session cookie to a user and stores it in the context.
// The cookie is only dropped when the account no longer exists; a failing store
// answers 503 and leaves the session alone.
func LoadUser(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(SessionUserKey).(string)

		if userID != "" {
			var user models.User
			err := db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error
			switch {
			case err == nil:
				c.Set(CheckUserKey, &user)
			case errors.Is(err, gorm.ErrRecordNotFound):
				session.Delete(SessionUserKey)
				_ = session.Save()
			default:
				log.Error().Err(err).Str("user", userID).Msg("load session user")
				abort(c, utils.ErrUnavailable, "service temporarily unavailable")
				return
			}
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous requests.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abort(c, utils.ErrUnauthorized, "login required")
			return
		}
		c.Next()
	}
}

// RoleRequired rejects members below min.
func RoleRequired(min string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, utils.ErrUnauthorized, "login required")
			return
		}
		if !utils.RoleAtLeast(user.Role, min) {
			abort(c, utils.ErrForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the logged in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentSession returns the identity handed to business logic, nil when anonymous.
func CurrentSession(c *gin.Context) *models.Session {
	if user := CurrentUser(c); user != nil {
		return user.Session()
	}
	return nil
}

func abort(c *gin.Context, code utils.Code, message string) {
	c.AbortWithStatusJSON(utils.HTTPStatus(code), gin.H{"error": code, "message": message})
}

// Login stores uid in the session cookie.
func Login(c *gin.Context, uid string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(SessionUserKey, uid)
	return session.Save()
}

// Logout clears the session cookie.
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return utils.HTTPStatus(utils.CodeOf(err))
}
