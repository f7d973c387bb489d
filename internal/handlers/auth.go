package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/utils"
)

const (
	minPasswordLength = 6
	resetCodeTTL      = 30 * time.Minute

	// A reset code is burned after this many wrong guesses.
	maxResetAttempts = 5
)

type AuthHandler struct {
	*Deps
}

func NewAuthHandler(d *Deps) *AuthHandler {
	return &AuthHandler{Deps: d}
}

type registerInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", utils.InvalidInput("invalid email address")
	}
	return email, nil
}

func validNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 20 {
		return "", utils.InvalidInput("nickname must be 2-20 characters")
	}
	return nickname, nil
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in registerInput
	if !bindJSON(c, &in) {
		return
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	nickname, err := validNickname(in.Nickname)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(in.Password) < minPasswordLength {
		respondError(c, utils.InvalidInput("password must be at least %d characters", minPasswordLength))
		return
	}

	ctx := c.Request.Context()
	var taken int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		respondError(c, utils.Unavailable("check email", err))
		return
	}
	if taken > 0 {
		respondError(c, utils.Conflict("email already registered"))
		return
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	user := models.User{
		Email:    email,
		Password: hash,
		Nickname: nickname,
		Grade:    utils.DefaultGrade,
		Role:     utils.RoleMember,
		Theme:    "light",
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		respondError(c, utils.Unavailable("create account", err))
		return
	}
	if err := middleware.Login(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	h.Log.Info().Str("user", user.ID).Msg("account registered")
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if !bindJSON(c, &in) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, utils.Unavailable("load account", err))
			return
		}
		respondError(c, utils.NewAppError(utils.ErrUnauthorized, "wrong email or password", nil))
		return
	}
	if !utils.CheckPasswordHash(in.Password, user.Password) {
		respondError(c, utils.NewAppError(utils.ErrUnauthorized, "wrong email or password", nil))
		return
	}

	if err := middleware.Login(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

type deleteAccountInput struct {
	Password string `json:"password"`
}

// DeleteAccount removes the current user after checking the password. Their posts and comments stay.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var in deleteAccountInput
	if !bindJSON(c, &in) {
		return
	}
	if !utils.CheckPasswordHash(in.Password, user.Password) {
		respondError(c, utils.Forbidden("password does not match"))
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipient_uid = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_uid = ?", user.ID).Delete(&models.RoomBooking{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		respondError(c, utils.Unavailable("delete account", err))
		return
	}
	_ = middleware.Logout(c)
	h.Log.Info().Str("user", user.ID).Msg("account deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type resetRequestInput struct {
	Email string `json:"email"`
}

// RequestReset mails a reset code. It answers the same whether or not the email is known.
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var in resetRequestInput
	if !bindJSON(c, &in) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !h.ResetLimiter.Allow(email) {
		retry := h.ResetLimiter.RetryAfter(email)
		c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		respondError(c, utils.RateLimited("too many reset requests, try again later"))
		return
	}
	ctx := c.Request.Context()

	var user models.User
	if err := h.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err == nil {
		code, err := utils.GenerateRandomCode(6)
		if err != nil {
			respondError(c, utils.Unavailable("generate reset code", err))
			return
		}
		expiry := time.Now().Add(resetCodeTTL)
		err = h.DB.WithContext(ctx).Model(&user).
			Updates(map[string]any{"verify_code": code, "verify_code_expiry": expiry, "verify_attempts": 0}).Error
		if err != nil {
			respondError(c, utils.Unavailable("store reset code", err))
			return
		}
		h.Mail.SendPasswordResetEmail(user.Email, user.Nickname, code, int(resetCodeTTL.Minutes()))
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

type resetConfirmInput struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// ConfirmReset sets a new password when the mailed code matches. Every wrong guess is
// counted and the code is cleared after maxResetAttempts of them.
func (h *AuthHandler) ConfirmReset(c *gin.Context) {
	var in resetConfirmInput
	if !bindJSON(c, &in) {
		return
	}
	if len(in.Password) < minPasswordLength {
		respondError(c, utils.InvalidInput("password must be at least %d characters", minPasswordLength))
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	ctx := c.Request.Context()
	invalid := utils.InvalidInput("invalid or expired code")

	var user models.User
	if err := h.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, invalid)
			return
		}
		respondError(c, utils.Unavailable("load user", err))
		return
	}
	active := user.VerifyCode != "" && user.VerifyCodeExpiry != nil &&
		time.Now().Before(*user.VerifyCodeExpiry) && user.VerifyAttempts < maxResetAttempts
	if !active {
		respondError(c, invalid)
		return
	}
	if subtle.ConstantTimeCompare([]byte(user.VerifyCode), []byte(strings.TrimSpace(in.Code))) != 1 {
		if err := h.recordFailedReset(c, user.ID); err != nil {
			respondError(c, err)
			return
		}
		respondError(c, invalid)
		return
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	// The attempt guard makes a concurrent burn win over this update.
	res := h.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND verify_code = ? AND verify_attempts < ?", user.ID, user.VerifyCode, maxResetAttempts).
		Updates(map[string]any{"password": hash, "verify_code": "", "verify_code_expiry": nil, "verify_attempts": 0})
	if res.Error != nil {
		respondError(c, utils.Unavailable("reset password", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, invalid)
		return
	}
	h.Log.Info().Str("user", user.ID).Msg("password reset")
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *AuthHandler) recordFailedReset(c *gin.Context, uid string) error {
	return h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).Where("id = ?", uid).
			Update("verify_attempts", gorm.Expr("verify_attempts + 1")).Error
		if err != nil {
			return utils.Unavailable("count reset attempt", err)
		}
		res := tx.Model(&models.User{}).
			Where("id = ? AND verify_attempts >= ?", uid, maxResetAttempts).
			Updates(map[string]any{"verify_code": "", "verify_code_expiry": nil})
		if res.Error != nil {
			return utils.Unavailable("burn reset code", res.Error)
		}
		if res.RowsAffected > 0 {
			h.Log.Warn().Str("user", uid).Msg("reset code burned after repeated wrong guesses")
		}
		return nil
	})
}
