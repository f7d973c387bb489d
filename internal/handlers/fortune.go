package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/utils"
)

type FortuneHandler struct {
	*Deps
}

func NewFortuneHandler(d *Deps) *FortuneHandler {
	return &FortuneHandler{Deps: d}
}

// Today returns the member's fortune. It changes once a day.
func (h *FortuneHandler) Today(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, utils.DailyFortune(user.ID, time.Now(), h.Location))
}
