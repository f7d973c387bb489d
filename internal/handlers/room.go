package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/services"
)

type RoomHandler struct {
	*Deps
}

func NewRoomHandler(d *Deps) *RoomHandler {
	return &RoomHandler{Deps: d}
}

// Day lists bookings and blocks for ?date=YYYY-MM-DD (today by default), optionally one ?room=.
func (h *RoomHandler) Day(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().In(h.Location).Format("2006-01-02"))
	schedule, err := h.Rooms.Day(c.Request.Context(), date, c.Query("room"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *RoomHandler) Book(c *gin.Context) {
	var in services.BookingInput
	if !bindJSON(c, &in) {
		return
	}
	booking, err := h.Rooms.Book(c.Request.Context(), middleware.CurrentSession(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *RoomHandler) Cancel(c *gin.Context) {
	if err := h.Rooms.Cancel(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *RoomHandler) Block(c *gin.Context) {
	var in services.BlockInput
	if !bindJSON(c, &in) {
		return
	}
	block, affected, err := h.Rooms.Block(c.Request.Context(), middleware.CurrentSession(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"block": block, "affectedBookings": affected})
}

func (h *RoomHandler) Unblock(c *gin.Context) {
	if err := h.Rooms.Unblock(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unblocked": true})
}
