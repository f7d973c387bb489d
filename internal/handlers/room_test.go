package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veryus/internal/models"
	"veryus/internal/services"
	"veryus/internal/utils"
)

func TestRoomBookingConflicts(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCookies := env.member("Alice", utils.RoleMember)
	_, bobCookies := env.member("Bob", utils.RoleMember)
	_, staffCookies := env.member("Staff", utils.RoleViceAdmin)
	date := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

	book := func(cookies []*http.Cookie, start, end int) (int, models.RoomBooking) {
		rec := env.do(http.MethodPost, "/api/rooms/bookings", map[string]any{
			"room": "A", "date": date, "startHour": start, "endHour": end, "purpose": "band practice",
		}, cookies)
		var b models.RoomBooking
		if rec.Code == http.StatusCreated {
			b = decode[models.RoomBooking](t, rec)
		}
		return rec.Code, b
	}

	code, first := book(aliceCookies, 14, 16)
	require.Equal(t, http.StatusCreated, code)

	code, _ = book(bobCookies, 15, 17)
	assert.Equal(t, http.StatusConflict, code, "overlap")
	code, _ = book(bobCookies, 16, 18)
	assert.Equal(t, http.StatusCreated, code, "touching slots do not overlap")
	code, _ = book(bobCookies, 18, 18)
	assert.Equal(t, http.StatusBadRequest, code, "empty range")

	// Only the owner or staff may cancel.
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/rooms/bookings/"+first.ID, nil, bobCookies).Code)

	rec := env.do(http.MethodPost, "/api/rooms/blocks", map[string]any{
		"room": "A", "date": date, "startHour": 10, "endHour": 15, "reason": "cleaning",
	}, staffCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	blocked := decode[struct {
		Block            models.RoomBlock     `json:"block"`
		AffectedBookings []models.RoomBooking `json:"affectedBookings"`
	}](t, rec)
	require.Len(t, blocked.AffectedBookings, 1)
	assert.Equal(t, first.ID, blocked.AffectedBookings[0].ID)

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/api/rooms/bookings/"+first.ID, nil, aliceCookies).Code)
	code, _ = book(aliceCookies, 12, 13)
	assert.Equal(t, http.StatusConflict, code, "blocked")

	rec = env.do(http.MethodGet, "/api/rooms?date="+date+"&room=A", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[services.DaySchedule](t, rec)
	assert.Len(t, day.Bookings, 1)
	assert.Len(t, day.Blocks, 1)

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/api/rooms/blocks/"+blocked.Block.ID, nil, staffCookies).Code)
	code, _ = book(aliceCookies, 12, 13)
	assert.Equal(t, http.StatusCreated, code)
}

func TestRoomBlockRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.member("Alice", utils.RoleLeader)
	rec := env.do(http.MethodPost, "/api/rooms/blocks", map[string]any{
		"room": "A", "date": "2030-01-01", "startHour": 9, "endHour": 12,
	}, cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
