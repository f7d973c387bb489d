package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veryus/internal/models"
	"veryus/internal/utils"
)

func newRoomService(t *testing.T) *RoomService {
	t.Helper()
	svc := NewRoomService(newTestDB(t), time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC) }
	return svc
}

func booking(room, date string, start, end int) BookingInput {
	return BookingInput{Slot: Slot{Room: room, Date: date, StartHour: start, EndHour: end}}
}

func TestBookRejectsOverlap(t *testing.T) {
	svc := newRoomService(t)
	ctx := context.Background()
	alice := &models.Session{UserID: "alice", Nickname: "Alice", Role: utils.RoleMember}
	bob := &models.Session{UserID: "bob", Nickname: "Bob", Role: utils.RoleMember}

	_, err := svc.Book(ctx, alice, booking("main", "2024-06-02", 18, 20))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   BookingInput
		code utils.Code
	}{
		{"same slot", booking("main", "2024-06-02", 18, 20), utils.ErrConflict},
		{"inside", booking("main", "2024-06-02", 19, 20), utils.ErrConflict},
		{"straddles start", booking("main", "2024-06-02", 17, 19), utils.ErrConflict},
		{"covers", booking("main", "2024-06-02", 10, 23), utils.ErrConflict},
		{"end hour out of range", booking("main", "2024-06-02", 20, 25), utils.ErrInvalidInput},
		{"empty range", booking("main", "2024-06-02", 20, 20), utils.ErrInvalidInput},
		{"bad date", booking("main", "06/02/2024", 1, 2), utils.ErrInvalidInput},
		{"yesterday", booking("main", "2024-05-31", 10, 12), utils.ErrInvalidInput},
		{"earlier today", booking("main", "2024-06-01", 9, 10), utils.ErrInvalidInput},
		{"no room", booking(" ", "2024-06-02", 9, 10), utils.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(ctx, bob, tt.in)
			assert.Equal(t, tt.code, utils.CodeOf(err))
		})
	}

	// Adjacent slots, the current hour and other rooms are free.
	_, err = svc.Book(ctx, bob, booking("main", "2024-06-02", 20, 22))
	assert.NoError(t, err)
	_, err = svc.Book(ctx, bob, booking("main", "2024-06-02", 16, 18))
	assert.NoError(t, err)
	_, err = svc.Book(ctx, bob, booking("main", "2024-06-01", 14, 15))
	assert.NoError(t, err)
	_, err = svc.Book(ctx, bob, booking("small", "2024-06-02", 18, 20))
	assert.NoError(t, err)

	day, err := svc.Day(ctx, "2024-06-02", "main")
	require.NoError(t, err)
	assert.Len(t, day.Bookings, 3)
	assert.Equal(t, 16, day.Bookings[0].StartHour)
}

func TestBlocksAndCancellation(t *testing.T) {
	svc := newRoomService(t)
	ctx := context.Background()
	alice := &models.Session{UserID: "alice", Nickname: "Alice", Role: utils.RoleMember}
	bob := &models.Session{UserID: "bob", Nickname: "Bob", Role: utils.RoleMember}
	staff := &models.Session{UserID: "staff", Role: utils.RoleViceAdmin}

	b, err := svc.Book(ctx, alice, booking("main", "2024-06-03", 10, 12))
	require.NoError(t, err)

	_, _, err = svc.Block(ctx, alice, BlockInput{Slot: Slot{Room: "main", Date: "2024-06-03", StartHour: 0, EndHour: 24}})
	assert.Equal(t, utils.ErrForbidden, utils.CodeOf(err))

	block, affected, err := svc.Block(ctx, staff, BlockInput{Slot: Slot{Room: "main", Date: "2024-06-03", StartHour: 11, EndHour: 15}, Reason: "cleaning"})
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, b.ID, affected[0].ID)

	_, err = svc.Book(ctx, bob, booking("main", "2024-06-03", 14, 16))
	assert.Equal(t, utils.ErrConflict, utils.CodeOf(err))

	assert.Equal(t, utils.ErrForbidden, utils.CodeOf(svc.Cancel(ctx, bob, b.ID)))
	assert.NoError(t, svc.Cancel(ctx, alice, b.ID))
	assert.Equal(t, utils.ErrNotFound, utils.CodeOf(svc.Cancel(ctx, alice, b.ID)))

	require.NoError(t, svc.Unblock(ctx, staff, block.ID))
	assert.Equal(t, utils.ErrNotFound, utils.CodeOf(svc.Unblock(ctx, staff, block.ID)))

	_, err = svc.Book(ctx, bob, booking("main", "2024-06-03", 14, 16))
	assert.NoError(t, err)
}

func TestConcurrentBookingsOfOneSlot(t *testing.T) {
	svc := newRoomService(t)
	ctx := context.Background()

	const members = 8
	errs := make(chan error, members)
	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := &models.Session{UserID: fmt.Sprintf("member-%d", i), Nickname: "M", Role: utils.RoleMember}
			_, err := svc.Book(ctx, actor, booking("main", "2024-06-03", 18, 20))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	booked := 0
	for err := range errs {
		if err == nil {
			booked++
			continue
		}
		assert.Equal(t, utils.ErrConflict, utils.CodeOf(err))
	}
	assert.Equal(t, 1, booked)

	var n int64
	require.NoError(t, svc.db.Model(&models.RoomBooking{}).Where("room = ? AND date = ?", "main", "2024-06-03").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
