package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"veryus/internal/models"
	"veryus/internal/utils"
)

const dateLayout = "2006-01-02"

// RoomService books the practice rooms.
type RoomService struct {
	db  *gorm.DB
	log zerolog.Logger
	loc *time.Location
	now func() time.Time
}

func NewRoomService(db *gorm.DB, loc *time.Location, log zerolog.Logger) *RoomService {
	if loc == nil {
		loc = time.Local
	}
	return &RoomService{db: db, loc: loc, log: log.With().Str("component", "rooms").Logger(), now: time.Now}
}

// Slot is a room and an hour range [StartHour, EndHour) on Date.
type Slot struct {
	Room      string `json:"room"`
	Date      string `json:"date"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
}

type BookingInput struct {
	Slot
	Purpose string `json:"purpose"`
}

type BlockInput struct {
	Slot
	Reason string `json:"reason"`
}

// DaySchedule is everything booked or blocked on one date.
type DaySchedule struct {
	Date     string               `json:"date"`
	Bookings []models.RoomBooking `json:"bookings"`
	Blocks   []models.RoomBlock   `json:"blocks"`
}

func (s *RoomService) validate(slot *Slot, allowPast bool) error {
	slot.Room = strings.TrimSpace(slot.Room)
	if slot.Room == "" || len(slot.Room) > 40 {
		return utils.InvalidInput("room is required")
	}
	day, err := time.ParseInLocation(dateLayout, slot.Date, s.loc)
	if err != nil {
		return utils.InvalidInput("date must be YYYY-MM-DD")
	}
	if slot.StartHour < 0 || slot.EndHour > 24 || slot.StartHour >= slot.EndHour {
		return utils.InvalidInput("hours must satisfy 0 <= start < end <= 24")
	}
	if allowPast {
		return nil
	}
	start := day.Add(time.Duration(slot.StartHour) * time.Hour)
	if start.Before(s.now().In(s.loc).Truncate(time.Hour)) {
		return utils.InvalidInput("cannot book a slot in the past")
	}
	return nil
}

func overlapping(tx *gorm.DB, slot Slot) *gorm.DB {
	return tx.Where("room = ? AND date = ? AND start_hour < ? AND end_hour > ?", slot.Room, slot.Date, slot.EndHour, slot.StartHour)
}

// lockDay takes the row lock of slot's room and date, creating the row on first use.
// Concurrent bookings of the same day wait here, so the overlap check and insert that
// follow cannot interleave.
func lockDay(tx *gorm.DB, slot Slot) error {
	day := models.RoomDay{Room: slot.Room, Date: slot.Date}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&day).Error; err != nil {
		return err
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&day, "room = ? AND date = ?", slot.Room, slot.Date).Error
}

// Book reserves a slot for actor when it overlaps no booking or block.
func (s *RoomService) Book(ctx context.Context, actor *models.Session, in BookingInput) (*models.RoomBooking, error) {
	if actor == nil {
		return nil, utils.NewAppError(utils.ErrUnauthorized, "login required", nil)
	}
	if err := s.validate(&in.Slot, false); err != nil {
		return nil, err
	}

	booking := models.RoomBooking{
		Room:      in.Room,
		Date:      in.Date,
		StartHour: in.StartHour,
		EndHour:   in.EndHour,
		UserUID:   actor.UserID,
		Nickname:  actor.Nickname,
		Purpose:   strings.TrimSpace(in.Purpose),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDay(tx, in.Slot); err != nil {
			return err
		}
		var n int64
		if err := overlapping(tx.Model(&models.RoomBlock{}), in.Slot).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return utils.Conflict("the room is blocked at that time")
		}
		if err := overlapping(tx.Model(&models.RoomBooking{}), in.Slot).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return utils.Conflict("the room is already booked at that time")
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, StoreError(err, "book room")
	}
	s.log.Info().Str("room", booking.Room).Str("date", booking.Date).Int("start", booking.StartHour).Int("end", booking.EndHour).Str("user", actor.UserID).Msg("room booked")
	return &booking, nil
}

// Cancel removes a booking. Owners and staff may cancel.
func (s *RoomService) Cancel(ctx context.Context, actor *models.Session, id string) error {
	if actor == nil {
		return utils.NewAppError(utils.ErrUnauthorized, "login required", nil)
	}
	var booking models.RoomBooking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("booking not found")
		}
		return utils.Unavailable("load booking", err)
	}
	if !actor.Is(booking.UserUID) && !utils.IsPrivileged(actor.Role) {
		return utils.Forbidden("only the owner can cancel this booking")
	}
	if err := s.db.WithContext(ctx).Delete(&booking).Error; err != nil {
		return utils.Unavailable("cancel booking", err)
	}
	return nil
}

// Day lists the bookings and blocks of date, optionally for one room.
func (s *RoomService) Day(ctx context.Context, date, room string) (*DaySchedule, error) {
	if _, err := time.ParseInLocation(dateLayout, date, s.loc); err != nil {
		return nil, utils.InvalidInput("date must be YYYY-MM-DD")
	}
	schedule := &DaySchedule{Date: date, Bookings: []models.RoomBooking{}, Blocks: []models.RoomBlock{}}
	bookings := s.db.WithContext(ctx).Where("date = ?", date)
	blocks := s.db.WithContext(ctx).Where("date = ?", date)
	if room != "" {
		bookings = bookings.Where("room = ?", room)
		blocks = blocks.Where("room = ?", room)
	}
	if err := bookings.Order("room, start_hour").Find(&schedule.Bookings).Error; err != nil {
		return nil, utils.Unavailable("list bookings", err)
	}
	if err := blocks.Order("room, start_hour").Find(&schedule.Blocks).Error; err != nil {
		return nil, utils.Unavailable("list blocks", err)
	}
	return schedule, nil
}

// Block closes a slot. Existing bookings inside it are kept and returned so staff can follow up.
func (s *RoomService) Block(ctx context.Context, actor *models.Session, in BlockInput) (*models.RoomBlock, []models.RoomBooking, error) {
	if err := requireStaff(actor); err != nil {
		return nil, nil, err
	}
	if err := s.validate(&in.Slot, true); err != nil {
		return nil, nil, err
	}
	block := models.RoomBlock{
		Room:      in.Room,
		Date:      in.Date,
		StartHour: in.StartHour,
		EndHour:   in.EndHour,
		Reason:    strings.TrimSpace(in.Reason),
		CreatedBy: actor.UserID,
	}
	var affected []models.RoomBooking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDay(tx, in.Slot); err != nil {
			return err
		}
		if err := tx.Create(&block).Error; err != nil {
			return err
		}
		return overlapping(tx, in.Slot).Find(&affected).Error
	})
	if err != nil {
		return nil, nil, StoreError(err, "block room")
	}
	s.log.Info().Str("room", block.Room).Str("date", block.Date).Int("affected", len(affected)).Msg("room blocked")
	return &block, affected, nil
}

// Unblock removes a block. Staff only.
func (s *RoomService) Unblock(ctx context.Context, actor *models.Session, id string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&models.RoomBlock{}, "id = ?", id)
	if res.Error != nil {
		return utils.Unavailable("unblock room", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NotFound("block not found")
	}
	return nil
}
