package models

import (
	"time"
)

// RoomBooking reserves [StartHour, EndHour) of one practice room on Date (YYYY-MM-DD).
type RoomBooking struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Room      string    `gorm:"size:40;not null;index:idx_booking_day" json:"room"`
	Date      string    `gorm:"size:10;not null;index:idx_booking_day" json:"date"`
	StartHour int       `json:"startHour"`
	EndHour   int       `json:"endHour"`
	UserUID   string    `gorm:"size:36;not null;index" json:"userUid"`
	Nickname  string    `gorm:"size:40" json:"nickname"`
	Purpose   string    `gorm:"size:200" json:"purpose"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomBlock closes a room for a range of hours, set by staff.
type RoomBlock struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Room      string    `gorm:"size:40;not null;index:idx_block_day" json:"room"`
	Date      string    `gorm:"size:10;not null;index:idx_block_day" json:"date"`
	StartHour int       `json:"startHour"`
	EndHour   int       `json:"endHour"`
	Reason    string    `gorm:"size:200" json:"reason"`
	CreatedBy string    `gorm:"size:36" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomDay is the lock row that serialises schedule changes of one room on one date.
type RoomDay struct {
	Room string `gorm:"primaryKey;size:40"`
	Date string `gorm:"primaryKey;size:10"`
}
