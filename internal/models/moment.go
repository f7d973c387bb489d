package models

import (
	"time"
)

// SpecialMoment is a gallery entry.
type SpecialMoment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImagePath   string    `gorm:"not null" json:"imagePath"`
	TakenOn     string    `gorm:"size:10" json:"takenOn"`
	CreatedBy   string    `gorm:"size:36" json:"createdBy"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}
