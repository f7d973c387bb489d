package models

import (
	"time"
)

// GradeLog records every grade or role change made by staff.
type GradeLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	ActorUID  string    `gorm:"size:36;not null" json:"actorUid"`
	FromGrade string    `gorm:"size:20" json:"fromGrade"`
	ToGrade   string    `gorm:"size:20" json:"toGrade"`
	FromRole  string    `gorm:"size:20" json:"fromRole"`
	ToRole    string    `gorm:"size:20" json:"toRole"`
	CreatedAt time.Time `json:"createdAt"`
}
