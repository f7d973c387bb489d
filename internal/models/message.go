package models

import (
	"time"
)

// Message is a private message between two members. Each side deletes independently.
type Message struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	FromUID           string     `gorm:"size:36;not null;index" json:"fromUid"`
	FromNickname      string     `gorm:"size:40" json:"fromNickname"`
	ToUID             string     `gorm:"size:36;not null;index" json:"toUid"`
	ToNickname        string     `gorm:"size:40" json:"toNickname"`
	Content           string     `gorm:"type:text;not null" json:"content"`
	IsRead            bool       `gorm:"default:false" json:"isRead"`
	ReadAt            *time.Time `json:"readAt,omitempty"`
	DeletedBySender   bool       `gorm:"default:false" json:"-"`
	DeletedByReceiver bool       `gorm:"default:false" json:"-"`
	CreatedAt         time.Time  `gorm:"index" json:"createdAt"`
}
