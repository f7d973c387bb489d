package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeReply   NotificationType = "reply"
	NotificationTypeMessage NotificationType = "message"
	NotificationTypeSystem  NotificationType = "system"
)

type Notification struct {
	ID              string           `gorm:"primaryKey;size:36" json:"id"`
	RecipientUID    string           `gorm:"size:36;not null;index" json:"recipientUid"`
	ActorName       string           `gorm:"size:40" json:"actorName"`
	Type            NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	PostID          string           `gorm:"size:36" json:"postId,omitempty"`
	PostTitle       string           `json:"postTitle,omitempty"`
	ParentCommentID string           `gorm:"size:36" json:"parentCommentId,omitempty"`
	BoardType       BoardType        `gorm:"size:20" json:"boardType,omitempty"`
	Reason          string           `gorm:"type:text" json:"reason,omitempty"`
	IsRead          bool             `gorm:"default:false;index" json:"isRead"`
	CreatedAt       time.Time        `gorm:"index" json:"createdAt"`
}
