package models

import (
	"time"
)

// DeletedCommentContent replaces the content of a soft-deleted comment.
const DeletedCommentContent = "This comment has been deleted."

type Comment struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PostID         string    `gorm:"size:36;not null;index" json:"postId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	WriterUID      string    `gorm:"size:36;not null;index" json:"writerUid"`
	WriterNickname string    `gorm:"size:40" json:"writerNickname"`
	ParentID       *string   `gorm:"size:36;index" json:"parentId"` // nil for top-level comments
	IsSecret       bool      `gorm:"default:false" json:"isSecret"`
	LikedBy        []string  `gorm:"serializer:json" json:"likedBy"`
	LikesCount     int       `gorm:"default:0" json:"likesCount"`
	Deleted        bool      `gorm:"default:false;index" json:"deleted"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}
