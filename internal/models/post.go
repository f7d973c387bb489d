package models

import (
	"time"
)

type BoardType string

const (
	BoardFree       BoardType = "free"
	BoardRecording  BoardType = "recording"
	BoardPartner    BoardType = "partner"
	BoardEvaluation BoardType = "evaluation"
)

// BoardTypes lists the boards in display order.
var BoardTypes = []BoardType{BoardFree, BoardRecording, BoardPartner, BoardEvaluation}

// Valid reports whether b is one of the known boards.
func (b BoardType) Valid() bool {
	switch b {
	case BoardFree, BoardRecording, BoardPartner, BoardEvaluation:
		return true
	}
	return false
}

type Post struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Type           BoardType  `gorm:"size:20;not null;index" json:"type"`
	Title          string     `gorm:"not null" json:"title"`
	Content        string     `gorm:"type:text" json:"content"`
	WriterUID      string     `gorm:"size:36;not null;index" json:"writerUid"`
	WriterNickname string     `gorm:"size:40" json:"writerNickname"`
	CommentCount   int        `gorm:"default:0" json:"commentCount"`
	LikesCount     int        `gorm:"default:0" json:"likesCount"`
	ViewCount      int        `gorm:"default:0" json:"viewCount"`
	LikedBy        []string   `gorm:"serializer:json" json:"likedBy"`
	AttachmentPath string     `json:"attachmentPath,omitempty"` // recording board
	Deadline       *time.Time `json:"deadline,omitempty"`       // partner board
	Closed         bool       `gorm:"default:false" json:"closed"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// RecruitmentClosed reports whether a partner post no longer accepts applications at now.
func (p *Post) RecruitmentClosed(now time.Time) bool {
	if p.Type != BoardPartner {
		return false
	}
	return p.Closed || (p.Deadline != nil && now.After(*p.Deadline))
}
