package models

import (
	"time"
)

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report flags a post or comment for staff review.
type Report struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	ReporterUID string       `gorm:"size:36;not null;index" json:"reporterUid"`
	ItemType    string       `gorm:"size:20;not null" json:"itemType"` // "post", "comment"
	ItemID      string       `gorm:"size:36;not null;index" json:"itemId"`
	PostID      string       `gorm:"size:36" json:"postId"`
	Reason      string       `gorm:"size:200;not null" json:"reason"`
	Status      ReportStatus `gorm:"size:20;default:open;index" json:"status"`
	HandledBy   string       `gorm:"size:36" json:"handledBy,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
