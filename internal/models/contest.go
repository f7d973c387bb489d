package models

import (
	"time"
)

type ContestType string

const (
	ContestRegular     ContestType = "regular"
	ContestSemi        ContestType = "semi"
	ContestCompetition ContestType = "competition"
)

// Valid reports whether t is a known contest type.
func (t ContestType) Valid() bool {
	switch t {
	case ContestRegular, ContestSemi, ContestCompetition:
		return true
	}
	return false
}

// RankEntry is one line of a frozen top-3 snapshot.
type RankEntry struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Contest struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	Title     string      `gorm:"not null" json:"title"`
	Type      ContestType `gorm:"size:20;not null" json:"type"`
	Deadline  time.Time   `json:"deadline"`
	Started   bool        `gorm:"default:false" json:"started"`
	Ended     bool        `gorm:"default:false" json:"ended"`
	Results   []RankEntry `gorm:"serializer:json" json:"results"`
	CreatedBy string      `gorm:"size:36" json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ContestGrade is immutable once submitted.
type ContestGrade struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ContestID     string    `gorm:"size:36;not null;uniqueIndex:idx_grade_once" json:"contestId"`
	EvaluatorUID  string    `gorm:"size:36;not null;uniqueIndex:idx_grade_once" json:"-"`
	Evaluator     string    `gorm:"size:40" json:"evaluator"`
	Target        string    `gorm:"size:80;not null;uniqueIndex:idx_grade_once" json:"target"`
	Score         float64   `json:"score"`
	Comment       string    `gorm:"type:text" json:"comment"`
	EvaluatorRole string    `gorm:"size:20" json:"evaluatorRole"`
	Seq           int64     `gorm:"not null;default:0;index" json:"seq"` // submission order within the contest
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}
