package models

import (
	"time"
)

type User struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"` // Hash
	Nickname         string     `gorm:"size:40;not null;index" json:"nickname"`
	Grade            string     `gorm:"size:20;default:'cherry';not null" json:"grade"`
	Role             string     `gorm:"size:20;default:'member';not null" json:"role"`
	Theme            string     `gorm:"size:20;default:'light';not null" json:"theme"`
	Bio              string     `gorm:"size:200" json:"bio"`
	VerifyCode       string     `gorm:"size:20" json:"-"` // password reset code
	VerifyCodeExpiry *time.Time `json:"-"`
	VerifyAttempts   int        `gorm:"default:0;not null" json:"-"` // wrong codes since the last reset request
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Session builds the identity handed to business logic for this user.
func (u *User) Session() *Session {
	return &Session{
		UserID:   u.ID,
		Nickname: u.Nickname,
		Grade:    u.Grade,
		Role:     u.Role,
	}
}
