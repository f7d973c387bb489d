package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID fills an empty string primary key before insert.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	newID(&n.ID)
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

func (c *Contest) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (g *ContestGrade) BeforeCreate(tx *gorm.DB) error {
	newID(&g.ID)
	return nil
}

func (b *RoomBooking) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

func (b *RoomBlock) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

func (l *GradeLog) BeforeCreate(tx *gorm.DB) error {
	newID(&l.ID)
	return nil
}

func (m *SpecialMoment) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}
