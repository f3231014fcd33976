package models

import (
	"time"
)

type Reply struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ReviewID uint   `gorm:"not null;index" json:"review_id"`
	Review   Review `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	// ParentID is a soft self-reference, not a foreign key: deleting a
	// parent leaves its children in place, referencing the vanished id.
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	UserEmail string    `gorm:"not null" json:"user_email"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
