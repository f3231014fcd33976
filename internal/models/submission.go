package models

import (
	"time"
)

type Submission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Sid       string    `gorm:"uniqueIndex;size:8;not null" json:"sid"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title     string    `gorm:"not null" json:"title"`
	Language  string    `gorm:"size:40;not null" json:"language"`
	Code      string    `gorm:"type:text;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Not a database column, filled on list queries
	ReviewCount int `gorm:"-" json:"review_count"`
}
