package models

import (
	"time"
)

type ReviewVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_user_vote" json:"review_id"`
	Review    Review    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_user_vote" json:"user_id"`
	Vote      bool      `gorm:"not null" json:"vote"` // true = like, false = dislike
	CreatedAt time.Time `json:"created_at"`
}

// VoteCount is the per-review tally derived from ReviewVote rows.
type VoteCount struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}
