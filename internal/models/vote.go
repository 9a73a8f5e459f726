package models

import (
	"time"
)

// Vote is one membership in an item's upvoter or downvoter set. The unique
// index keeps a user in at most one of the two sets per item.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_vote_target,priority:3" json:"user_id"`
	TargetType string    `gorm:"size:16;not null;uniqueIndex:idx_vote_target,priority:1" json:"target_type"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_vote_target,priority:2" json:"target_id"`
	Value      int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
