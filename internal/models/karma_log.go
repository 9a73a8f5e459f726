package models

import (
	"time"
)

// KarmaLog records every applied reputation change.
type KarmaLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Amount    int       `gorm:"not null" json:"amount"` // 正数为增加，负数为扣除
	Reason    string    `gorm:"size:100;not null" json:"reason"`
	EventID   string    `gorm:"size:36;uniqueIndex" json:"event_id"` // 消费端去重
	CreatedAt time.Time `json:"created_at"`
}
