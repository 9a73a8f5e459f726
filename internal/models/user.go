package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"-"`
	Avatar    string    `gorm:"default:🌱" json:"avatar"`
	Karma     int       `gorm:"default:0" json:"karma"` // 只通过投票副作用变动
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
