package models

import (
	"time"

	"agora/internal/voting"
)

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CommunityID uint      `gorm:"not null;index;default:1" json:"community_id"`
	Community   Community `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Title       string    `gorm:"not null" json:"title"`
	URL         string    `json:"url"` // Optional
	Body        string    `gorm:"type:text" json:"body"`
	Upvotes     int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes   int       `gorm:"not null;default:0" json:"downvotes"`
	Score       int       `gorm:"not null;default:0;index" json:"score"` // upvotes - downvotes, 与投票同一事务写入
	Version     int       `gorm:"not null;default:0" json:"-"`           // 乐观锁
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p Post) Ref() voting.ContentRef {
	return voting.ContentRef{Type: voting.ContentPost, ID: p.ID}
}

func (p Post) Author() uint { return p.UserID }
