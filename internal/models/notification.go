package models

import (
	"time"
)

type NotificationKind string

const (
	NotificationCommentPost   NotificationKind = "comment_post"
	NotificationReplyComment  NotificationKind = "reply_comment"
	NotificationPostUpvote    NotificationKind = "post_upvote"
	NotificationCommentUpvote NotificationKind = "comment_upvote"
	NotificationSystem        NotificationKind = "system"
)

type Notification struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index:idx_notification_dedup,priority:1" json:"user_id"` // Receiver
	Kind       NotificationKind `gorm:"type:varchar(20);not null;index:idx_notification_dedup,priority:2" json:"kind"`
	ActorID    uint             `gorm:"not null;index:idx_notification_dedup,priority:3" json:"actor_id"` // Sender
	TargetType string           `gorm:"size:16;not null;index:idx_notification_dedup,priority:4" json:"target_type"`
	TargetID   uint             `gorm:"not null;index:idx_notification_dedup,priority:5" json:"target_id"`
	PostID     uint             `gorm:"not null" json:"post_id"` // 用于前端跳转
	// 冗余字段，渲染通知时不再联表
	ActorName string    `gorm:"size:100" json:"actor_name"`
	Excerpt   string    `gorm:"size:200" json:"excerpt"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index:idx_notification_dedup,priority:6" json:"created_at"`
}
