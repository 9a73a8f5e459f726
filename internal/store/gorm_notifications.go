package store

import (
	"context"
	"time"

	"agora/internal/models"
)

func (s *GormStore) FindRecent(ctx context.Context, key NotificationKey, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND kind = ? AND actor_id = ? AND target_type = ? AND target_id = ? AND created_at >= ?",
			key.RecipientID, key.Kind, key.ActorID, key.Target.Type, key.Target.ID, since).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, classify(err, "find notification")
	}
	return count > 0, nil
}

func (s *GormStore) Insert(ctx context.Context, n *models.Notification) error {
	return classify(s.db.WithContext(ctx).Create(n).Error, "insert notification")
}

func (s *GormStore) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, classify(err, "list notifications")
	}
	return out, nil
}

func (s *GormStore) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return classify(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, classify(res.Error, "mark notifications read")
}

func (s *GormStore) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return classify(res.Error, "delete notification")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, classify(err, "count notifications")
}
