package store

import (
	"context"
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) GetUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Take(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, classify(err, "load user")
	}
	return u, nil
}

// AdjustKarma writes the log row first so that a replayed event id hits
// the unique index before the counter moves.
func (s *GormStore) AdjustKarma(ctx context.Context, userID uint, delta int, reason, eventID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.KarmaLog{
			UserID:  userID,
			Amount:  delta,
			Reason:  reason,
			EventID: eventID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("karma", gorm.Expr("karma + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case isDuplicate(err):
		return nil
	case isForeignKey(err):
		return ErrUserNotFound
	}
	return classify(err, "adjust karma")
}
