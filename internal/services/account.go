package services

import (
	"context"
	"time"

	"agora/internal/models"
	"agora/internal/store"
	"agora/internal/utils"
)

const inboxLimit = 50

type Profile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Karma     int       `json:"karma"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

type Me struct {
	Profile
	UnreadNotifications int64 `json:"unreadNotifications"`
}

// AccountService serves profiles and the notification inbox.
type AccountService struct {
	users store.UserStore
	notes store.NotificationStore
}

func NewAccountService(users store.UserStore, notes store.NotificationStore) *AccountService {
	return &AccountService{users: users, notes: notes}
}

func (s *AccountService) Profile(ctx context.Context, id uint) (Profile, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Karma:     u.Karma,
		Level:     utils.KarmaLevel(u.Karma),
		CreatedAt: u.CreatedAt,
	}, nil
}

func (s *AccountService) Me(ctx context.Context, id uint) (Me, error) {
	p, err := s.Profile(ctx, id)
	if err != nil {
		return Me{}, err
	}
	unread, err := s.notes.UnreadCount(ctx, id)
	if err != nil {
		return Me{}, err
	}
	return Me{Profile: p, UnreadNotifications: unread}, nil
}

func (s *AccountService) Inbox(ctx context.Context, userID uint) ([]models.Notification, error) {
	list, err := s.notes.List(ctx, userID, inboxLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

func (s *AccountService) MarkRead(ctx context.Context, userID, id uint) error {
	return s.notes.MarkRead(ctx, userID, id)
}

func (s *AccountService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notes.MarkAllRead(ctx, userID)
}

func (s *AccountService) DeleteNotification(ctx context.Context, userID, id uint) error {
	return s.notes.Delete(ctx, userID, id)
}
