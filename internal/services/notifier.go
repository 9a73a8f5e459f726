package services

import (
	"context"
	"fmt"
	"time"

	"agora/internal/models"
	"agora/internal/store"
	"agora/internal/utils"

	"go.uber.org/zap"
)

const (
	DefaultDedupWindow = 24 * time.Hour
	excerptRunes       = 80
)

// DedupGuard is an optional insert-or-ignore claim keyed by the
// notification identity. A successful claim is held for the window.
type DedupGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Notice is one notification request.
type Notice struct {
	Key     store.NotificationKey
	PostID  uint
	Excerpt string // title or body of the content, trimmed on insert
}

// Notifier writes at most one notification per key and window.
type Notifier struct {
	notes  store.NotificationStore
	users  store.UserStore
	guard  DedupGuard
	window time.Duration
	now    func() time.Time
	log    *zap.Logger
}

type NotifierOption func(*Notifier)

func WithDedupGuard(g DedupGuard) NotifierOption { return func(n *Notifier) { n.guard = g } }
func WithDedupWindow(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.window = d
		}
	}
}
func WithNotifierClock(now func() time.Time) NotifierOption { return func(n *Notifier) { n.now = now } }
func WithNotifierLogger(l *zap.Logger) NotifierOption       { return func(n *Notifier) { n.log = l } }

func NewNotifier(notes store.NotificationStore, users store.UserStore, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		notes:  notes,
		users:  users,
		window: DefaultDedupWindow,
		now:    time.Now,
		log:    zap.L(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

func dedupKey(k store.NotificationKey) string {
	return fmt.Sprintf("notify:%d:%s:%d:%s", k.RecipientID, k.Kind, k.ActorID, k.Target)
}

// NotifyIfNew inserts the notification unless the recipient is the actor
// or an identical one exists inside the window. It reports whether a row
// was written. Concurrent callers may still both insert when no guard is
// configured.
func (n *Notifier) NotifyIfNew(ctx context.Context, in Notice) (bool, error) {
	k := in.Key
	if k.RecipientID == 0 || k.RecipientID == k.ActorID {
		return false, nil
	}

	key := dedupKey(k)
	claimed := false
	if n.guard != nil {
		ok, err := n.guard.Claim(ctx, key, n.window)
		switch {
		case err != nil:
			n.log.Warn("dedup claim failed, falling back to store check", zap.String("key", key), zap.Error(err))
		case !ok:
			return false, nil
		default:
			claimed = true
		}
	}

	now := n.now()
	found, err := n.notes.FindRecent(ctx, k, now.Add(-n.window))
	if err != nil {
		n.release(ctx, key, claimed)
		return false, err
	}
	if found {
		return false, nil
	}

	row := models.Notification{
		UserID:     k.RecipientID,
		Kind:       k.Kind,
		ActorID:    k.ActorID,
		TargetType: string(k.Target.Type),
		TargetID:   k.Target.ID,
		PostID:     in.PostID,
		ActorName:  n.actorName(ctx, k.ActorID),
		Excerpt:    utils.Excerpt(in.Excerpt, excerptRunes),
		CreatedAt:  now,
	}
	if err := n.notes.Insert(ctx, &row); err != nil {
		n.release(ctx, key, claimed)
		return false, err
	}
	return true, nil
}

func (n *Notifier) actorName(ctx context.Context, id uint) string {
	u, err := n.users.GetUser(ctx, id)
	if err != nil {
		n.log.Debug("actor lookup failed", zap.Uint("actor_id", id), zap.Error(err))
		return ""
	}
	return u.Username
}

func (n *Notifier) release(ctx context.Context, key string, claimed bool) {
	if !claimed {
		return
	}
	if err := n.guard.Release(ctx, key); err != nil {
		n.log.Warn("dedup release failed", zap.String("key", key), zap.Error(err))
	}
}
