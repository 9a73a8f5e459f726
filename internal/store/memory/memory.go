// Package memory is an in-process implementation of every store
// interface. It backs STORE_DRIVER=memory and the service tests. Vote
// members are kept as voting.VoteSets, so every transition goes through the
// same set algebra the engine is specified against.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"agora/internal/models"
	"agora/internal/store"
	"agora/internal/voting"
)

type item struct {
	content store.Content
	sets    voting.VoteSets
	version int
}

// Store serialises every mutation behind one mutex, which gives
// UpdateVotes its atomicity.
type Store struct {
	mu sync.Mutex

	now func() time.Time

	items         map[voting.ContentRef]*item
	users         map[uint]*models.User
	karmaEvents   map[string]struct{}
	KarmaLog      []models.KarmaLog
	notifications []models.Notification
	communities   []models.Community

	nextID uint
}

var (
	_ store.ContentStore      = (*Store)(nil)
	_ store.ThreadStore       = (*Store)(nil)
	_ store.UserStore         = (*Store)(nil)
	_ store.NotificationStore = (*Store)(nil)
)

type Option func(*Store)

// WithClock replaces time.Now for created-at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:         time.Now,
		items:       map[voting.ContentRef]*item{},
		users:       map[uint]*models.User{},
		karmaEvents: map[string]struct{}{},
		communities: []models.Community{{ID: 1, Name: "general", Description: "Anything goes"}},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// AddUser registers a user, assigning an id when u.ID is zero.
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = &u
	return u
}

// Members returns the current upvoter and downvoter ids of ref.
func (s *Store) Members(ref voting.ContentRef) (up, down []uint, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[ref]
	if !ok {
		return nil, nil, false
	}
	up, down = it.sets.Members()
	return up, down, true
}

func (s *Store) Get(_ context.Context, ref voting.ContentRef) (store.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[ref]
	if !ok {
		return store.Content{}, store.ErrNotFound
	}
	return it.content, nil
}

func (s *Store) UpdateVotes(ctx context.Context, ref voting.ContentRef, actorID uint, fn store.TransitionFunc) (store.VoteOutcome, error) {
	if err := ctx.Err(); err != nil {
		return store.VoteOutcome{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[ref]
	if !ok {
		return store.VoteOutcome{}, store.ErrNotFound
	}
	tr, err := fn(it.sets.Of(actorID))
	if err != nil {
		return store.VoteOutcome{}, err
	}
	it.sets = it.sets.With(actorID, tr.Next)
	it.content.Tally = it.sets.Tally()
	it.version++
	return store.VoteOutcome{Content: it.content, Transition: tr}, nil
}

func (s *Store) VoteOf(_ context.Context, ref voting.ContentRef, userID uint) (voting.VoteValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[ref]
	if !ok || userID == 0 {
		return voting.VoteNone, nil
	}
	return it.sets.Of(userID), nil
}

func (s *Store) VotesOf(_ context.Context, t voting.ContentType, ids []uint, userID uint) (map[uint]voting.VoteValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint]voting.VoteValue, len(ids))
	if userID == 0 {
		return out, nil
	}
	for _, id := range ids {
		if it, ok := s.items[voting.ContentRef{Type: t, ID: id}]; ok {
			if v := it.sets.Of(userID); v != voting.VoteNone {
				out[id] = v
			}
		}
	}
	return out, nil
}

func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CommunityID == 0 {
		p.CommunityID = 1
	}
	if !s.hasCommunity(p.CommunityID) {
		return store.ErrNoCommunity
	}
	p.ID = s.id()
	p.Upvotes, p.Downvotes, p.Score, p.Version = 0, 0, 0, 0
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.items[p.Ref()] = &item{content: store.PostContent(*p), sets: voting.NewVoteSets()}
	return nil
}

func (s *Store) hasCommunity(id uint) bool {
	for _, c := range s.communities {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[voting.ContentRef{Type: voting.ContentPost, ID: c.PostID}]; !ok {
		return store.ErrNotFound
	}
	if c.ParentID != nil {
		parent, ok := s.items[voting.ContentRef{Type: voting.ContentComment, ID: *c.ParentID}]
		if !ok || parent.content.PostID != c.PostID {
			return store.ErrParentNotFound
		}
	}
	c.ID = s.id()
	c.Upvotes, c.Downvotes, c.Score, c.Version = 0, 0, 0, 0
	c.CreatedAt = s.now()
	s.items[c.Ref()] = &item{content: store.CommentContent(*c), sets: voting.NewVoteSets()}
	return nil
}

func (s *Store) ListComments(_ context.Context, postID uint) ([]store.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Content
	for ref, it := range s.items {
		if ref.Type == voting.ContentComment && it.content.PostID == postID {
			out = append(out, it.content)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeletePost(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := voting.ContentRef{Type: voting.ContentPost, ID: id}
	if _, ok := s.items[ref]; !ok {
		return store.ErrNotFound
	}
	for r, it := range s.items {
		if r.Type == voting.ContentComment && it.content.PostID == id {
			delete(s.items, r)
		}
	}
	delete(s.items, ref)
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	root := voting.ContentRef{Type: voting.ContentComment, ID: id}
	if _, ok := s.items[root]; !ok {
		return store.ErrNotFound
	}
	doomed := map[uint]bool{id: true}
	for grew := true; grew; {
		grew = false
		for r, it := range s.items {
			if r.Type != voting.ContentComment || doomed[r.ID] || it.content.ParentID == nil {
				continue
			}
			if doomed[*it.content.ParentID] {
				doomed[r.ID] = true
				grew = true
			}
		}
	}
	for cid := range doomed {
		delete(s.items, voting.ContentRef{Type: voting.ContentComment, ID: cid})
	}
	return nil
}

func (s *Store) ListCommunities(context.Context) ([]models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Community(nil), s.communities...), nil
}

func (s *Store) GetUser(_ context.Context, id uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return *u, nil
}

func (s *Store) AdjustKarma(_ context.Context, userID uint, delta int, reason, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.karmaEvents[eventID]; seen && eventID != "" {
		return nil
	}
	u, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Karma += delta
	s.karmaEvents[eventID] = struct{}{}
	s.KarmaLog = append(s.KarmaLog, models.KarmaLog{
		ID: s.id(), UserID: userID, Amount: delta, Reason: reason, EventID: eventID, CreatedAt: s.now(),
	})
	return nil
}

func (s *Store) FindRecent(_ context.Context, key store.NotificationKey, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == key.RecipientID && n.Kind == key.Kind && n.ActorID == key.ActorID &&
			n.TargetType == string(key.Target.Type) && n.TargetID == key.Target.ID &&
			!n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Insert(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) List(_ context.Context, userID uint, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *Store) Delete(_ context.Context, userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) UnreadCount(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, x := range s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

// Notifications returns a copy of every stored notification, oldest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}
