// Package store defines the persistence contracts used by the services and
// their gorm/postgres implementation.
package store

import (
	"context"
	"time"

	"agora/internal/apperr"
	"agora/internal/models"
	"agora/internal/voting"
)

var (
	ErrNotFound       = apperr.New(apperr.CodeNotFound, "content not found")
	ErrUserNotFound   = apperr.New(apperr.CodeNotFound, "user not found")
	ErrParentNotFound = apperr.New(apperr.CodeValidation, "parent comment does not belong to this post")
	ErrNoCommunity    = apperr.New(apperr.CodeValidation, "community does not exist")
	// ErrConflict means another writer changed the item between read and
	// write. Callers retry the whole transition.
	ErrConflict = apperr.New(apperr.CodeConflict, "content changed concurrently")
)

// Content is a store-neutral snapshot of a post or a comment.
type Content struct {
	Type        voting.ContentType
	ID          uint
	AuthorID    uint
	PostID      uint  // the post itself, or the post a comment belongs to
	ParentID    *uint // parent comment, comments only
	CommunityID uint
	Title       string
	URL         string
	Body        string
	Tally       voting.Tally
	CreatedAt   time.Time
}

func (c Content) Ref() voting.ContentRef { return voting.ContentRef{Type: c.Type, ID: c.ID} }
func (c Content) Author() uint           { return c.AuthorID }

// TransitionFunc decides the actor's next vote from the vote they hold.
// Returning an error aborts the update with nothing written.
type TransitionFunc func(prior voting.VoteValue) (voting.Transition, error)

// VoteOutcome is the committed result of one vote transition.
type VoteOutcome struct {
	Content    Content
	Transition voting.Transition
}

// ContentStore owns the vote member sets and cached tallies. UpdateVotes
// applies fn and the tally recomputation as one atomic unit, or returns
// ErrConflict when a concurrent writer won.
type ContentStore interface {
	Get(ctx context.Context, ref voting.ContentRef) (Content, error)
	UpdateVotes(ctx context.Context, ref voting.ContentRef, actorID uint, fn TransitionFunc) (VoteOutcome, error)
	VoteOf(ctx context.Context, ref voting.ContentRef, userID uint) (voting.VoteValue, error)
	VotesOf(ctx context.Context, t voting.ContentType, ids []uint, userID uint) (map[uint]voting.VoteValue, error)
}

// ThreadStore covers the content lifecycle around the votes.
type ThreadStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, postID uint) ([]Content, error)
	DeletePost(ctx context.Context, id uint) error
	DeleteComment(ctx context.Context, id uint) error
	ListCommunities(ctx context.Context) ([]models.Community, error)
}

// UserStore reads users and owns the karma counter.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
	// AdjustKarma applies delta once per eventID. Replays of an applied
	// event are no-ops.
	AdjustKarma(ctx context.Context, userID uint, delta int, reason, eventID string) error
}

// NotificationKey is the de-duplication identity of a notification.
type NotificationKey struct {
	RecipientID uint
	Kind        models.NotificationKind
	ActorID     uint
	Target      voting.ContentRef
}

// NotificationStore is the notification sink plus the inbox operations.
type NotificationStore interface {
	FindRecent(ctx context.Context, key NotificationKey, since time.Time) (bool, error)
	Insert(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

// PostContent converts a post row to a snapshot.
func PostContent(p models.Post) Content {
	return Content{
		Type:        voting.ContentPost,
		ID:          p.ID,
		AuthorID:    p.UserID,
		PostID:      p.ID,
		CommunityID: p.CommunityID,
		Title:       p.Title,
		URL:         p.URL,
		Body:        p.Body,
		Tally:       voting.Tally{Upvotes: p.Upvotes, Downvotes: p.Downvotes, Score: p.Score},
		CreatedAt:   p.CreatedAt,
	}
}

// CommentContent converts a comment row to a snapshot.
func CommentContent(c models.Comment) Content {
	return Content{
		Type:      voting.ContentComment,
		ID:        c.ID,
		AuthorID:  c.UserID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Body:      c.Body,
		Tally:     voting.Tally{Upvotes: c.Upvotes, Downvotes: c.Downvotes, Score: c.Score},
		CreatedAt: c.CreatedAt,
	}
}
