package services

import (
	"context"
	"errors"
	"time"

	"agora/internal/apperr"
	"agora/internal/models"
	"agora/internal/store"
	"agora/internal/voting"

	"go.uber.org/zap"
)

const (
	DefaultVoteAttempts = 5
	defaultVoteBackoff  = 5 * time.Millisecond
)

// ErrVoteContention is returned when every attempt lost the race against
// concurrent voters.
var ErrVoteContention = apperr.New(apperr.CodeUnavailable, "content is busy, try again")

// CastVoteInput is one vote request.
type CastVoteInput struct {
	ActorID     uint   `json:"actorId" validate:"required"`
	ContentType string `json:"type" validate:"required"`
	ContentID   uint   `json:"id" validate:"required"`
	Direction   string `json:"direction" validate:"required"`
}

// VoteResult reflects the committed state after the vote.
type VoteResult struct {
	Score     int     `json:"score"`
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
	UserVote  *string `json:"userVote"`
}

// VoteService runs the toggle engine against the content store and fans
// the committed transition out to karma and notifications.
type VoteService struct {
	content  store.ContentStore
	karma    KarmaSink
	notifier *Notifier
	runner   Runner
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

type VoteOption func(*VoteService)

func WithRunner(r Runner) VoteOption { return func(s *VoteService) { s.runner = r } }
func WithVoteLogger(l *zap.Logger) VoteOption {
	return func(s *VoteService) { s.log = l }
}

// WithMaxAttempts bounds conflict retries. Values below one are ignored.
func WithMaxAttempts(n int) VoteOption {
	return func(s *VoteService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithRetryBackoff(d time.Duration) VoteOption {
	return func(s *VoteService) { s.backoff = d }
}

func NewVoteService(content store.ContentStore, karma KarmaSink, notifier *Notifier, opts ...VoteOption) *VoteService {
	s := &VoteService{
		content:  content,
		karma:    karma,
		notifier: notifier,
		attempts: DefaultVoteAttempts,
		backoff:  defaultVoteBackoff,
		log:      zap.L(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = NewAsyncRunner(5*time.Second, s.log)
	}
	return s
}

// CastVote validates the intent, applies it atomically and returns the
// committed tally. Karma and notifications are handed to the runner after
// the commit and cannot fail the vote.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (VoteResult, error) {
	if err := validateInput(in); err != nil {
		return VoteResult{}, err
	}
	dir, err := voting.ParseDirection(in.Direction)
	if err != nil {
		return VoteResult{}, apperr.WithField(err, "direction")
	}
	t, err := voting.ParseContentType(in.ContentType)
	if err != nil {
		return VoteResult{}, apperr.WithField(err, "type")
	}
	ref := voting.ContentRef{Type: t, ID: in.ContentID}

	target, err := s.content.Get(ctx, ref)
	if err != nil {
		return VoteResult{}, err
	}
	if target.Author() == in.ActorID {
		return VoteResult{}, voting.ErrSelfVote
	}

	out, err := s.apply(ctx, target, in.ActorID, dir)
	if err != nil {
		return VoteResult{}, err
	}

	s.afterVote(ctx, out, in.ActorID)

	return VoteResult{
		Score:     out.Content.Tally.Score,
		Upvotes:   out.Content.Tally.Upvotes,
		Downvotes: out.Content.Tally.Downvotes,
		UserVote:  out.Transition.Next.UserVote(),
	}, nil
}

func (s *VoteService) apply(ctx context.Context, target store.Content, actorID uint, dir voting.Direction) (store.VoteOutcome, error) {
	decide := func(prior voting.VoteValue) (voting.Transition, error) {
		return voting.Decide(target, actorID, prior, dir)
	}
	ref := target.Ref()
	for attempt := 1; ; attempt++ {
		out, err := s.content.UpdateVotes(ctx, ref, actorID, decide)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return store.VoteOutcome{}, err
		}
		if attempt >= s.attempts {
			s.log.Warn("vote retries exhausted",
				zap.Stringer("content", ref), zap.Uint("actor_id", actorID), zap.Int("attempts", attempt))
			return store.VoteOutcome{}, ErrVoteContention
		}
		select {
		case <-ctx.Done():
			return store.VoteOutcome{}, apperr.Wrap(ctx.Err(), apperr.CodeUnavailable, "request cancelled")
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
}

func (s *VoteService) afterVote(ctx context.Context, out store.VoteOutcome, actorID uint) {
	tr := out.Transition
	c := out.Content

	if tr.KarmaDelta() != 0 && s.karma != nil {
		ev := NewKarmaEvent(c.AuthorID, c.Ref(), tr)
		s.runner.Run(ctx, "karma", func(ctx context.Context) error {
			if err := s.karma.Submit(ctx, ev); err != nil {
				s.log.Warn("karma update failed",
					zap.Stringer("content", c.Ref()), zap.Uint("author_id", c.AuthorID),
					zap.Int("delta", ev.Delta), zap.Error(err))
			}
			return nil
		})
	}

	if tr.Landed() && tr.Next == voting.VoteUp && s.notifier != nil {
		kind := models.NotificationPostUpvote
		excerpt := c.Title
		if c.Type == voting.ContentComment {
			kind = models.NotificationCommentUpvote
			excerpt = c.Body
		}
		notice := Notice{
			Key: store.NotificationKey{
				RecipientID: c.AuthorID,
				Kind:        kind,
				ActorID:     actorID,
				Target:      c.Ref(),
			},
			PostID:  c.PostID,
			Excerpt: excerpt,
		}
		s.runner.Run(ctx, "notify", func(ctx context.Context) error {
			_, err := s.notifier.NotifyIfNew(ctx, notice)
			return err
		})
	}
}
