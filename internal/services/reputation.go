package services

import (
	"context"
	"fmt"

	"agora/internal/store"
	"agora/internal/voting"

	"github.com/google/uuid"
)

// Karma reasons recorded on every KarmaLog row.
const (
	ReasonUpvoted           = "upvoted"
	ReasonDownvoted         = "downvoted"
	ReasonUpvoteRetracted   = "upvote_retracted"
	ReasonDownvoteRetracted = "downvote_retracted"
	ReasonSwitchedToUp      = "switched_to_upvote"
	ReasonSwitchedToDown    = "switched_to_downvote"
	ReasonUnknownTransition = "vote_changed"
)

// KarmaEvent is one reputation change derived from a committed vote
// transition. ID makes replays idempotent.
type KarmaEvent struct {
	ID      string            `json:"id"`
	UserID  uint              `json:"userId"`
	Delta   int               `json:"delta"`
	Reason  string            `json:"reason"`
	Content voting.ContentRef `json:"content"`
}

// NewKarmaEvent describes the effect of tr on the author of ref.
func NewKarmaEvent(authorID uint, ref voting.ContentRef, tr voting.Transition) KarmaEvent {
	return KarmaEvent{
		ID:      uuid.NewString(),
		UserID:  authorID,
		Delta:   tr.KarmaDelta(),
		Reason:  fmt.Sprintf("%s_%s", ref.Type, karmaReason(tr)),
		Content: ref,
	}
}

func karmaReason(tr voting.Transition) string {
	switch {
	case tr.Prior == voting.VoteNone && tr.Next == voting.VoteUp:
		return ReasonUpvoted
	case tr.Prior == voting.VoteNone && tr.Next == voting.VoteDown:
		return ReasonDownvoted
	case tr.Prior == voting.VoteUp && tr.Next == voting.VoteNone:
		return ReasonUpvoteRetracted
	case tr.Prior == voting.VoteDown && tr.Next == voting.VoteNone:
		return ReasonDownvoteRetracted
	case tr.Next == voting.VoteUp:
		return ReasonSwitchedToUp
	case tr.Next == voting.VoteDown:
		return ReasonSwitchedToDown
	}
	return ReasonUnknownTransition
}

// KarmaSink accepts reputation changes. Implementations may apply them
// immediately or hand them to a queue.
type KarmaSink interface {
	Submit(ctx context.Context, ev KarmaEvent) error
}

// DirectKarma applies events straight to the user store.
type DirectKarma struct {
	users store.UserStore
}

func NewDirectKarma(users store.UserStore) *DirectKarma {
	return &DirectKarma{users: users}
}

func (k *DirectKarma) Submit(ctx context.Context, ev KarmaEvent) error {
	if ev.Delta == 0 {
		return nil
	}
	return k.users.AdjustKarma(ctx, ev.UserID, ev.Delta, ev.Reason, ev.ID)
}
