// Package voting holds the vote state machine shared by every store and
// content type: directions, per-user vote values, toggle transitions and
// the in-memory member-set representation of a content item's votes.
package voting

import (
	"sort"
	"strings"
)

// Direction is the polarity a user asks for.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts "up"/"upvote" and "down"/"downvote".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "upvote":
		return Up, nil
	case "down", "downvote":
		return Down, nil
	}
	return "", ErrInvalidDirection
}

func (d Direction) Valid() bool { return d == Up || d == Down }

// Value is the vote a user holds after a fresh vote in this direction.
func (d Direction) Value() VoteValue {
	switch d {
	case Up:
		return VoteUp
	case Down:
		return VoteDown
	}
	return VoteNone
}

// VoteValue is one user's standing on one content item. Its integer value
// is the user's contribution to the item's score.
type VoteValue int

const (
	VoteDown VoteValue = -1
	VoteNone VoteValue = 0
	VoteUp   VoteValue = 1
)

func (v VoteValue) String() string {
	switch v {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	}
	return "none"
}

// UserVote is the projected form: "up", "down" or nil for no vote.
func (v VoteValue) UserVote() *string {
	if v == VoteNone {
		return nil
	}
	s := v.String()
	return &s
}

// Transition is the before/after of one actor's vote on one item.
type Transition struct {
	Prior VoteValue
	Next  VoteValue
}

// Toggle applies the vote table: repeating the held direction retracts the
// vote, anything else moves the actor to the requested direction.
func Toggle(prior VoteValue, dir Direction) Transition {
	want := dir.Value()
	if prior == want {
		return Transition{Prior: prior, Next: VoteNone}
	}
	return Transition{Prior: prior, Next: want}
}

func (t Transition) Changed() bool { return t.Prior != t.Next }

// KarmaDelta is the change in the author's earned reputation. A switch is
// one ±2 swing, never two separate ±1 events.
func (t Transition) KarmaDelta() int { return int(t.Next) - int(t.Prior) }

// Landed reports whether the actor ended on a vote they did not hold before.
func (t Transition) Landed() bool { return t.Next != VoteNone && t.Next != t.Prior }

// Tally is the cached count state of an item.
type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
}

// NewTally derives the score from the two counts.
func NewTally(up, down int) Tally {
	return Tally{Upvotes: up, Downvotes: down, Score: up - down}
}

// VoteSets is the member-set form of an item's votes. A user id is in at
// most one of the two sets.
type VoteSets struct {
	Upvoters   map[uint]struct{}
	Downvoters map[uint]struct{}
}

func NewVoteSets() VoteSets {
	return VoteSets{Upvoters: map[uint]struct{}{}, Downvoters: map[uint]struct{}{}}
}

// Of returns the vote userID currently holds.
func (s VoteSets) Of(userID uint) VoteValue {
	if _, ok := s.Upvoters[userID]; ok {
		return VoteUp
	}
	if _, ok := s.Downvoters[userID]; ok {
		return VoteDown
	}
	return VoteNone
}

// With returns a copy of s in which userID holds v.
func (s VoteSets) With(userID uint, v VoteValue) VoteSets {
	out := s.Clone()
	delete(out.Upvoters, userID)
	delete(out.Downvoters, userID)
	switch v {
	case VoteUp:
		out.Upvoters[userID] = struct{}{}
	case VoteDown:
		out.Downvoters[userID] = struct{}{}
	}
	return out
}

func (s VoteSets) Clone() VoteSets {
	out := VoteSets{
		Upvoters:   make(map[uint]struct{}, len(s.Upvoters)),
		Downvoters: make(map[uint]struct{}, len(s.Downvoters)),
	}
	for id := range s.Upvoters {
		out.Upvoters[id] = struct{}{}
	}
	for id := range s.Downvoters {
		out.Downvoters[id] = struct{}{}
	}
	return out
}

func (s VoteSets) Tally() Tally { return NewTally(len(s.Upvoters), len(s.Downvoters)) }

// Members lists both sets in ascending id order.
func (s VoteSets) Members() (up, down []uint) {
	up = sortedIDs(s.Upvoters)
	down = sortedIDs(s.Downvoters)
	return up, down
}

func sortedIDs(m map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Decide validates one vote intent and returns the transition from the
// vote the actor currently holds. Stores call it inside their atomic
// update so the prior is never stale.
func Decide(content Votable, actorID uint, prior VoteValue, dir Direction) (Transition, error) {
	if !dir.Valid() {
		return Transition{}, ErrInvalidDirection
	}
	if actorID == 0 {
		return Transition{}, ErrMissingActor
	}
	if actorID == content.Author() {
		return Transition{}, ErrSelfVote
	}
	return Toggle(prior, dir), nil
}

// ApplyVote runs one vote intent against an item's sets. Self-votes and
// unknown directions are rejected without touching the sets.
func ApplyVote(content Votable, sets VoteSets, actorID uint, dir Direction) (VoteSets, Transition, error) {
	tr, err := Decide(content, actorID, sets.Of(actorID), dir)
	if err != nil {
		return sets, Transition{}, err
	}
	return sets.With(actorID, tr.Next), tr, nil
}
