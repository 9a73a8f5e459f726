package voting

import (
	"fmt"
	"strings"

	"agora/internal/apperr"
)

var (
	ErrSelfVote           = apperr.New(apperr.CodeValidation, "cannot vote on your own content")
	ErrInvalidDirection   = apperr.New(apperr.CodeValidation, "direction must be upvote or downvote")
	ErrInvalidContentType = apperr.New(apperr.CodeValidation, "content type must be post or comment")
	ErrMissingActor       = apperr.New(apperr.CodeValidation, "actor is required")
	ErrInvalidContentID   = apperr.New(apperr.CodeValidation, "content id is invalid")
)

// ContentType distinguishes the two votable entity variants.
type ContentType string

const (
	ContentPost    ContentType = "post"
	ContentComment ContentType = "comment"
)

// ParseContentType accepts singular and plural route tokens.
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post", "posts":
		return ContentPost, nil
	case "comment", "comments":
		return ContentComment, nil
	}
	return "", ErrInvalidContentType
}

func (t ContentType) Valid() bool { return t == ContentPost || t == ContentComment }

// ContentRef identifies one votable item.
type ContentRef struct {
	Type ContentType `json:"type"`
	ID   uint        `json:"id"`
}

func (r ContentRef) String() string { return fmt.Sprintf("%s:%d", r.Type, r.ID) }

// Validate rejects refs that could never resolve to stored content.
func (r ContentRef) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidContentType
	}
	if r.ID == 0 {
		return ErrInvalidContentID
	}
	return nil
}

// Votable is implemented by every entity the toggle engine can apply a
// vote to. Posts and comments share one algorithm through it.
type Votable interface {
	Ref() ContentRef
	Author() uint
}
