package services

import (
	"context"
	"time"

	"agora/internal/store"
	"agora/internal/utils"
	"agora/internal/voting"
)

// ContentView is the API shape of a post or comment.
type ContentView struct {
	Type        voting.ContentType `json:"type"`
	ID          uint               `json:"id"`
	AuthorID    uint               `json:"authorId"`
	PostID      uint               `json:"postId,omitempty"`
	ParentID    *uint              `json:"parentId,omitempty"`
	CommunityID uint               `json:"communityId,omitempty"`
	Title       string             `json:"title,omitempty"`
	URL         string             `json:"url,omitempty"`
	Body        string             `json:"body"`
	BodyHTML    string             `json:"bodyHtml"`
	Upvotes     int                `json:"upvotes"`
	Downvotes   int                `json:"downvotes"`
	Score       int                `json:"score"`
	Hot         float64            `json:"hot"`
	UserVote    *string            `json:"userVote"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Projector formats content for a viewer. The viewer's vote is looked up
// at read time and never stored on the content.
type Projector struct {
	votes store.ContentStore
	rank  utils.RankConfig
	now   func() time.Time
}

func NewProjector(votes store.ContentStore) *Projector {
	return &Projector{votes: votes, rank: utils.DefaultRank, now: time.Now}
}

// View builds the projection from a content snapshot and the viewer's vote.
func (p *Projector) View(c store.Content, vote voting.VoteValue) ContentView {
	v := ContentView{
		Type:        c.Type,
		ID:          c.ID,
		AuthorID:    c.AuthorID,
		ParentID:    c.ParentID,
		CommunityID: c.CommunityID,
		Title:       c.Title,
		URL:         c.URL,
		Body:        c.Body,
		BodyHTML:    utils.RenderMarkdown(c.Body),
		Upvotes:     c.Tally.Upvotes,
		Downvotes:   c.Tally.Downvotes,
		Score:       c.Tally.Score,
		Hot:         utils.HotRank(p.rank, c.Tally.Upvotes, c.Tally.Downvotes, c.CreatedAt, p.now()),
		UserVote:    vote.UserVote(),
		CreatedAt:   c.CreatedAt,
	}
	if c.Type == voting.ContentComment {
		v.PostID = c.PostID
	}
	return v
}

// Project formats one item. viewerID 0 means anonymous.
func (p *Projector) Project(ctx context.Context, c store.Content, viewerID uint) (ContentView, error) {
	if viewerID == 0 {
		return p.View(c, voting.VoteNone), nil
	}
	vote, err := p.votes.VoteOf(ctx, c.Ref(), viewerID)
	if err != nil {
		return ContentView{}, err
	}
	return p.View(c, vote), nil
}

// ProjectAll formats items of one content type with a single vote lookup.
func (p *Projector) ProjectAll(ctx context.Context, t voting.ContentType, items []store.Content, viewerID uint) ([]ContentView, error) {
	votes := map[uint]voting.VoteValue{}
	if viewerID != 0 && len(items) > 0 {
		ids := make([]uint, len(items))
		for i, c := range items {
			ids[i] = c.ID
		}
		var err error
		if votes, err = p.votes.VotesOf(ctx, t, ids, viewerID); err != nil {
			return nil, err
		}
	}
	out := make([]ContentView, len(items))
	for i, c := range items {
		out[i] = p.View(c, votes[c.ID])
	}
	return out, nil
}
