package services

import (
	"context"
	"strings"
	"time"

	"agora/internal/apperr"
	"agora/internal/models"
	"agora/internal/store"
	"agora/internal/voting"

	"go.uber.org/zap"
)

var ErrNotAuthor = apperr.New(apperr.CodeForbidden, "only the author can do that")

type CreatePostInput struct {
	AuthorID    uint   `json:"-" validate:"required"`
	CommunityID uint   `json:"communityId"`
	Title       string `json:"title" validate:"required,max=300"`
	URL         string `json:"url" validate:"omitempty,url,max=2048"`
	Body        string `json:"body" validate:"max=40000"`
}

type CreateCommentInput struct {
	AuthorID uint   `json:"-" validate:"required"`
	PostID   uint   `json:"-" validate:"required"`
	ParentID *uint  `json:"parentId" validate:"omitempty,gt=0"`
	Body     string `json:"body" validate:"required,max=10000"`
}

// ContentService owns the post and comment lifecycle around the votes.
type ContentService struct {
	content   store.ContentStore
	threads   store.ThreadStore
	notifier  *Notifier
	projector *Projector
	runner    Runner
	log       *zap.Logger
}

func NewContentService(content store.ContentStore, threads store.ThreadStore, notifier *Notifier, projector *Projector, runner Runner) *ContentService {
	if runner == nil {
		runner = NewAsyncRunner(5*time.Second, zap.L())
	}
	return &ContentService{
		content:   content,
		threads:   threads,
		notifier:  notifier,
		projector: projector,
		runner:    runner,
		log:       zap.L(),
	}
}

func (s *ContentService) CreatePost(ctx context.Context, in CreatePostInput) (ContentView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	if err := validateInput(in); err != nil {
		return ContentView{}, err
	}
	p := models.Post{
		UserID:      in.AuthorID,
		CommunityID: in.CommunityID,
		Title:       in.Title,
		URL:         in.URL,
		Body:        in.Body,
	}
	if p.CommunityID == 0 {
		p.CommunityID = 1
	}
	if err := s.threads.CreatePost(ctx, &p); err != nil {
		return ContentView{}, err
	}
	return s.projector.View(store.PostContent(p), voting.VoteNone), nil
}

func (s *ContentService) GetPost(ctx context.Context, id, viewerID uint) (ContentView, error) {
	c, err := s.content.Get(ctx, voting.ContentRef{Type: voting.ContentPost, ID: id})
	if err != nil {
		return ContentView{}, err
	}
	return s.projector.Project(ctx, c, viewerID)
}

func (s *ContentService) DeletePost(ctx context.Context, id, actorID uint) error {
	if err := s.authorOnly(ctx, voting.ContentRef{Type: voting.ContentPost, ID: id}, actorID); err != nil {
		return err
	}
	return s.threads.DeletePost(ctx, id)
}

// CreateComment stores the comment and notifies the parent comment's
// author, or the post author for a top-level comment.
func (s *ContentService) CreateComment(ctx context.Context, in CreateCommentInput) (ContentView, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := validateInput(in); err != nil {
		return ContentView{}, err
	}
	post, err := s.content.Get(ctx, voting.ContentRef{Type: voting.ContentPost, ID: in.PostID})
	if err != nil {
		return ContentView{}, err
	}

	c := models.Comment{PostID: in.PostID, UserID: in.AuthorID, ParentID: in.ParentID, Body: in.Body}
	if err := s.threads.CreateComment(ctx, &c); err != nil {
		return ContentView{}, err
	}

	notice := Notice{
		Key: store.NotificationKey{
			RecipientID: post.AuthorID,
			Kind:        models.NotificationCommentPost,
			ActorID:     in.AuthorID,
			Target:      c.Ref(),
		},
		PostID:  post.ID,
		Excerpt: c.Body,
	}
	if in.ParentID != nil {
		parent, err := s.content.Get(ctx, voting.ContentRef{Type: voting.ContentComment, ID: *in.ParentID})
		if err != nil {
			s.log.Warn("parent vanished after reply", zap.Uint("comment_id", c.ID), zap.Error(err))
		} else {
			notice.Key.RecipientID = parent.AuthorID
			notice.Key.Kind = models.NotificationReplyComment
		}
	}
	if s.notifier != nil {
		s.runner.Run(ctx, "notify", func(ctx context.Context) error {
			_, err := s.notifier.NotifyIfNew(ctx, notice)
			return err
		})
	}

	return s.projector.View(store.CommentContent(c), voting.VoteNone), nil
}

func (s *ContentService) ListComments(ctx context.Context, postID, viewerID uint) ([]ContentView, error) {
	if _, err := s.content.Get(ctx, voting.ContentRef{Type: voting.ContentPost, ID: postID}); err != nil {
		return nil, err
	}
	items, err := s.threads.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.projector.ProjectAll(ctx, voting.ContentComment, items, viewerID)
}

// DeleteComment removes the comment and every reply below it.
func (s *ContentService) DeleteComment(ctx context.Context, id, actorID uint) error {
	if err := s.authorOnly(ctx, voting.ContentRef{Type: voting.ContentComment, ID: id}, actorID); err != nil {
		return err
	}
	return s.threads.DeleteComment(ctx, id)
}

func (s *ContentService) Communities(ctx context.Context) ([]models.Community, error) {
	return s.threads.ListCommunities(ctx)
}

func (s *ContentService) authorOnly(ctx context.Context, ref voting.ContentRef, actorID uint) error {
	c, err := s.content.Get(ctx, ref)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID {
		return ErrNotAuthor
	}
	return nil
}
