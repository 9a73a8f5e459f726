package store

import (
	"context"
	"errors"

	"agora/internal/models"
	"agora/internal/voting"

	"gorm.io/gorm"
)

func (s *GormStore) CreatePost(ctx context.Context, p *models.Post) error {
	p.Upvotes, p.Downvotes, p.Score, p.Version = 0, 0, 0, 0
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isForeignKey(err) {
			return ErrNoCommunity
		}
		return classify(err, "create post")
	}
	return nil
}

// CreateComment checks that the post exists and that a parent comment, if
// any, belongs to the same post.
func (s *GormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	c.Upvotes, c.Downvotes, c.Score, c.Version = 0, 0, 0, 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").Take(&post, c.PostID).Error; err != nil {
			return err
		}
		if c.ParentID != nil {
			var parent models.Comment
			err := tx.Select("id").Where("id = ? AND post_id = ?", *c.ParentID, c.PostID).Take(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParentNotFound
			}
			if err != nil {
				return err
			}
		}
		return tx.Create(c).Error
	})
	return classify(err, "create comment")
}

func (s *GormStore) ListComments(ctx context.Context, postID uint) ([]Content, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, classify(err, "list comments")
	}
	out := make([]Content, len(comments))
	for i, c := range comments {
		out[i] = CommentContent(c)
	}
	return out, nil
}

// DeletePost removes the post, its comments and every vote on them. Vote
// rows are polymorphic and have no foreign key, so they go explicitly.
func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("target_type = ? AND target_id IN ?", voting.ContentComment, commentIDs).
				Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", voting.ContentPost, id).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return classify(err, "delete post")
}

// DeleteComment removes the comment together with its whole reply subtree.
func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.Raw(`WITH RECURSIVE subtree AS (
				SELECT id FROM comments WHERE id = ?
				UNION ALL
				SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
			) SELECT id FROM subtree`, id).Scan(&ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNotFound
		}
		if err := tx.Where("target_type = ? AND target_id IN ?", voting.ContentComment, ids).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	return classify(err, "delete comment")
}

func (s *GormStore) ListCommunities(ctx context.Context) ([]models.Community, error) {
	var communities []models.Community
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&communities).Error; err != nil {
		return nil, classify(err, "list communities")
	}
	return communities, nil
}
