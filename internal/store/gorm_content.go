package store

import (
	"context"
	"errors"

	"agora/internal/models"
	"agora/internal/voting"

	"gorm.io/gorm"
)

// GormStore implements every store interface on one gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

type versioned struct {
	Content
	version int
}

func modelFor(t voting.ContentType) any {
	if t == voting.ContentComment {
		return &models.Comment{}
	}
	return &models.Post{}
}

func loadContent(tx *gorm.DB, ref voting.ContentRef) (versioned, error) {
	switch ref.Type {
	case voting.ContentPost:
		var p models.Post
		if err := tx.Take(&p, ref.ID).Error; err != nil {
			return versioned{}, err
		}
		return versioned{Content: PostContent(p), version: p.Version}, nil
	case voting.ContentComment:
		var c models.Comment
		if err := tx.Take(&c, ref.ID).Error; err != nil {
			return versioned{}, err
		}
		return versioned{Content: CommentContent(c), version: c.Version}, nil
	}
	return versioned{}, voting.ErrInvalidContentType
}

func (s *GormStore) Get(ctx context.Context, ref voting.ContentRef) (Content, error) {
	v, err := loadContent(s.db.WithContext(ctx), ref)
	if err != nil {
		return Content{}, classify(err, "load content")
	}
	return v.Content, nil
}

// UpdateVotes reads the item version and the actor's vote row, applies fn,
// recounts both sets and writes the tally only if the version is unchanged.
// Everything happens in one transaction, so a cancelled request leaves the
// item either untouched or fully updated.
func (s *GormStore) UpdateVotes(ctx context.Context, ref voting.ContentRef, actorID uint, fn TransitionFunc) (VoteOutcome, error) {
	var out VoteOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := loadContent(tx, ref)
		if err != nil {
			return err
		}

		var vote models.Vote
		prior := voting.VoteNone
		err = tx.Where("target_type = ? AND target_id = ? AND user_id = ?", ref.Type, ref.ID, actorID).
			Take(&vote).Error
		switch {
		case err == nil:
			prior = voting.VoteValue(vote.Value)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		tr, err := fn(prior)
		if err != nil {
			return err
		}

		switch {
		case tr.Next == prior:
		case tr.Next == voting.VoteNone:
			err = tx.Delete(&vote).Error
		case prior == voting.VoteNone:
			err = tx.Create(&models.Vote{
				UserID:     actorID,
				TargetType: string(ref.Type),
				TargetID:   ref.ID,
				Value:      int(tr.Next),
			}).Error
		default:
			err = tx.Model(&vote).Update("value", int(tr.Next)).Error
		}
		if err != nil {
			return err
		}

		tally, err := countVotes(tx, ref)
		if err != nil {
			return err
		}

		res := tx.Model(modelFor(ref.Type)).
			Where("id = ? AND version = ?", ref.ID, item.version).
			UpdateColumns(map[string]any{
				"upvotes":   tally.Upvotes,
				"downvotes": tally.Downvotes,
				"score":     tally.Score,
				"version":   gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		item.Tally = tally
		out = VoteOutcome{Content: item.Content, Transition: tr}
		return nil
	})
	if err != nil {
		return VoteOutcome{}, classify(err, "update votes")
	}
	return out, nil
}

func countVotes(tx *gorm.DB, ref voting.ContentRef) (voting.Tally, error) {
	var row struct {
		Upvotes   int
		Downvotes int
	}
	err := tx.Model(&models.Vote{}).
		Select("COALESCE(SUM(CASE WHEN value > 0 THEN 1 ELSE 0 END), 0) AS upvotes, "+
			"COALESCE(SUM(CASE WHEN value < 0 THEN 1 ELSE 0 END), 0) AS downvotes").
		Where("target_type = ? AND target_id = ?", ref.Type, ref.ID).
		Scan(&row).Error
	if err != nil {
		return voting.Tally{}, err
	}
	return voting.NewTally(row.Upvotes, row.Downvotes), nil
}

func (s *GormStore) VoteOf(ctx context.Context, ref voting.ContentRef, userID uint) (voting.VoteValue, error) {
	if userID == 0 {
		return voting.VoteNone, nil
	}
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND user_id = ?", ref.Type, ref.ID, userID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return voting.VoteNone, nil
	}
	if err != nil {
		return voting.VoteNone, classify(err, "load vote")
	}
	return voting.VoteValue(vote.Value), nil
}

func (s *GormStore) VotesOf(ctx context.Context, t voting.ContentType, ids []uint, userID uint) (map[uint]voting.VoteValue, error) {
	out := make(map[uint]voting.VoteValue, len(ids))
	if userID == 0 || len(ids) == 0 {
		return out, nil
	}
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ? AND user_id = ?", t, ids, userID).
		Find(&votes).Error
	if err != nil {
		return nil, classify(err, "load votes")
	}
	for _, v := range votes {
		out[v.TargetID] = voting.VoteValue(v.Value)
	}
	return out, nil
}

var (
	_ ContentStore      = (*GormStore)(nil)
	_ ThreadStore       = (*GormStore)(nil)
	_ UserStore         = (*GormStore)(nil)
	_ NotificationStore = (*GormStore)(nil)
)
