//go:build integration_pg

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/services"
	"agora/internal/store"
	"agora/internal/voting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "agora",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/agora?sslmode=disable", host, port.Port())
}

func TestGormStore_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	gs := store.NewGormStore(gdb)

	seq := 0
	newUser := func(t *testing.T) models.User {
		seq++
		u := models.User{Username: fmt.Sprintf("user%d", seq), Email: fmt.Sprintf("user%d@agora.test", seq)}
		require.NoError(t, gdb.WithContext(ctx).Create(&u).Error)
		return u
	}

	newPost := func(t *testing.T, author uint) models.Post {
		p := models.Post{UserID: author, Title: "integration"}
		require.NoError(t, gs.CreatePost(ctx, &p))
		return p
	}
	vote := func(actor uint, dir voting.Direction, target store.Content) store.TransitionFunc {
		return func(prior voting.VoteValue) (voting.Transition, error) {
			return voting.Decide(target, actor, prior, dir)
		}
	}

	t.Run("communities are seeded", func(t *testing.T) {
		cs, err := gs.ListCommunities(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, cs)
		assert.Equal(t, "general", cs[0].Name)
	})

	t.Run("update votes toggles and recounts", func(t *testing.T) {
		author := newUser(t)
		voter := newUser(t)
		post := newPost(t, author.ID)
		target, err := gs.Get(ctx, post.Ref())
		require.NoError(t, err)

		out, err := gs.UpdateVotes(ctx, post.Ref(), voter.ID, vote(voter.ID, voting.Up, target))
		require.NoError(t, err)
		assert.Equal(t, voting.Tally{Upvotes: 1, Score: 1}, out.Content.Tally)

		out, err = gs.UpdateVotes(ctx, post.Ref(), voter.ID, vote(voter.ID, voting.Down, target))
		require.NoError(t, err)
		assert.Equal(t, voting.Tally{Downvotes: 1, Score: -1}, out.Content.Tally)
		assert.Equal(t, -2, out.Transition.KarmaDelta())

		out, err = gs.UpdateVotes(ctx, post.Ref(), voter.ID, vote(voter.ID, voting.Down, target))
		require.NoError(t, err)
		assert.Equal(t, voting.Tally{}, out.Content.Tally)

		v, err := gs.VoteOf(ctx, post.Ref(), voter.ID)
		require.NoError(t, err)
		assert.Equal(t, voting.VoteNone, v)
	})

	t.Run("self vote aborts without writing", func(t *testing.T) {
		author := newUser(t)
		post := newPost(t, author.ID)
		target, err := gs.Get(ctx, post.Ref())
		require.NoError(t, err)

		_, err = gs.UpdateVotes(ctx, post.Ref(), author.ID, vote(author.ID, voting.Up, target))
		require.ErrorIs(t, err, voting.ErrSelfVote)

		after, err := gs.Get(ctx, post.Ref())
		require.NoError(t, err)
		assert.Equal(t, voting.Tally{}, after.Tally)
	})

	t.Run("concurrent voters all land through retries", func(t *testing.T) {
		author := newUser(t)
		post := newPost(t, author.ID)
		voters := make([]models.User, 24)
		for i := range voters {
			voters[i] = newUser(t)
		}

		svc := services.NewVoteService(gs, services.NewDirectKarma(gs), services.NewNotifier(gs, gs),
			services.WithRunner(services.InlineRunner{}),
			services.WithMaxAttempts(100),
			services.WithRetryBackoff(time.Millisecond),
			services.WithVoteLogger(zap.NewNop()),
		)

		var wg sync.WaitGroup
		for i, u := range voters {
			dir := "up"
			if i%3 == 0 {
				dir = "down"
			}
			wg.Add(1)
			go func(id uint, dir string) {
				defer wg.Done()
				_, err := svc.CastVote(ctx, services.CastVoteInput{
					ActorID: id, ContentType: "post", ContentID: post.ID, Direction: dir,
				})
				assert.NoError(t, err)
			}(u.ID, dir)
		}
		wg.Wait()

		got, err := gs.Get(ctx, post.Ref())
		require.NoError(t, err)
		assert.Equal(t, voting.NewTally(16, 8), got.Tally)

		reloaded, err := gs.GetUser(ctx, author.ID)
		require.NoError(t, err)
		assert.Equal(t, 16-8, reloaded.Karma)
	})

	t.Run("adjust karma applies each event once", func(t *testing.T) {
		u := newUser(t)
		require.NoError(t, gs.AdjustKarma(ctx, u.ID, 3, "post_upvoted", "evt-int-1"))
		require.NoError(t, gs.AdjustKarma(ctx, u.ID, 3, "post_upvoted", "evt-int-1"))
		require.NoError(t, gs.AdjustKarma(ctx, u.ID, -1, "post_downvoted", "evt-int-2"))

		got, err := gs.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Karma)

		err = gs.AdjustKarma(ctx, 999999, 1, "post_upvoted", "evt-int-3")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("comment subtree delete removes replies and votes", func(t *testing.T) {
		author := newUser(t)
		voter := newUser(t)
		post := newPost(t, author.ID)

		root := models.Comment{PostID: post.ID, UserID: author.ID, Body: "root"}
		require.NoError(t, gs.CreateComment(ctx, &root))
		reply := models.Comment{PostID: post.ID, UserID: voter.ID, Body: "reply", ParentID: &root.ID}
		require.NoError(t, gs.CreateComment(ctx, &reply))
		sibling := models.Comment{PostID: post.ID, UserID: voter.ID, Body: "sibling"}
		require.NoError(t, gs.CreateComment(ctx, &sibling))

		target, err := gs.Get(ctx, reply.Ref())
		require.NoError(t, err)
		_, err = gs.UpdateVotes(ctx, reply.Ref(), author.ID, vote(author.ID, voting.Up, target))
		require.NoError(t, err)

		other := newPost(t, author.ID)
		stray := models.Comment{PostID: other.ID, UserID: voter.ID, Body: "stray", ParentID: &root.ID}
		assert.ErrorIs(t, gs.CreateComment(ctx, &stray), store.ErrParentNotFound)

		require.NoError(t, gs.DeleteComment(ctx, root.ID))
		left, err := gs.ListComments(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, sibling.ID, left[0].ID)

		var votes int64
		require.NoError(t, gdb.Model(&models.Vote{}).
			Where("target_type = ? AND target_id = ?", voting.ContentComment, reply.ID).Count(&votes).Error)
		assert.Zero(t, votes)

		assert.ErrorIs(t, gs.DeleteComment(ctx, root.ID), store.ErrNotFound)
		require.NoError(t, gs.DeletePost(ctx, post.ID))
		_, err = gs.Get(ctx, post.Ref())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("find recent respects the window", func(t *testing.T) {
		recipient := newUser(t)
		actor := newUser(t)
		key := store.NotificationKey{
			RecipientID: recipient.ID,
			Kind:        models.NotificationPostUpvote,
			ActorID:     actor.ID,
			Target:      voting.ContentRef{Type: voting.ContentPost, ID: 42},
		}
		n := &models.Notification{
			UserID: recipient.ID, Kind: key.Kind, ActorID: actor.ID,
			TargetType: string(key.Target.Type), TargetID: key.Target.ID, PostID: 42,
			CreatedAt: time.Now().Add(-2 * time.Hour),
		}
		require.NoError(t, gs.Insert(ctx, n))

		found, err := gs.FindRecent(ctx, key, time.Now().Add(-3*time.Hour))
		require.NoError(t, err)
		assert.True(t, found)
		found, err = gs.FindRecent(ctx, key, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, found)

		unread, err := gs.UnreadCount(ctx, recipient.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, unread)
		assert.ErrorIs(t, gs.MarkRead(ctx, actor.ID, n.ID), store.ErrNotFound)
		require.NoError(t, gs.MarkRead(ctx, recipient.ID, n.ID))
		require.NoError(t, gs.Delete(ctx, recipient.ID, n.ID))
	})
}
