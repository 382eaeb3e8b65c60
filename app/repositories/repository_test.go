package repositories

import (
	"bytes"
	"context"
	"testing"
	"time"

	"inkpress/app/logger"
	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := Open(dir, logger.Nop())
	require.NoError(t, err)
	post := newPost("Durable", time.Now())
	require.NoError(t, repo.Posts.Create(ctx, post))
	for i := 0; i < 3; i++ {
		_, err := repo.Posts.IncrementViews(ctx, post.ID)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Close())

	repo, err = Open(dir, logger.Nop())
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Durable", got.Title)
	assert.Equal(t, int64(3), got.Views)
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	src := newTestRepository(t)

	post := newPost("Backed up", time.Now())
	require.NoError(t, src.Posts.Create(ctx, post))
	comment := newComment(post.ID, "kept", time.Now())
	require.NoError(t, src.Comments.Create(ctx, comment))
	for i := 0; i < 2; i++ {
		_, err := src.Posts.IncrementShares(ctx, post.ID)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	_, err := src.Backup(&buf)
	require.NoError(t, err)

	dst := newTestRepository(t)
	require.NoError(t, dst.Restore(&buf))

	got, err := dst.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{comment.ID}, got.Comments)
	assert.Equal(t, int64(2), got.Shares)

	comments, err := dst.Comments.ListByPost(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	// the sequence survives, new posts sort after restored ones
	next := newPost("After restore", time.Now())
	require.NoError(t, dst.Posts.Create(ctx, next))
	assert.Greater(t, next.Seq, got.Seq)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Posts.Create(ctx, newPost("Gone", time.Now())))
	require.NoError(t, repo.Clear())

	posts, err := repo.Posts.List(ctx, PostQuery{})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Now()

	post := newPost("Drifted", now)
	require.NoError(t, repo.Posts.Create(ctx, post))
	c1 := newComment(post.ID, "one", now)
	require.NoError(t, repo.Comments.Create(ctx, c1))
	c2 := newComment(post.ID, "two", now)
	require.NoError(t, repo.Comments.Create(ctx, c2))

	// corrupt the cached list: drop c1, add a dangling id
	_, err := repo.Posts.Update(ctx, post.ID, func(p *models.Post) error {
		p.Comments = []string{c2.ID, "ghost"}
		return nil
	})
	require.NoError(t, err)

	// an orphan left behind by an older, non-atomic writer
	orphan := newComment("deleted-post", "lost", now)
	orphan.ID = "orphan"
	err = repo.DB().Update(func(txn *badger.Txn) error {
		if err := setEntity(txn, commentKey(orphan.ID), orphan); err != nil {
			return err
		}
		return txn.Set(postCommentKey(orphan.PostID, orphan.ID), nil)
	})
	require.NoError(t, err)

	// a view that landed after its post was deleted
	err = repo.DB().Update(func(txn *badger.Txn) error {
		return txn.Set(viewsKey("deleted-post"), encodeUint64(1))
	})
	require.NoError(t, err)

	report, err := repo.Reconcile(ctx, false)
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, post.ID, report.Drifts[0].PostID)
	assert.Equal(t, []string{c1.ID}, report.Drifts[0].Missing)
	assert.Equal(t, []string{"ghost"}, report.Drifts[0].Stale)
	assert.Equal(t, []Orphan{{CommentID: "orphan", PostID: "deleted-post"}}, report.Orphans)
	assert.Equal(t, []string{ViewCounterPrefix + "deleted-post"}, report.StaleCounters)

	// a dry run changes nothing
	got, err := repo.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID, "ghost"}, got.Comments)

	report, err = repo.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.False(t, report.Clean())

	got, err = repo.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c2.ID}, got.Comments)
	_, err = repo.Comments.GetByID(ctx, "orphan")
	assert.ErrorIs(t, err, ErrNotFound)

	report, err = repo.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}
