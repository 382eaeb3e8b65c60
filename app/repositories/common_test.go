package repositories

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository opens an in-memory database that is closed with the test.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func TestGetNextID(t *testing.T) {
	repo := newTestRepository(t)
	db := repo.DB()

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := 2; i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("different sequence keys", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			commentID, err := getNextID(txn, CommentSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, commentID, "Comment sequence should start from 1")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("persistence", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)

		err = db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 2, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("corrupt sequence", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte("bad:seq"), []byte("x"))
		})
		require.NoError(t, err)

		err = db.Update(func(txn *badger.Txn) error {
			_, err := getNextID(txn, "bad:seq")
			return err
		})
		assert.ErrorContains(t, err, "corrupt sequence")
	})
}

func TestEntityHelpers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		post := &models.Post{ID: "p1", Title: "Test Post", Likes: models.NewLikeSet("a")}
		err := update(ctx, repo.DB(), func(txn *badger.Txn) error {
			return setEntity(txn, postKey(post.ID), post)
		})
		require.NoError(t, err)

		var got models.Post
		err = view(ctx, repo.DB(), func(txn *badger.Txn) error {
			return getEntity(txn, postKey(post.ID), &got)
		})
		require.NoError(t, err)
		assert.Equal(t, "Test Post", got.Title)
		assert.True(t, got.Likes.Contains("a"))
	})

	t.Run("missing key", func(t *testing.T) {
		var got models.Post
		err := view(ctx, repo.DB(), func(txn *badger.Txn) error {
			return getEntity(txn, postKey("nope"), &got)
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid json", func(t *testing.T) {
		var post models.Post
		err := unmarshalEntity([]byte("{"), &post)
		assert.ErrorContains(t, err, "failed to unmarshal entity")
	})
}

func TestUpdateRetriesConflicts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	key := []byte("counter")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := update(ctx, repo.DB(), func(txn *badger.Txn) error {
				_, err := getNextID(txn, string(key))
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	err := repo.DB().Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, string(key))
		assert.Equal(t, workers+1, id)
		return err
	})
	assert.NoError(t, err)
}

func TestUpdateStopsOnContext(t *testing.T) {
	repo := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := update(ctx, repo.DB(), func(txn *badger.Txn) error {
		calls.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestUpdateReturnsCallbackError(t *testing.T) {
	repo := newTestRepository(t)
	boom := errors.New("boom")

	err := update(context.Background(), repo.DB(), func(txn *badger.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = view(context.Background(), repo.DB(), func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, badger.ErrKeyNotFound, "aborted writes must not be visible")
}

func newPost(title string, created time.Time) *models.Post {
	post := &models.Post{
		Title:    title,
		Content:  "Some content long enough",
		Author:   "Ada",
		Category: models.CategoryTechnology,
	}
	post.BeforeCreate(created)
	return post
}

func newComment(postID, content string, created time.Time) *models.Comment {
	comment := &models.Comment{PostID: postID, Author: "Bob", Content: content}
	comment.BeforeCreate(created)
	return comment
}
