package services

import (
	"context"
	"errors"
	"testing"

	"inkpress/app/apperr"
	"inkpress/app/auth"
	"inkpress/app/logger"
	"inkpress/app/policy"
	"inkpress/app/repositories"
	"inkpress/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCommentServiceStorageFaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post, err := env.posts.CreatePost(ctx, validInput(), nil, alice)
	require.NoError(t, err)

	faulty := mock.NewCommentRepository(env.repo.Comments)
	comments := NewCommentService(faulty, policy.OwnerPolicy{}, logger.Nop())

	t.Run("busy record", func(t *testing.T) {
		faulty.Fail("Create", repositories.ErrConflict)
		defer faulty.Reset()

		_, err := comments.CreateComment(ctx, CommentInput{Content: "hi", Author: "Bob", PostID: post.ID}, bob)
		assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
		assert.Equal(t, "The record is busy, please retry", apperr.Public(err))
	})

	t.Run("storage failure is internal", func(t *testing.T) {
		faulty.Fail("ListByPost", errors.New("badger: corrupted table"))
		defer faulty.Reset()

		_, err := comments.ListPostComments(ctx, post.ID)
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
		assert.NotContains(t, apperr.Public(err), "badger")
	})

	t.Run("failed delete keeps the comment", func(t *testing.T) {
		comment, err := comments.CreateComment(ctx, CommentInput{Content: "stays", Author: "Bob", PostID: post.ID}, bob)
		require.NoError(t, err)

		faulty.Fail("Delete", errors.New("disk full"))
		_, err = comments.DeleteComment(ctx, comment.ID, bob)
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
		faulty.Reset()

		got, err := env.repo.Posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Contains(t, got.Comments, comment.ID)
	})
}

func TestAccountServiceStorageFaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	faulty := mock.NewUserRepository(env.repo.Users)
	provider, err := auth.NewProvider(auth.Config{Secret: "secret", BcryptCost: bcrypt.MinCost}, faulty)
	require.NoError(t, err)
	accounts := NewAccountService(provider, faulty, logger.Nop())

	faulty.Fail("Create", errors.New("disk full"))
	_, err = accounts.Register(ctx, "Alice", "alice@example.com", "pw")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	faulty.Reset()

	_, err = accounts.Register(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)

	faulty.Fail("GetByEmail", errors.New("disk full"))
	_, err = accounts.Login(ctx, "alice@example.com", "pw")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, "Internal Server Error", apperr.Public(err))
}
