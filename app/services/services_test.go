package services

import (
	"context"
	"errors"
	"testing"

	"inkpress/app/blobstore"
	"inkpress/app/logger"
	"inkpress/app/models"
	"inkpress/app/policy"
	"inkpress/app/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	alice = &models.Subject{ID: "alice", Name: "Alice"}
	bob   = &models.Subject{ID: "bob", Name: "Bob"}
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type testEnv struct {
	repo       *repositories.Repository
	blobs      *flakyStore
	logs       *observer.ObservedLogs
	posts      *PostService
	comments   *CommentService
	engagement *EngagementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := repositories.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))
	blobs := &flakyStore{Memory: blobstore.NewMemory()}

	return &testEnv{
		repo:       repo,
		blobs:      blobs,
		logs:       logs,
		posts:      NewPostService(repo.Posts, blobs, policy.OwnerPolicy{}, log, blobstore.DefaultMaxImageBytes),
		comments:   NewCommentService(repo.Comments, policy.OwnerPolicy{}, log),
		engagement: NewEngagementService(repo.Posts, repo.Comments),
	}
}

// flakyStore is a memory blob store whose deletes can be made to fail.
type flakyStore struct {
	*blobstore.Memory
	failDelete bool
}

var errBlobDown = errors.New("blob store unavailable")

func (s *flakyStore) Delete(ctx context.Context, ref string) error {
	if s.failDelete {
		return errBlobDown
	}
	return s.Memory.Delete(ctx, ref)
}

func validInput() PostInput {
	return PostInput{Title: "Hello", Content: "0123456789", Author: "Alice"}
}
