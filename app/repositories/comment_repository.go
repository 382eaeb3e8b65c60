package repositories

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB. The
// comment record, its post-comments index entry and the parent post's comment
// list are always written in the same transaction.
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment. It fails with ErrNotFound when the parent
// post does not exist, in which case nothing is written.
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return update(ctx, r.db, func(txn *badger.Txn) error {
		var post models.Post
		if err := getEntity(txn, postKey(comment.PostID), &post); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("post %s: %w", comment.PostID, ErrNotFound)
			}
			return err
		}

		seq, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.Seq = seq

		if err := setEntity(txn, commentKey(comment.ID), comment); err != nil {
			return err
		}
		if err := txn.Set(postCommentKey(comment.PostID, comment.ID), nil); err != nil {
			return err
		}

		if err := post.AddCommentID(comment.ID); err != nil {
			return err
		}
		return setEntity(txn, postKey(post.ID), &post)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return getEntity(txn, commentKey(id), &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves the comments of a post, newest first. A post without
// comments, or one that no longer exists, yields an empty list.
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID string, approvedOnly bool) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		prefix := postCommentPrefix(postID)
		for _, key := range collectKeys(txn, prefix) {
			var comment models.Comment
			err := getEntity(txn, commentKey(string(key[len(prefix):])), &comment)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load comment: %v", err)
			}
			if approvedOnly && !comment.IsApproved {
				continue
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(comments, func(c *models.Comment) *models.Comment { return c })
	return comments, nil
}

// ListAll retrieves every comment, newest first, with its post's title.
func (r *BadgerCommentRepository) ListAll(ctx context.Context) ([]*models.CommentWithPost, error) {
	comments := []*models.CommentWithPost{}
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		titles := map[string]string{}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(CommentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %v", err)
			}

			title, ok := titles[comment.PostID]
			if !ok {
				var post models.Post
				err := getEntity(txn, postKey(comment.PostID), &post)
				if err != nil && !errors.Is(err, ErrNotFound) {
					return err
				}
				title = post.Title
				titles[comment.PostID] = title
			}

			comments = append(comments, &models.CommentWithPost{Comment: &comment, PostTitle: title})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(comments, func(c *models.CommentWithPost) *models.Comment { return c.Comment })
	return comments, nil
}

func sortNewestFirst[T any](items []T, comment func(T) *models.Comment) {
	slices.SortFunc(items, func(a, b T) int {
		ca, cb := comment(a), comment(b)
		if c := cb.CreatedAt.Compare(ca.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(cb.Seq, ca.Seq)
	})
}

// Update applies mutate to the current version of the comment and stores it.
func (r *BadgerCommentRepository) Update(ctx context.Context, id string, mutate func(comment *models.Comment) error) (*models.Comment, error) {
	var comment *models.Comment
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		comment = &models.Comment{}
		if err := getEntity(txn, commentKey(id), comment); err != nil {
			return err
		}
		postID := comment.PostID
		if err := mutate(comment); err != nil {
			return err
		}
		// the parent link is immutable
		comment.ID = id
		comment.PostID = postID
		return setEntity(txn, commentKey(id), comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ToggleLike flips the membership of subjectID in the comment's liker set.
func (r *BadgerCommentRepository) ToggleLike(ctx context.Context, id, subjectID string) (*models.Comment, error) {
	return r.Update(ctx, id, func(comment *models.Comment) error {
		if comment.Likes == nil {
			comment.Likes = models.LikeSet{}
		}
		comment.Likes.Toggle(subjectID)
		return nil
	})
}

// Delete deletes a comment and pulls its id from the parent post.
func (r *BadgerCommentRepository) Delete(ctx context.Context, id string, check func(comment *models.Comment) error) (*models.Comment, error) {
	var comment *models.Comment
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		comment = &models.Comment{}
		if err := getEntity(txn, commentKey(id), comment); err != nil {
			return err
		}
		if check != nil {
			if err := check(comment); err != nil {
				return err
			}
		}

		if err := txn.Delete(commentKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(postCommentKey(comment.PostID, id)); err != nil {
			return err
		}

		var post models.Post
		err := getEntity(txn, postKey(comment.PostID), &post)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		// a missing entry only means the cache already lacks it
		_ = post.RemoveCommentID(id)
		return setEntity(txn, postKey(post.ID), &post)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
