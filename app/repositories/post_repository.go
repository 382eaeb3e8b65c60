package repositories

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerPostRepository implements PostRepository using BadgerDB. Views and
// shares live in counter keys next to the post record and are added to the
// stored values whenever a post is read.
type BadgerPostRepository struct {
	db       *badger.DB
	counters *counters
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db, counters: newCounters(db)}
}

// Close stops the background merging of counters.
func (r *BadgerPostRepository) Close() {
	r.counters.close()
}

// withCounters adds the counter keys of the post to its stored counts.
func withCounters(txn *badger.Txn, post *models.Post) error {
	views, err := readCounter(txn, viewsKey(post.ID))
	if err != nil {
		return err
	}
	shares, err := readCounter(txn, sharesKey(post.ID))
	if err != nil {
		return err
	}
	post.Views += int64(views)
	post.Shares += int64(shares)
	return nil
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	return update(ctx, r.db, func(txn *badger.Txn) error {
		seq, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.Seq = seq

		return setEntity(txn, postKey(post.ID), post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		if err := getEntity(txn, postKey(id), &post); err != nil {
			return err
		}
		return withCounters(txn, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List retrieves the posts matching query in the requested order. Posts that
// compare equal keep their creation order.
func (r *BadgerPostRepository) List(ctx context.Context, query PostQuery) ([]*models.Post, error) {
	var posts []*models.Post
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %v", err)
			}
			if query.Category != "" && post.Category != query.Category {
				continue
			}
			if query.OwnerID != "" && post.OwnerID != query.OwnerID {
				continue
			}
			if err := withCounters(txn, &post); err != nil {
				return err
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// keys are random ids, establish creation order first
	slices.SortFunc(posts, func(a, b *models.Post) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	compare := postComparator(query.SortBy)
	slices.SortStableFunc(posts, func(a, b *models.Post) int {
		if query.Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})

	return posts, nil
}

func postComparator(field SortField) func(a, b *models.Post) int {
	switch field {
	case SortByTitle:
		return func(a, b *models.Post) int { return strings.Compare(a.Title, b.Title) }
	case SortByAuthor:
		return func(a, b *models.Post) int { return strings.Compare(a.Author, b.Author) }
	default:
		return func(a, b *models.Post) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// Update applies mutate to the current version of the post and stores the
// result. An error from mutate aborts the write. mutate sees the stored
// counts only; counter keys are added to the returned post.
func (r *BadgerPostRepository) Update(ctx context.Context, id string, mutate func(post *models.Post) error) (*models.Post, error) {
	var post *models.Post
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		post = &models.Post{}
		if err := getEntity(txn, postKey(id), post); err != nil {
			return err
		}
		if err := mutate(post); err != nil {
			return err
		}
		post.ID = id
		return setEntity(txn, postKey(id), post)
	})
	if err != nil {
		return nil, err
	}
	// read counters outside the write so counter adds never conflict with it
	err = view(ctx, r.db, func(txn *badger.Txn) error {
		return withCounters(txn, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// IncrementViews adds one to the view counter.
func (r *BadgerPostRepository) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	return r.increment(ctx, id, viewsKey(id))
}

// IncrementShares adds one to the share counter.
func (r *BadgerPostRepository) IncrementShares(ctx context.Context, id string) (*models.Post, error) {
	return r.increment(ctx, id, sharesKey(id))
}

// increment adds one to a counter of an existing post without touching the
// post record. Concurrent increments all succeed.
func (r *BadgerPostRepository) increment(ctx context.Context, id string, key []byte) (*models.Post, error) {
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		_, err := txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := r.counters.add(ctx, key, 1); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ToggleLike flips the membership of subjectID in the post's liker set.
func (r *BadgerPostRepository) ToggleLike(ctx context.Context, id, subjectID string) (*models.Post, error) {
	return r.Update(ctx, id, func(post *models.Post) error {
		if post.Likes == nil {
			post.Likes = models.LikeSet{}
		}
		post.Likes.Toggle(subjectID)
		return nil
	})
}

// Delete deletes a post and every comment referencing it in one transaction.
func (r *BadgerPostRepository) Delete(ctx context.Context, id string, check func(post *models.Post) error) (*models.Post, error) {
	var post *models.Post
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		post = &models.Post{}
		if err := getEntity(txn, postKey(id), post); err != nil {
			return err
		}
		if check != nil {
			if err := check(post); err != nil {
				return err
			}
		}

		prefix := postCommentPrefix(id)
		for _, key := range collectKeys(txn, prefix) {
			commentID := string(key[len(prefix):])
			if err := txn.Delete(commentKey(commentID)); err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		if err := withCounters(txn, post); err != nil {
			return err
		}
		for _, key := range [][]byte{viewsKey(id), sharesKey(id)} {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete(postKey(id))
	})
	if err != nil {
		return nil, err
	}
	r.counters.forget(viewsKey(id), sharesKey(id))
	return post, nil
}
