package repositories

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"inkpress/app/logger"
	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
)

// Repository owns the Badger handle and the repositories built on it.
type Repository struct {
	db       *badger.DB
	dbPath   string
	Posts    *BadgerPostRepository
	Comments *BadgerCommentRepository
	Users    *BadgerUserRepository
}

// Open opens (or creates) the database at path. An empty path opens an
// in-memory database.
func Open(path string, log *logger.Logger) (*Repository, error) {
	opts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %v", path, err)
	}
	return newRepository(db, path), nil
}

func newRepository(db *badger.DB, path string) *Repository {
	return &Repository{
		db:       db,
		dbPath:   path,
		Posts:    NewBadgerPostRepository(db),
		Comments: NewBadgerCommentRepository(db),
		Users:    NewBadgerUserRepository(db),
	}
}

// DB exposes the underlying handle for stores sharing the database.
func (r *Repository) DB() *badger.DB {
	return r.db
}

func (r *Repository) Close() error {
	r.Posts.Close()
	return r.db.Close()
}

// Clear drops every key.
func (r *Repository) Clear() error {
	return r.db.DropAll()
}

// Backup writes a full backup to w and returns the version it covers.
func (r *Repository) Backup(w io.Writer) (uint64, error) {
	return r.db.Backup(w, 0)
}

// Restore loads a backup produced by Backup.
func (r *Repository) Restore(rd io.Reader) error {
	return r.db.Load(rd, 256)
}

// Drift describes a post whose derived comment list disagrees with the
// post-comments index.
type Drift struct {
	PostID string
	// Missing are indexed comments absent from the post's list.
	Missing []string
	// Stale are listed ids with no indexed comment.
	Stale []string
}

// Orphan is a comment whose post no longer exists.
type Orphan struct {
	CommentID string
	PostID    string
}

// Report is the outcome of Reconcile.
type Report struct {
	Drifts  []Drift
	Orphans []Orphan
	// StaleCounters are counter keys of posts that no longer exist, left by
	// an increment racing the post's deletion.
	StaleCounters []string
}

// Clean reports whether no inconsistency was found.
func (r Report) Clean() bool {
	return len(r.Drifts) == 0 && len(r.Orphans) == 0 && len(r.StaleCounters) == 0
}

// Reconcile compares every post's comment list with the post-comments index.
// With repair set, lists are rebuilt from the index in creation order and
// orphaned comments and stale counters are deleted.
func (r *Repository) Reconcile(ctx context.Context, repair bool) (Report, error) {
	var report Report
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(CommentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return err
			}
			_, err = txn.Get(postKey(comment.PostID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				report.Orphans = append(report.Orphans, Orphan{CommentID: comment.ID, PostID: comment.PostID})
			} else if err != nil {
				return err
			}
		}

		for _, prefix := range []string{ViewCounterPrefix, ShareCounterPrefix} {
			for _, key := range collectKeys(txn, []byte(prefix)) {
				_, err := txn.Get(postKey(string(key[len(prefix):])))
				if errors.Is(err, badger.ErrKeyNotFound) {
					report.StaleCounters = append(report.StaleCounters, string(key))
				} else if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	posts, err := r.Posts.List(ctx, PostQuery{})
	if err != nil {
		return report, err
	}
	for _, post := range posts {
		var drift *Drift
		err := update(ctx, r.db, func(txn *badger.Txn) error {
			drift = nil
			var current models.Post
			if err := getEntity(txn, postKey(post.ID), &current); err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				return err
			}
			indexed, err := indexedComments(txn, current.ID)
			if err != nil {
				return err
			}

			d := Drift{PostID: current.ID}
			ids := make([]string, 0, len(indexed))
			for _, c := range indexed {
				ids = append(ids, c.ID)
				if !slices.Contains(current.Comments, c.ID) {
					d.Missing = append(d.Missing, c.ID)
				}
			}
			for _, id := range current.Comments {
				if !slices.Contains(ids, id) {
					d.Stale = append(d.Stale, id)
				}
			}
			if len(d.Missing) == 0 && len(d.Stale) == 0 && len(ids) == len(current.Comments) {
				return nil
			}
			drift = &d
			if !repair {
				return nil
			}
			current.Comments = ids
			return setEntity(txn, postKey(current.ID), &current)
		})
		if err != nil {
			return report, err
		}
		if drift != nil {
			report.Drifts = append(report.Drifts, *drift)
		}
	}

	if repair {
		for _, key := range report.StaleCounters {
			err := update(ctx, r.db, func(txn *badger.Txn) error {
				return txn.Delete([]byte(key))
			})
			if err != nil {
				return report, err
			}
			r.Posts.counters.forget([]byte(key))
		}
		for _, orphan := range report.Orphans {
			err := update(ctx, r.db, func(txn *badger.Txn) error {
				if _, err := txn.Get(postKey(orphan.PostID)); err == nil {
					return nil
				}
				if err := txn.Delete(postCommentKey(orphan.PostID, orphan.CommentID)); err != nil {
					return err
				}
				return txn.Delete(commentKey(orphan.CommentID))
			})
			if err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// indexedComments loads the comments indexed under postID in creation order.
func indexedComments(txn *badger.Txn, postID string) ([]*models.Comment, error) {
	prefix := postCommentPrefix(postID)
	var comments []*models.Comment
	for _, key := range collectKeys(txn, prefix) {
		var comment models.Comment
		err := getEntity(txn, commentKey(string(key[len(prefix):])), &comment)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		comments = append(comments, &comment)
	}
	slices.SortFunc(comments, func(a, b *models.Comment) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return comments, nil
}

// badgerLogger routes Badger's internal logging through the application logger.
type badgerLogger struct {
	log *logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.SugaredLogger.Errorf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.SugaredLogger.Warnf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.SugaredLogger.Debugf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.SugaredLogger.Debugf(format, args...)
}
