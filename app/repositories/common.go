package repositories

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix    = "post:"
	CommentKeyPrefix = "comment:"
	UserKeyPrefix    = "user:"

	// Index prefixes. A post-comment entry exists for every comment and is
	// the authoritative post to comment relation.
	PostCommentIndexPrefix = "idx:post-comments:"
	UserEmailIndexPrefix   = "idx:user-email:"

	// Sequence keys for creation order
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("write conflict")
	ErrDuplicate = errors.New("duplicate record")
)

// maxTxnAttempts bounds how often a conflicting transaction is replayed.
const maxTxnAttempts = 100

func postKey(id string) []byte    { return []byte(PostKeyPrefix + id) }
func commentKey(id string) []byte { return []byte(CommentKeyPrefix + id) }
func userKey(id string) []byte    { return []byte(UserKeyPrefix + id) }

func postCommentPrefix(postID string) []byte {
	return []byte(PostCommentIndexPrefix + postID + ":")
}

func postCommentKey(postID, commentID string) []byte {
	return []byte(PostCommentIndexPrefix + postID + ":" + commentID)
}

func userEmailKey(email string) []byte {
	return []byte(UserEmailIndexPrefix + email)
}

// getNextID gets the next available sequence number for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %s", seqKey)
			}
			id = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	// Store new ID
	idBytes := binary.BigEndian.AppendUint64(nil, id)
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, err
	}

	return int(id), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}

// getEntity loads and decodes the value at key.
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// setEntity encodes entity and stores it at key.
func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// collectKeys returns copies of all keys below prefix.
func collectKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// update runs fn in a read-write transaction. Badger aborts a commit when a
// key read by fn was written concurrently; the transaction is then replayed
// against the new state, which makes every read-modify-write in fn a
// compare-and-write on the records it touched. fn must not have side effects
// outside the transaction.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt == maxTxnAttempts {
			return ErrConflict
		}
		time.Sleep(time.Duration(rand.IntN(100*attempt)+1) * time.Microsecond)
	}
}

// view runs fn in a read-only transaction.
func view(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.View(fn)
}
