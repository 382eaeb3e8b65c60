package repositories

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Counter keys hold merge deltas added without reading the post, so
	// concurrent increments never conflict.
	CounterKeyPrefix   = "ctr:"
	ViewCounterPrefix  = CounterKeyPrefix + "views:"
	ShareCounterPrefix = CounterKeyPrefix + "shares:"
)

// mergeInterval is how often pending deltas of a counter are folded together.
const mergeInterval = 5 * time.Second

func viewsKey(postID string) []byte  { return []byte(ViewCounterPrefix + postID) }
func sharesKey(postID string) []byte { return []byte(ShareCounterPrefix + postID) }

func encodeUint64(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// addUint64 is the merge function of every counter.
func addUint64(existing, delta []byte) []byte {
	return encodeUint64(decodeUint64(existing) + decodeUint64(delta))
}

// counters hands out one merge operator per counter key.
type counters struct {
	db     *badger.DB
	mu     sync.Mutex
	ops    map[string]*badger.MergeOperator
	closed bool
}

func newCounters(db *badger.DB) *counters {
	return &counters{db: db, ops: make(map[string]*badger.MergeOperator)}
}

// add records a delta of n on key.
func (c *counters) add(ctx context.Context, key []byte, n uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return badger.ErrDBClosed
	}
	op, ok := c.ops[string(key)]
	if !ok {
		op = c.db.GetMergeOperator(key, addUint64, mergeInterval)
		c.ops[string(key)] = op
	}
	c.mu.Unlock()
	return op.Add(encodeUint64(n))
}

// forget stops the background merging of keys whose records are gone.
func (c *counters) forget(keys ...[]byte) {
	c.mu.Lock()
	var stop []*badger.MergeOperator
	for _, key := range keys {
		if op, ok := c.ops[string(key)]; ok {
			stop = append(stop, op)
			delete(c.ops, string(key))
		}
	}
	c.mu.Unlock()
	for _, op := range stop {
		op.Stop()
	}
}

// close stops every merge operator. It must run before the database closes.
func (c *counters) close() {
	c.mu.Lock()
	c.closed = true
	ops := c.ops
	c.ops = make(map[string]*badger.MergeOperator)
	c.mu.Unlock()
	for _, op := range ops {
		op.Stop()
	}
}

// readCounter sums the versions of key visible to txn. A version written by a
// merge pass already carries the sum of everything before it.
func readCounter(txn *badger.Txn, key []byte) (uint64, error) {
	opts := badger.DefaultIteratorOptions
	opts.AllVersions = true
	it := txn.NewKeyIterator(key, opts)
	defer it.Close()

	var total uint64
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if item.IsDeletedOrExpired() {
			break
		}
		err := item.Value(func(val []byte) error {
			total += decodeUint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
		if item.DiscardEarlierVersions() {
			break
		}
	}
	return total, nil
}
