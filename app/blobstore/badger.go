package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	badgerRefPrefix  = "blob/"
	badgerKeyPrefix  = "blob:"
	badgerMetaPrefix = "blobmeta:"
)

// Badger stores blobs next to the documents in the same database.
type Badger struct {
	db *badger.DB
}

func NewBadger(db *badger.DB) *Badger {
	return &Badger{db: db}
}

type badgerMeta struct {
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

func (b *Badger) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	meta, err := json.Marshal(badgerMeta{ContentType: contentType, Size: len(data)})
	if err != nil {
		return "", err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerKeyPrefix+id), data); err != nil {
			return err
		}
		return txn.Set([]byte(badgerMetaPrefix+id), meta)
	})
	if err != nil {
		return "", err
	}
	return badgerRefPrefix + id, nil
}

func (b *Badger) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, ok := strings.CutPrefix(ref, badgerRefPrefix)
	if !ok || id == "" {
		return ErrInvalidRef
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(badgerKeyPrefix + id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		if err := txn.Delete([]byte(badgerKeyPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(badgerMetaPrefix + id))
	})
}

// Get returns the data and content type stored under ref.
func (b *Badger) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	id, ok := strings.CutPrefix(ref, badgerRefPrefix)
	if !ok || id == "" {
		return nil, "", ErrInvalidRef
	}
	var data []byte
	var meta badgerMeta
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte(badgerMetaPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, "", err
	}
	return data, meta.ContentType, nil
}
