package repositories

import (
	"context"
	"errors"
	"strings"

	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerUserRepository implements UserRepository using BadgerDB. Emails are
// unique through an index key written in the same transaction as the user.
type BadgerUserRepository struct {
	db *badger.DB
}

func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new user. It fails with ErrDuplicate when the email is taken.
func (r *BadgerUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = normalizeEmail(user.Email)
	return update(ctx, r.db, func(txn *badger.Txn) error {
		_, err := txn.Get(userEmailKey(user.Email))
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setEntity(txn, userKey(user.ID), user); err != nil {
			return err
		}
		return txn.Set(userEmailKey(user.Email), []byte(user.ID))
	})
}

func (r *BadgerUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return getEntity(txn, userKey(id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *BadgerUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(normalizeEmail(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getEntity(txn, userKey(string(id)), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
