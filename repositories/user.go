//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"textnest/domain"
	"textnest/errors"
)

const userKeyPrefix = "user:"

type IUserRepository interface {
	CreateUser(username, passwordHash string) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	ListUsernames() ([]string, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// diskUser is the stored shape of a user record.
type diskUser struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

// CreateUser persists a new account. The duplicate check and the write happen
// in the same transaction, so two concurrent signups for one username cannot
// both succeed.
func (r *UserRepository) CreateUser(username, passwordHash string) (domain.User, error) {
	user := diskUser{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal user: %w", err)
	}

	key := []byte(userKeyPrefix + username)
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUsernameTaken
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return domain.User{}, err
	}

	return toUser(user), nil
}

func (r *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var stored diskUser

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + username))
		if err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrUserNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return domain.User{}, err
	}

	return toUser(stored), nil
}

// ListUsernames scans user keys only; values are never fetched.
func (r *UserRepository) ListUsernames() ([]string, error) {
	var usernames []string

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			usernames = append(usernames, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})

	return usernames, err
}

func toUser(stored diskUser) domain.User {
	return domain.User{
		Username:     stored.Username,
		PasswordHash: stored.PasswordHash,
		CreatedAt:    time.Unix(stored.CreatedAt, 0).UTC(),
	}
}
