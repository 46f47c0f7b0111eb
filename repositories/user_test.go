package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"textnest/errors"
)

func TestUserRepository_CreateUser(t *testing.T) {
	t.Run("should persist and return the new account", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(newTestDB(t))

		// When creating a fresh account
		created, err := repo.CreateUser("alice", "argon2-hash")

		// Then it is readable back with the same credentials
		req.NoError(err)
		req.Equal("alice", created.Username)
		req.False(created.CreatedAt.IsZero())

		fetched, err := repo.GetUserByUsername("alice")
		req.NoError(err)
		req.Equal("alice", fetched.Username)
		req.Equal("argon2-hash", fetched.PasswordHash)
	})

	t.Run("should refuse a username that already exists", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(newTestDB(t))

		_, err := repo.CreateUser("alice", "hash-one")
		req.NoError(err)

		// When signing up again with the same username
		_, err = repo.CreateUser("alice", "hash-two")

		// Then the second signup loses and the first hash survives
		req.ErrorIs(err, errors.ErrUsernameTaken)

		fetched, err := repo.GetUserByUsername("alice")
		req.NoError(err)
		req.Equal("hash-one", fetched.PasswordHash)
	})
}

func TestUserRepository_GetUserByUsername(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.GetUserByUsername("ghost")

	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_ListUsernames(t *testing.T) {
	t.Run("should return every registered username", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(newTestDB(t))

		for _, username := range []string{"carol", "alice", "bob"} {
			_, err := repo.CreateUser(username, "hash")
			req.NoError(err)
		}

		usernames, err := repo.ListUsernames()

		req.NoError(err)
		// Key order is lexicographic
		req.Equal([]string{"alice", "bob", "carol"}, usernames)
	})

	t.Run("should return nothing on an empty store", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(newTestDB(t))

		usernames, err := repo.ListUsernames()

		req.NoError(err)
		req.Empty(usernames)
	})
}
