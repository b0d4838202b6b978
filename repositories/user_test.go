package repositories

import (
	"flash-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	id, err := repository.CreateUser("alice@x.com", "$argon2id$hash")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUserByEmail("alice@x.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice@x.com", user.Email)
	req.Equal("$argon2id$hash", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
	req.False(user.CreatedAt.IsZero())
}

func TestUserRepository_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.CreateUser("alice@x.com", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("alice@x.com", "other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.GetUserByEmail("nobody@x.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}
