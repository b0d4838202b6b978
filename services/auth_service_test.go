package services_test

import (
	"flash-chat/auth"
	"flash-chat/errors"
	"flash-chat/mocks"
	"flash-chat/repositories"
	"flash-chat/services"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var issuer = auth.NewTokenIssuer("services-test-secret-0123456789", 24*time.Hour)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := services.NewAuthService(mockRepo, issuer)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		password := "ComplexPass123!"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(email, gomock.Not(password)).
			Return("user-uuid", nil).
			Times(1)

		token, err := svc.Register(email, password)

		req.NoError(err)
		claims, err := issuer.ValidateToken(token.String())
		req.NoError(err)
		req.Equal("user-uuid", claims.UserID)
		req.Equal(email, claims.Email)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register("test@example.com", "simple")

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)
		email := "duplicate@example.com"

		mockRepo.EXPECT().
			CreateUser(email, gomock.Any()).
			Return("", errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(email, "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := services.NewAuthService(mockRepo, issuer)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"
		password := "Secret123456!"

		hashedPassword, err := auth.HashPassword(password)
		req.NoError(err)
		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(repositories.User{
				ID:           "uuid-123",
				Email:        email,
				PasswordHash: hashedPassword,
				Roles:        []string{"user"},
			}, nil).
			Times(1)

		token, err := svc.Login(email, password)
		req.NoError(err)

		claims, err := issuer.ValidateToken(string(token))
		req.NoError(err)
		req.Equal("uuid-123", claims.UserID)
		req.Equal(email, claims.Email)
	})

	t.Run("should return invalid credentials when password matches nothing", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"

		hashedPassword, err := auth.HashPassword("CorrectPassword123!")
		req.NoError(err)
		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(repositories.User{Email: email, PasswordHash: hashedPassword}, nil).
			Times(1)

		_, err = svc.Login(email, "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("unknown@example.com").
			Return(repositories.User{}, errors.ErrUserNotFound).
			Times(1)

		_, err := svc.Login("unknown@example.com", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should not reach the repository with a malformed email", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any()).Times(0)

		_, err := svc.Login("not-an-email", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should report storage failures as unavailable", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			GetUserByEmail("user@example.com").
			Return(repositories.User{}, fmt.Errorf("disk on fire")).
			Times(1)

		_, err := svc.Login("user@example.com", "anyPassword")

		req.ErrorIs(err, errors.ErrUnavailable)
	})
}
