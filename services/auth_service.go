package services

import (
	stderrors "errors"
	"flash-chat/auth"
	"flash-chat/errors"
	"flash-chat/repositories"
	"fmt"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(email, password string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         auth.TokenIssuer
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(repo repositories.IUserRepository, issuer auth.TokenIssuer) IAuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(email, password string) (Token, error) {
	// Business rules first, before any expensive cryptographic operation.
	if err := auth.ValidateRegister(auth.Credentials{Email: email, Password: password}); err != nil {
		return "", err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashedPassword)
	if err != nil {
		return "", err
	}

	token, err := s.issuer.GenerateToken(userID, email, []string{"user"})
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	if err := auth.ValidateLogin(auth.Credentials{Email: email, Password: password}); err != nil {
		return "", errors.ErrInvalidCredentials
	}

	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		if !stderrors.Is(err, errors.ErrUserNotFound) {
			return "", fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
		}
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
