//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"

	"textnest/auth"
	"textnest/errors"
	"textnest/repositories"
)

type IAuthService interface {
	Signup(username, password string) (Token, error)
	Signin(username, password string) (Token, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	issuer auth.TokenIssuer
}

func NewAuthService(users repositories.IUserRepository, issuer auth.TokenIssuer) IAuthService {
	return &AuthService{users: users, issuer: issuer}
}

func (s *AuthService) Signup(username, password string) (Token, error) {
	// Validate business rules before any expensive cryptographic work
	valReq := auth.SignupRequest{
		Username: username,
		Password: password,
	}
	if err := auth.ValidateSignup(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash here so the repository never sees a plain password
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	if _, err := s.users.CreateUser(username, hashedPassword); err != nil {
		return "", err // Propagates ErrUsernameTaken when the name is held
	}

	token, err := s.issuer.Generate(username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Signin(username, password string) (Token, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent username enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
