// Package service provides the business logic of the climbing log:
// authentication, the catalog of areas, routes and ascents, cascade
// deletes and derived statistics.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 6
)

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// CreateUser stores a new user. A taken username yields
	// storage.ErrConflict.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUser fetches a user by ID.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserByUsername fetches a user by login name.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateUserPassword replaces the stored password hash.
	UpdateUserPassword(ctx context.Context, id string, hash []byte) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID, username string) (string, error)
}

// AuthService registers users, checks their passwords and issues tokens.
type AuthService struct {
	// repo performs the data-layer operations.
	repo   UserRepository
	tokens TokenIssuer
	cost   int
}

// NewAuthService constructs an AuthService hashing passwords with the
// given bcrypt cost. A cost of zero selects bcrypt.DefaultCost.
func NewAuthService(repo UserRepository, tokens TokenIssuer, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, tokens: tokens, cost: cost}
}

// Register creates a user and returns an access token for it.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Username: username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return "", err
	}
	return s.tokens.GenerateToken(u.ID, u.Username)
}

// Login checks a username and password and returns an access token.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.GenerateToken(u.ID, u.Username)
}

// UpdatePassword replaces the password of userID after checking the
// current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLen {
		return fmt.Errorf("password shorter than %d characters: %w", minPasswordLen, ErrInvalidInput)
	}
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdateUserPassword(ctx, userID, hash)
}

func checkCredentials(username, password string) error {
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("username must be %d to %d characters: %w", minUsernameLen, maxUsernameLen, ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password shorter than %d characters: %w", minPasswordLen, ErrInvalidInput)
	}
	return nil
}
