package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atinyakov/CragLog/internal/models"
	"github.com/atinyakov/CragLog/internal/storage"
)

// CreateUser inserts u, assigning an ID and creation time when unset.
// A taken username yields storage.ErrConflict.
func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.timestamp(u.CreatedAt)

	_, err := s.exec(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, toMillis(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", s.classify(err, storage.ErrNotFound))
	}
	return nil
}

// GetUser fetches a user by ID.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

// GetUserByUsername fetches a user by login name.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (s *SQLStore) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	var (
		u       models.User
		created int64
	)
	err := s.queryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", s.classify(err, storage.ErrNotFound))
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

// UpdateUserPassword replaces the stored password hash.
func (s *SQLStore) UpdateUserPassword(ctx context.Context, id string, hash []byte) error {
	res, err := s.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", s.classify(err, storage.ErrNotFound))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
