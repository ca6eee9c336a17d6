package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/inboxcal/internal/logging"
)

// DefaultGoogleAccount is used for users without a linked account name.
const DefaultGoogleAccount = "default"

// User is an account holder.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	GoogleAccount string    `json:"google_account"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateUser inserts a user. googleAccount names the stored OAuth token used
// for the user's calendar and may be empty.
func (s *Store) CreateUser(ctx context.Context, email, googleAccount string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("user email cannot be empty")
	}

	u := &User{Email: email, GoogleAccount: googleAccount, CreatedAt: fromUnix(s.timestamp())}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, google_account, created_at) VALUES (?, ?, ?)`,
		u.Email, u.GoogleAccount, toUnix(u.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	s.logger.Info("user created", logging.UserID(u.ID), logging.UserHash(u.Email))
	return u, nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, userID int64) (*User, error) {
	var (
		u       User
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, google_account, created_at FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Email, &u.GoogleAccount, &created)
	if err != nil {
		return nil, notFound(err, "user", userID)
	}
	u.CreatedAt = fromUnix(created)
	return &u, nil
}

// AccountForUser returns the Google account name whose token serves the
// user's calendar.
func (s *Store) AccountForUser(ctx context.Context, userID int64) (string, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.GoogleAccount == "" {
		return DefaultGoogleAccount, nil
	}
	return u.GoogleAccount, nil
}
