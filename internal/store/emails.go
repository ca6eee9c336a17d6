package store

import (
	"context"
	"fmt"
	"time"
)

// Email is the parent message of calendar candidates.
type Email struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	GmailID    string    `json:"gmail_id"`
	ThreadID   string    `json:"thread_id,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Sender     string    `json:"sender,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// CreateEmail inserts an email for e.UserID and returns it with its ID set.
func (s *Store) CreateEmail(ctx context.Context, e Email) (*Email, error) {
	if e.GmailID == "" {
		return nil, fmt.Errorf("gmail id cannot be empty")
	}
	if _, err := s.GetUser(ctx, e.UserID); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO emails (user_id, gmail_id, thread_id, subject, sender, received_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.GmailID, e.ThreadID, e.Subject, e.Sender, toUnix(e.ReceivedAt), s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to create email: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read email id: %w", err)
	}
	e.ReceivedAt = fromUnix(toUnix(e.ReceivedAt))
	return &e, nil
}

// GetEmail returns the email if it exists and belongs to the user.
func (s *Store) GetEmail(ctx context.Context, userID, emailID int64) (*Email, error) {
	var (
		e        Email
		received int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, gmail_id, thread_id, subject, sender, received_at
		 FROM emails WHERE id = ? AND user_id = ?`, emailID, userID,
	).Scan(&e.ID, &e.UserID, &e.GmailID, &e.ThreadID, &e.Subject, &e.Sender, &received)
	if err != nil {
		return nil, notFound(err, "email", emailID)
	}
	e.ReceivedAt = fromUnix(received)
	return &e, nil
}
