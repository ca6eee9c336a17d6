package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teemow/inboxcal/internal/preferences"
)

// LoadPreferences returns the user's stored preferences, or nil if none were
// stored. Defaults are applied by preferences.Resolver, not here.
func (s *Store) LoadPreferences(ctx context.Context, userID int64) (*preferences.Preferences, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences for user %d: %w", userID, err)
	}

	var p preferences.Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("stored preferences for user %d are corrupt: %w", userID, err)
	}
	return &p, nil
}

// SetPreferences stores the user's preferences, replacing any previous value.
func (s *Store) SetPreferences(ctx context.Context, userID int64, p preferences.Preferences) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data), s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to store preferences for user %d: %w", userID, err)
	}
	return nil
}
