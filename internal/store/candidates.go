package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/logging"
)

// Candidate is a stored calendar candidate.
type Candidate struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	EmailID   int64             `json:"email_id"`
	DedupKey  string            `json:"dedup_key"`
	Payload   candidate.Payload `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

const candidateColumns = `id, user_id, email_id, dedup_key, payload, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var (
		c                Candidate
		raw              string
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.EmailID, &c.DedupKey, &raw, &created, &updated); err != nil {
		return nil, err
	}
	p, err := candidate.ParsePayload([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("candidate %d has a corrupt payload: %w", c.ID, err)
	}
	c.Payload = p
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	return &c, nil
}

// AddCandidate stores a candidate for an email the user owns. A candidate
// with the same dedup key on the same email is not inserted twice; the
// existing row is returned with inserted set to false.
func (s *Store) AddCandidate(ctx context.Context, userID, emailID int64, p candidate.Payload) (c *Candidate, inserted bool, err error) {
	if _, err := s.GetEmail(ctx, userID, emailID); err != nil {
		return nil, false, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode candidate payload: %w", err)
	}
	key := candidate.DedupKey(p)
	now := s.timestamp()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_candidates (user_id, email_id, dedup_key, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, email_id, dedup_key) DO NOTHING`,
		userID, emailID, key, string(data), now, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert candidate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert candidate: %w", err)
	}
	inserted = affected > 0

	c, err = scanCandidate(s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM calendar_candidates
		 WHERE user_id = ? AND email_id = ? AND dedup_key = ?`, userID, emailID, key))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load candidate after insert: %w", err)
	}

	result := instrumentation.CandidateInserted
	if !inserted {
		result = instrumentation.CandidateDuplicate
	}
	s.metrics.RecordCandidateStored(ctx, result)
	s.logger.Debug("candidate stored",
		logging.UserID(userID), logging.CandidateID(c.ID), logging.Status(result))

	return c, inserted, nil
}

// GetCandidate returns the candidate if it exists and belongs to the user.
func (s *Store) GetCandidate(ctx context.Context, userID, candidateID int64) (*Candidate, error) {
	c, err := scanCandidate(s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM calendar_candidates WHERE id = ? AND user_id = ?`,
		candidateID, userID))
	if err != nil {
		return nil, notFound(err, "calendar candidate", candidateID)
	}
	return c, nil
}

// ListCandidates returns the candidates of an email in insertion order.
func (s *Store) ListCandidates(ctx context.Context, userID, emailID int64) ([]Candidate, error) {
	if _, err := s.GetEmail(ctx, userID, emailID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM calendar_candidates
		 WHERE user_id = ? AND email_id = ? ORDER BY id`, userID, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return out, nil
}

// UpdateCandidatePayload replaces the stored payload. The last writer wins.
func (s *Store) UpdateCandidatePayload(ctx context.Context, userID, candidateID int64, p candidate.Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode candidate payload: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE calendar_candidates SET payload = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(data), s.timestamp(), candidateID, userID)
	if err != nil {
		return fmt.Errorf("failed to update candidate %d: %w", candidateID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update candidate %d: %w", candidateID, err)
	}
	if affected == 0 {
		return fmt.Errorf("calendar candidate %d: %w", candidateID, ErrNotFound)
	}
	return nil
}
