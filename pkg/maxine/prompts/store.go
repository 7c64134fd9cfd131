// Package prompts stores each user's custom system prompt for ask.
package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maxinebot/maxine/pkg/maxine/database"
)

// ErrNotFound is returned when a user has no stored prompt.
var ErrNotFound = errors.New("prompts: no custom prompt set")

// Record is one user's stored prompt.
type Record struct {
	UserID    string
	Prompt    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store reads and writes user_system_prompts.
type Store struct {
	backend *database.Backend
}

// NewStore returns a Store over a migrated backend.
func NewStore(backend *database.Backend) *Store {
	return &Store{backend: backend}
}

// Get returns the user's prompt or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	row := s.backend.DB.QueryRowContext(ctx, s.backend.Rebind(
		`SELECT user_id, prompt, created_at, updated_at FROM user_system_prompts WHERE user_id = ?`), userID)

	var rec Record
	if err := row.Scan(&rec.UserID, &rec.Prompt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("prompts: get %s: %w", userID, err)
	}
	return &rec, nil
}

// Upsert stores prompt for the user in one statement. created_at is kept on
// update; updated_at is refreshed.
func (s *Store) Upsert(ctx context.Context, userID, prompt string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("prompts: empty user id")
	}
	_, err := s.backend.DB.ExecContext(ctx, s.backend.Rebind(`
		INSERT INTO user_system_prompts (user_id, prompt, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			prompt = excluded.prompt,
			updated_at = CURRENT_TIMESTAMP`), userID, prompt)
	if err != nil {
		return fmt.Errorf("prompts: upsert %s: %w", userID, err)
	}
	return nil
}

// Delete removes the user's prompt. It reports whether a row existed.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.backend.DB.ExecContext(ctx, s.backend.Rebind(
		`DELETE FROM user_system_prompts WHERE user_id = ?`), userID)
	if err != nil {
		return false, fmt.Errorf("prompts: delete %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("prompts: delete %s: %w", userID, err)
	}
	return n > 0, nil
}
