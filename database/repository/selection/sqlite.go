package selectionRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meramarket/services/integrations"
)

const createSelections = `
CREATE TABLE IF NOT EXISTS provider_selections (
	category   TEXT PRIMARY KEY,
	provider   TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps selections in a local SQLite file so they survive
// restarts without Redis.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the selections table if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, createSelections); err != nil {
		return nil, fmt.Errorf("create provider_selections: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, category integrations.Category) (string, error) {
	var provider string
	err := s.db.QueryRowContext(ctx,
		`SELECT provider FROM provider_selections WHERE category = ?`, string(category),
	).Scan(&provider)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s selection: %w", category, err)
	}
	return provider, nil
}

func (s *SQLiteStore) Set(ctx context.Context, category integrations.Category, provider string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_selections (category, provider, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			provider = excluded.provider,
			updated_at = excluded.updated_at`,
		string(category), provider, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write %s selection: %w", category, err)
	}
	return nil
}
