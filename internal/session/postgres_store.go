package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PostgresStore persists session records in a relational table. It is the
// alternative to RedisStore for deployments that already run Postgres; the
// sessions table is created by the migrations under ./migrations.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresStore creates a SQL-backed Store implementation.
func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStore{db: db, log: log}
}

// Get retrieves the session record for the key or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, key string) (*Record, error) {
	const query = `
		SELECT record
		FROM sessions
		WHERE key = $1
	`

	var data []byte
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to fetch session record", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("select session: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.log.Error("failed to decode session record", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &record, nil
}

// Set upserts the session record for the key.
func (s *PostgresStore) Set(ctx context.Context, key string, record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	const query = `
		INSERT INTO sessions (key, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, data, record.UpdatedAt); err != nil {
		s.log.Error("failed to save session record", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Delete removes the session record for the key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM sessions WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		s.log.Error("failed to delete session record", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
