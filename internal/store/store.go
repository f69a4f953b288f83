package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type Store struct {
	pool db
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func newWithDB(conn db) *Store {
	return &Store{pool: conn}
}

func (s *Store) Close() {
	s.pool.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversation_analytics (
	id                       uuid PRIMARY KEY,
	thread_id                text NOT NULL,
	model                    text NOT NULL,
	extracted_at             timestamptz NOT NULL DEFAULT now(),
	request_type             text NOT NULL,
	resolution_status        text NOT NULL,
	user_sentiment           text NOT NULL,
	satisfaction_score       smallint NOT NULL,
	quality_score            smallint NOT NULL,
	first_contact_resolution boolean NOT NULL,
	automation_success       boolean NOT NULL,
	escalated                boolean NOT NULL,
	bot_failure_occurred     boolean NOT NULL,
	needs_attention          boolean NOT NULL,
	record                   jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS conversation_analytics_thread_idx
	ON conversation_analytics (thread_id, extracted_at DESC);
CREATE INDEX IF NOT EXISTS conversation_analytics_extracted_idx
	ON conversation_analytics (extracted_at);

CREATE TABLE IF NOT EXISTS analytics_keywords (
	analytics_id uuid NOT NULL REFERENCES conversation_analytics (id) ON DELETE CASCADE,
	keyword      text NOT NULL,
	PRIMARY KEY (analytics_id, keyword)
);`

// EnsureSchema creates the analytics tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
