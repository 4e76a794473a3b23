package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"msgstudio/internal/export"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS msbt_files (
	hash        TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	entry_count INTEGER NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS msbt_entries (
	file_hash TEXT NOT NULL REFERENCES msbt_files(hash) ON DELETE CASCADE,
	label     TEXT NOT NULL,
	position  INTEGER NOT NULL,
	text      TEXT NOT NULL,
	markup    TEXT NOT NULL,
	style     BIGINT NOT NULL,
	PRIMARY KEY (file_hash, label)
);`

// PostgresStore writes documents to PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to url and verifies the connection.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure postgres schema: %w", err)
	}
	return nil
}

// Write replaces the stored entries of doc in a single batch.
func (s *PostgresStore) Write(ctx context.Context, doc export.Document) error {
	batch := &pgx.Batch{}

	batch.Queue(`
		INSERT INTO msbt_files (hash, path, entry_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO UPDATE SET path = EXCLUDED.path, entry_count = EXCLUDED.entry_count, ingested_at = now()
	`, doc.Hash, doc.File, len(doc.Entries))
	batch.Queue(`DELETE FROM msbt_entries WHERE file_hash = $1`, doc.Hash)

	// A repeated label keeps its first position and takes the last text.
	for i, e := range doc.Entries {
		batch.Queue(`
			INSERT INTO msbt_entries (file_hash, label, position, text, markup, style)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (file_hash, label) DO UPDATE SET text = EXCLUDED.text, markup = EXCLUDED.markup, style = EXCLUDED.style
		`, doc.Hash, e.Label, i, e.Text, doc.Markup[i], doc.Style(i))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("store %s: %w", doc.File, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", doc.File, err)
	}

	log.Debug().Str("file", doc.File).Int("entries", len(doc.Entries)).Msg("Stored document in PostgreSQL")
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
