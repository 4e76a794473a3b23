package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"msgstudio/internal/export"
	"msgstudio/internal/msbt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS msbt_files (
	hash        TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	entry_count INTEGER NOT NULL,
	ingested_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS msbt_entries (
	file_hash TEXT NOT NULL REFERENCES msbt_files(hash) ON DELETE CASCADE,
	label     TEXT NOT NULL,
	position  INTEGER NOT NULL,
	text      TEXT NOT NULL,
	markup    TEXT NOT NULL,
	style     INTEGER NOT NULL,
	PRIMARY KEY (file_hash, label)
);`

// SQLiteStore writes documents to a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures its schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	log.Info().Str("path", path).Msg("Opened SQLite store")

	return &SQLiteStore{db: db}, nil
}

// Write replaces the stored entries of doc in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, doc export.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO msbt_files (hash, path, entry_count) VALUES (?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET path = excluded.path, entry_count = excluded.entry_count, ingested_at = CURRENT_TIMESTAMP
	`, doc.Hash, doc.File, len(doc.Entries))
	if err != nil {
		return fmt.Errorf("store file %s: %w", doc.File, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM msbt_entries WHERE file_hash = ?`, doc.Hash); err != nil {
		return fmt.Errorf("clear entries of %s: %w", doc.File, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO msbt_entries (file_hash, label, position, text, markup, style)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_hash, label) DO UPDATE SET text = excluded.text, markup = excluded.markup, style = excluded.style
	`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	// A repeated label keeps its first position and takes the last text.
	for i, e := range doc.Entries {
		if _, err := stmt.ExecContext(ctx, doc.Hash, e.Label, i, e.Text, doc.Markup[i], doc.Style(i)); err != nil {
			return fmt.Errorf("store entry %s: %w", e.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", doc.File, err)
	}

	log.Debug().Str("file", doc.File).Int("entries", len(doc.Entries)).Msg("Stored document in SQLite")
	return nil
}

// Entries returns the stored entries for the file with the given hash, in file order.
func (s *SQLiteStore) Entries(ctx context.Context, hash string) ([]msbt.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, text FROM msbt_entries WHERE file_hash = ? ORDER BY position`, hash)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []msbt.Entry
	for rows.Next() {
		var e msbt.Entry
		if err := rows.Scan(&e.Label, &e.Text); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
