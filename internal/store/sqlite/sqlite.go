// Package sqlite implements store.Store over SQLite via mattn/go-sqlite3,
// a single-file backend for local development and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"shazoom/internal/fingerprint"
	"shazoom/internal/store"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS tracks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fingerprints (
	token       INTEGER NOT NULL,
	anchor_time REAL NOT NULL,
	track_id    INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_token ON fingerprints (token);
CREATE INDEX IF NOT EXISTS idx_fingerprints_track_id ON fingerprints (track_id);
`

// Store is a SQLite-backed store.Store. Writes serialize through a single
// *sql.DB connection, since SQLite permits only one writer at a time.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: one writer at a time

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

var _ store.Store = (*Store)(nil)

func (s *Store) AddTrack(ctx context.Context, name string, fps []fingerprint.Fingerprint) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var trackID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM tracks WHERE name = ?`, name).Scan(&trackID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, insErr := tx.ExecContext(ctx, `INSERT INTO tracks (name) VALUES (?)`, name)
		if insErr != nil {
			return 0, fmt.Errorf("sqlite: insert track: %w", insErr)
		}
		trackID, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("sqlite: last insert id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("sqlite: find track: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fingerprints (token, anchor_time, track_id) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, fp := range fps {
		if _, err := stmt.ExecContext(ctx, fp.Token.Pack(), fp.AnchorTime, trackID); err != nil {
			return 0, fmt.Errorf("sqlite: insert fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return uint64(len(fps)), nil
}

func (s *Store) Lookup(ctx context.Context, token fingerprint.HashToken) ([]store.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name, f.anchor_time FROM fingerprints f
		 JOIN tracks t ON t.id = f.track_id
		 WHERE f.token = ?`, token.Pack())
	if err != nil {
		return nil, fmt.Errorf("sqlite: lookup: %w", err)
	}
	defer rows.Close()

	var out []store.Posting
	for rows.Next() {
		var p store.Posting
		if err := rows.Scan(&p.TrackName, &p.AnchorTime); err != nil {
			return nil, fmt.Errorf("sqlite: scan posting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTrack(ctx context.Context, name string) (bool, uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var trackID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM tracks WHERE name = ?`, name).Scan(&trackID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: find track: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM fingerprints WHERE track_id = ?`, trackID)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: delete fingerprints: %w", err)
	}
	deleted, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, trackID); err != nil {
		return false, 0, fmt.Errorf("sqlite: delete track: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return true, uint64(deleted), nil
}

func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fingerprints`); err != nil {
		return fmt.Errorf("sqlite: clear fingerprints: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks`); err != nil {
		return fmt.Errorf("sqlite: clear tracks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *Store) TrackCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: track count: %w", err)
	}
	return n, nil
}

func (s *Store) PostingCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fingerprints`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: posting count: %w", err)
	}
	return n, nil
}

func (s *Store) ListTracks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tracks ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tracks: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan track name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
