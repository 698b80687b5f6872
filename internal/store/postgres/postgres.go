// Package postgres implements store.Store over PostgreSQL via pgx's
// database/sql driver, for production-scale deployments.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shazoom/internal/fingerprint"
	"shazoom/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fingerprints (
	token       BIGINT NOT NULL,
	anchor_time DOUBLE PRECISION NOT NULL,
	track_id    BIGINT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_token ON fingerprints (token);
CREATE INDEX IF NOT EXISTS idx_fingerprints_track_id ON fingerprints (track_id);
`

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, verifies the connection, and ensures the schema
// exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

var _ store.Store = (*Store)(nil)

func (s *Store) AddTrack(ctx context.Context, name string, fps []fingerprint.Fingerprint) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	var trackID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tracks (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name).Scan(&trackID)
	if err != nil {
		return 0, fmt.Errorf("postgres: upsert track: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fingerprints (token, anchor_time, track_id) VALUES ($1, $2, $3)`)
	if err != nil {
		return 0, fmt.Errorf("postgres: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, fp := range fps {
		if _, err := stmt.ExecContext(ctx, fp.Token.Pack(), fp.AnchorTime, trackID); err != nil {
			return 0, fmt.Errorf("postgres: insert fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return uint64(len(fps)), nil
}

func (s *Store) Lookup(ctx context.Context, token fingerprint.HashToken) ([]store.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name, f.anchor_time FROM fingerprints f
		 JOIN tracks t ON t.id = f.track_id
		 WHERE f.token = $1`, token.Pack())
	if err != nil {
		return nil, fmt.Errorf("postgres: lookup: %w", err)
	}
	defer rows.Close()

	var out []store.Posting
	for rows.Next() {
		var p store.Posting
		if err := rows.Scan(&p.TrackName, &p.AnchorTime); err != nil {
			return nil, fmt.Errorf("postgres: scan posting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTrack(ctx context.Context, name string) (bool, uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	var trackID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM tracks WHERE name = $1`, name).Scan(&trackID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("postgres: find track: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM fingerprints WHERE track_id = $1`, trackID)
	if err != nil {
		return false, 0, fmt.Errorf("postgres: delete fingerprints: %w", err)
	}
	deleted, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = $1`, trackID); err != nil {
		return false, 0, fmt.Errorf("postgres: delete track: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return true, uint64(deleted), nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE fingerprints, tracks RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

func (s *Store) TrackCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: track count: %w", err)
	}
	return n, nil
}

func (s *Store) PostingCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fingerprints`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: posting count: %w", err)
	}
	return n, nil
}

func (s *Store) ListTracks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tracks ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tracks: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan track name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
