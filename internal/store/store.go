// Package store defines the fingerprint store contract: a persistent
// multiset of postings indexed by hash token, with point lookup, track
// management, and bulk enumeration. Concrete backends live in the memory,
// sqlite, and postgres subpackages.
package store

import (
	"context"
	"time"

	"shazoom/internal/fingerprint"
)

// Track is an ingested reference recording.
type Track struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Posting is one occurrence of a hash token in the store, associated with
// the track it came from and the anchor time it was recorded at.
type Posting struct {
	TrackName  string
	AnchorTime float64
}

// Store is the polymorphic capability set every backend implements:
// add, point lookup, delete, clear, and enumerate. Many concurrent
// readers are always safe; writers serialize with respect to each other
// and to readers enough to keep each call atomic.
type Store interface {
	// AddTrack inserts fps as postings under name, creating the track row
	// if it doesn't already exist (re-ingesting an existing name appends
	// postings rather than erroring). The whole batch is atomic: on any
	// failure, no postings from this call become visible. Returns the
	// number of postings inserted.
	AddTrack(ctx context.Context, name string, fps []fingerprint.Fingerprint) (uint64, error)

	// Lookup returns every posting recorded under token, across all
	// tracks.
	Lookup(ctx context.Context, token fingerprint.HashToken) ([]Posting, error)

	// DeleteTrack removes a track and all of its postings atomically.
	// found is false if no track had that name; deleted is the number of
	// postings removed.
	DeleteTrack(ctx context.Context, name string) (found bool, deleted uint64, err error)

	// Clear removes every track and posting.
	Clear(ctx context.Context) error

	// TrackCount returns the number of tracks currently stored.
	TrackCount(ctx context.Context) (uint64, error)

	// PostingCount returns the number of postings currently stored.
	PostingCount(ctx context.Context) (uint64, error)

	// ListTracks returns track names in ascending order.
	ListTracks(ctx context.Context) ([]string, error)

	// Close releases any resources (connections, file handles) held by
	// the backend.
	Close() error
}
