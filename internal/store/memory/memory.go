// Package memory implements an in-process store backend over plain Go
// maps, guarded by a single mutex. It exists for tests and small
// experiments; it is never the production backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shazoom/internal/fingerprint"
	"shazoom/internal/store"
)

type trackRecord struct {
	id        int64
	createdAt time.Time
}

// Store is a sync.Mutex-guarded, map-backed store.Store.
type Store struct {
	mu       sync.Mutex
	tracks   map[string]trackRecord
	postings map[int64][]store.Posting
	nextID   int64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		tracks:   make(map[string]trackRecord),
		postings: make(map[int64][]store.Posting),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) AddTrack(ctx context.Context, name string, fps []fingerprint.Fingerprint) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[name]; !ok {
		s.nextID++
		s.tracks[name] = trackRecord{id: s.nextID, createdAt: time.Now()}
	}

	for _, fp := range fps {
		token := fp.Token.Pack()
		s.postings[token] = append(s.postings[token], store.Posting{
			TrackName:  name,
			AnchorTime: fp.AnchorTime,
		})
	}
	return uint64(len(fps)), nil
}

func (s *Store) Lookup(ctx context.Context, token fingerprint.HashToken) ([]store.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.postings[token.Pack()]
	out := make([]store.Posting, len(found))
	copy(out, found)
	return out, nil
}

func (s *Store) DeleteTrack(ctx context.Context, name string) (bool, uint64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[name]; !ok {
		return false, 0, nil
	}
	delete(s.tracks, name)

	var removed uint64
	for token, postings := range s.postings {
		kept := postings[:0]
		for _, p := range postings {
			if p.TrackName == name {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(s.postings, token)
		} else {
			s.postings[token] = kept
		}
	}
	return true, removed, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracks = make(map[string]trackRecord)
	s.postings = make(map[int64][]store.Posting)
	return nil
}

func (s *Store) TrackCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.tracks)), nil
}

func (s *Store) PostingCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var total uint64
	for _, postings := range s.postings {
		total += uint64(len(postings))
	}
	return total, nil
}

func (s *Store) ListTracks(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tracks))
	for name := range s.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error { return nil }
