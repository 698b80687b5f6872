// Package match identifies which stored track a query's fingerprints came
// from, using an offset-histogram vote: postings that agree on how far the
// query is offset from the original recording pile up in the same bin,
// while coincidental token collisions scatter randomly.
package match

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"shazoom/internal/fingerprint"
	"shazoom/internal/store"
)

// ErrNoMatch is returned when no candidate track clears MinMatches votes.
var ErrNoMatch = errors.New("match: no match")

// ErrEmptyIndex is returned when the store holds no tracks at all.
var ErrEmptyIndex = errors.New("match: index is empty")

// Params configures match viability.
type Params struct {
	// MinMatches is the minimum histogram-bin vote count a track needs to
	// be considered a match at all.
	MinMatches int
}

// DefaultParams returns the engine's default matching parameters.
func DefaultParams() Params {
	return Params{MinMatches: 5}
}

// Result is the winning track and the evidence behind it.
type Result struct {
	TrackName  string
	Offset     float64 // seconds: reference_time - query_time for the winning bin
	Votes      int     // histogram count in the winning bin
	QueryCount int     // total query fingerprints considered
	Confidence float64 // Votes / QueryCount
}

// Match looks up every query fingerprint's token concurrently, bins
// matching postings by (track, exact offset), and returns the track
// whose best-aligned bin has the most votes. Ties in vote count are
// broken by ascending track name for determinism.
//
// Returns ErrEmptyIndex if s holds no tracks, or ErrNoMatch if the best
// candidate doesn't clear params.MinMatches.
func Match(ctx context.Context, s store.Store, query []fingerprint.Fingerprint, params Params) (*Result, error) {
	trackCount, err := s.TrackCount(ctx)
	if err != nil {
		return nil, err
	}
	if trackCount == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) == 0 {
		return nil, ErrNoMatch
	}

	// Dedupe lookups: many query fingerprints can share a token.
	byToken := make(map[fingerprint.HashToken][]float64)
	for _, fp := range query {
		byToken[fp.Token] = append(byToken[fp.Token], fp.AnchorTime)
	}
	tokens := make([]fingerprint.HashToken, 0, len(byToken))
	for tok := range byToken {
		tokens = append(tokens, tok)
	}

	postingsByToken := make([][]store.Posting, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, tok := range tokens {
		i, tok := i, tok
		g.Go(func() error {
			postings, err := s.Lookup(gctx, tok)
			if err != nil {
				return err
			}
			postingsByToken[i] = postings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Offsets are computed as the exact floating-point difference between
	// quantized anchor times, with no rounding or binning. A true match's
	// anchor times are themselves exact multiples of H/SR on both sides,
	// so their difference lands on the same float64 value for every
	// aligned pair; coincidental token collisions do not share an offset.
	type binKey struct {
		track  string
		offset float64
	}
	votes := make(map[binKey]int)

	for i, tok := range tokens {
		queryTimes := byToken[tok]
		for _, posting := range postingsByToken[i] {
			for _, qt := range queryTimes {
				offset := posting.AnchorTime - qt
				votes[binKey{track: posting.TrackName, offset: offset}]++
			}
		}
	}

	if len(votes) == 0 {
		return nil, ErrNoMatch
	}

	var best binKey
	bestVotes := -1
	for k, v := range votes {
		switch {
		case v > bestVotes:
			best, bestVotes = k, v
		case v == bestVotes && k.track < best.track:
			best = k
		}
	}

	if bestVotes < params.MinMatches {
		return nil, ErrNoMatch
	}

	return &Result{
		TrackName:  best.track,
		Offset:     best.offset,
		Votes:      bestVotes,
		QueryCount: len(query),
		Confidence: float64(bestVotes) / float64(len(query)),
	}, nil
}
