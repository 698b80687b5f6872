package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/internal/fingerprint"
)

func TestAddTrackThenLookupFindsPostings(t *testing.T) {
	s := New()
	ctx := context.Background()

	token := fingerprint.HashToken{F1: 100, F2: 200, DT: 30}
	n, err := s.AddTrack(ctx, "song-a", []fingerprint.Fingerprint{
		{Token: token, AnchorTime: 1.5},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	postings, err := s.Lookup(ctx, token)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "song-a", postings[0].TrackName)
	assert.Equal(t, 1.5, postings[0].AnchorTime)
}

func TestLookupUnknownTokenYieldsEmpty(t *testing.T) {
	s := New()
	postings, err := s.Lookup(context.Background(), fingerprint.HashToken{F1: 1, F2: 2, DT: 3})
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestReingestSameTrackAppendsPostings(t *testing.T) {
	s := New()
	ctx := context.Background()
	token := fingerprint.HashToken{F1: 1, F2: 2, DT: 3}

	_, err := s.AddTrack(ctx, "song-a", []fingerprint.Fingerprint{{Token: token, AnchorTime: 0}})
	require.NoError(t, err)
	_, err = s.AddTrack(ctx, "song-a", []fingerprint.Fingerprint{{Token: token, AnchorTime: 1}})
	require.NoError(t, err)

	postings, err := s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Len(t, postings, 2)

	count, err := s.TrackCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "re-ingest must not duplicate the track row")
}

func TestDeleteTrackCascadesPostingsAndReportsCount(t *testing.T) {
	s := New()
	ctx := context.Background()
	tokA := fingerprint.HashToken{F1: 1, F2: 2, DT: 3}
	tokB := fingerprint.HashToken{F1: 9, F2: 9, DT: 9}

	_, err := s.AddTrack(ctx, "song-a", []fingerprint.Fingerprint{
		{Token: tokA, AnchorTime: 0},
		{Token: tokB, AnchorTime: 1},
	})
	require.NoError(t, err)
	_, err = s.AddTrack(ctx, "song-b", []fingerprint.Fingerprint{{Token: tokA, AnchorTime: 0}})
	require.NoError(t, err)

	found, deleted, err := s.DeleteTrack(ctx, "song-a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(2), deleted)

	postingsA, _ := s.Lookup(ctx, tokA)
	assert.Len(t, postingsA, 1, "song-b's posting under tokA must survive")
	assert.Equal(t, "song-b", postingsA[0].TrackName)

	postingsB, _ := s.Lookup(ctx, tokB)
	assert.Empty(t, postingsB)
}

func TestDeleteTrackUnknownNameReportsNotFound(t *testing.T) {
	s := New()
	found, deleted, err := s.DeleteTrack(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, deleted)
}

func TestClearRemovesEverything(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.AddTrack(ctx, "song-a", []fingerprint.Fingerprint{
		{Token: fingerprint.HashToken{F1: 1, F2: 2, DT: 3}, AnchorTime: 0},
	})
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	tc, _ := s.TrackCount(ctx)
	pc, _ := s.PostingCount(ctx)
	assert.Zero(t, tc)
	assert.Zero(t, pc)
}

func TestListTracksIsSortedAscending(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.AddTrack(ctx, name, nil)
		require.NoError(t, err)
	}

	names, err := s.ListTracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestContextCancellationIsHonoured(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddTrack(ctx, "song-a", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
