package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/internal/match"
	"shazoom/internal/store/memory"
)

// sineWave synthesizes a pure tone, the same deterministic signal used by
// the dsp package's own tests.
func sineWave(freq, seconds float64, sr int) []float64 {
	n := int(seconds * float64(sr))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return out
}

func chord(seconds float64, sr int, freqs ...float64) []float64 {
	n := int(seconds * float64(sr))
	out := make([]float64, n)
	for _, f := range freqs {
		for i, v := range sineWave(f, seconds, sr) {
			if i < n {
				out[i] += v
			}
		}
	}
	return out
}

func newTestEngine() *Engine {
	return New(memory.New(), DefaultParams(), nil)
}

func TestRecognizeAgainstEmptyIndexReturnsErrEmptyIndex(t *testing.T) {
	e := newTestEngine()
	_, err := e.Recognize(context.Background(), chord(6, 22050, 440, 880, 1320))
	assert.ErrorIs(t, err, match.ErrEmptyIndex)
}

func TestIngestInputTooShortReturnsErrInputTooShort(t *testing.T) {
	e := newTestEngine()
	_, err := e.Ingest(context.Background(), "tiny", make([]float64, 100))
	assert.ErrorIs(t, err, ErrInputTooShort)
}

func TestRecognizeInputTooShortIsNoMatch(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	_, err := e.Ingest(ctx, "track-a", chord(8, 22050, 440, 880, 1320, 1760))
	require.NoError(t, err)

	_, err = e.Recognize(ctx, make([]float64, 100))
	assert.ErrorIs(t, err, match.ErrNoMatch)
}

func TestRoundTripSelfRecognition(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	pcm := chord(8, 22050, 440, 880, 1320, 1760)
	n, err := e.Ingest(ctx, "track-a", pcm)
	require.NoError(t, err)
	require.NotZero(t, n)

	result, err := e.Recognize(ctx, pcm)
	require.NoError(t, err)
	assert.Equal(t, "track-a", result.TrackName)
	assert.InDelta(t, 0, result.Offset, 0.2)
}

func TestSubSegmentRecognitionFindsParentTrack(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	full := chord(12, 22050, 440, 880, 1320, 1760)
	_, err := e.Ingest(ctx, "track-a", full)
	require.NoError(t, err)

	sr := e.params.Spectrogram.SR
	start := 4 * sr
	end := 8 * sr
	clip := full[start:end]

	result, err := e.Recognize(ctx, clip)
	require.NoError(t, err)
	assert.Equal(t, "track-a", result.TrackName)
	assert.InDelta(t, 4.0, result.Offset, 0.3)
}

func TestUnrelatedAudioDoesNotMatch(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	_, err := e.Ingest(ctx, "track-a", chord(8, 22050, 440, 880, 1320, 1760))
	require.NoError(t, err)

	other := chord(8, 22050, 523.25, 659.25, 783.99, 1046.5)
	_, err = e.Recognize(ctx, other)
	assert.ErrorIs(t, err, match.ErrNoMatch)
}

func TestDeleteRemovesTrackFromFutureMatches(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	pcm := chord(8, 22050, 440, 880, 1320, 1760)
	_, err := e.Ingest(ctx, "track-a", pcm)
	require.NoError(t, err)

	found, deleted, err := e.Delete(ctx, "track-a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotZero(t, deleted)

	_, err = e.Recognize(ctx, pcm)
	assert.ErrorIs(t, err, match.ErrEmptyIndex)
}

func TestStatsReflectsIngestedTracks(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	_, err := e.Ingest(ctx, "track-a", chord(8, 22050, 440, 880, 1320, 1760))
	require.NoError(t, err)
	_, err = e.Ingest(ctx, "track-b", chord(8, 22050, 220, 660, 990, 1540))
	require.NoError(t, err)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Tracks)
	assert.NotZero(t, stats.Fingerprints)
	assert.NotZero(t, stats.AvgFingerprintsPerTrack)
}

func TestListReturnsIngestedTrackNamesSorted(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha"} {
		_, err := e.Ingest(ctx, name, chord(8, 22050, 440, 880, 1320))
		require.NoError(t, err)
	}

	names, err := e.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestClearEmptiesTheIndex(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	_, err := e.Ingest(ctx, "track-a", chord(8, 22050, 440, 880, 1320))
	require.NoError(t, err)
	require.NoError(t, e.Clear(ctx))

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Tracks)
	assert.Zero(t, stats.Fingerprints)
}
