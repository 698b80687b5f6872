// Package engine wires the DSP pipeline to a store and matcher behind a
// small, testable service API: Ingest a track, Recognize a clip, and
// inspect or manage what has been ingested.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mdobak/go-xerrors"

	"shazoom/internal/dsp"
	"shazoom/internal/fingerprint"
	"shazoom/internal/match"
	"shazoom/internal/peaks"
	"shazoom/internal/store"
)

// ErrInputTooShort is returned when PCM audio is too short to produce
// even one spectrogram frame.
var ErrInputTooShort = errors.New("engine: input too short")

// Params bundles every tunable stage of the pipeline in one place so
// callers (config, CLI flags, tests) configure the engine as a whole.
type Params struct {
	Spectrogram dsp.Params
	Peaks       peaks.Params
	Fingerprint fingerprint.Params
	Match       match.Params
}

// DefaultParams returns the engine's documented defaults.
func DefaultParams() Params {
	return Params{
		Spectrogram: dsp.DefaultParams(),
		Peaks:       peaks.DefaultParams(),
		Fingerprint: fingerprint.DefaultParams(),
		Match:       match.DefaultParams(),
	}
}

// Engine is the audio identification service: DSP pipeline plus a
// backing store. It holds no mutable state of its own beyond its
// parameters, so a single Engine can be shared across goroutines as long
// as its Store is safe for concurrent use (every backend in this module
// is).
type Engine struct {
	store  store.Store
	params Params
	logger *slog.Logger
}

// New builds an Engine over s, using params for every pipeline stage.
// A nil logger falls back to slog.Default().
func New(s store.Store, params Params, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, params: params, logger: logger}
}

// fingerprintPCM runs the shared spectrogram -> peaks -> fingerprint
// stages over mono PCM sampled at e.params.Spectrogram.SR.
func (e *Engine) fingerprintPCM(pcm []float64) ([]fingerprint.Fingerprint, error) {
	if len(pcm) < e.params.Spectrogram.W {
		return nil, ErrInputTooShort
	}

	spec := dsp.Build(pcm, e.params.Spectrogram)
	picked := peaks.Pick(spec, e.params.Peaks)
	fps := fingerprint.Generate(
		picked, spec.FrameTimes, spec.BinFreqs,
		e.params.Spectrogram.SR, e.params.Spectrogram.H,
		e.params.Fingerprint,
	)
	return fps, nil
}

// Ingest fingerprints pcm and adds it to the store under name, returning
// the number of fingerprints stored. Ingesting a name already present
// appends postings rather than replacing them.
func (e *Engine) Ingest(ctx context.Context, name string, pcm []float64) (uint64, error) {
	fps, err := e.fingerprintPCM(pcm)
	if err != nil {
		return 0, err
	}

	n, err := e.store.AddTrack(ctx, name, fps)
	if err != nil {
		wrapped := xerrors.New(err)
		e.logger.ErrorContext(ctx, "failed to ingest track",
			slog.String("track", name), slog.Any("error", wrapped))
		return 0, wrapped
	}

	e.logger.InfoContext(ctx, "ingested track",
		slog.String("track", name), slog.Uint64("fingerprints", n))
	return n, nil
}

// Recognize fingerprints pcm and identifies the best-matching stored
// track. Returns match.ErrEmptyIndex if nothing has been ingested, or
// match.ErrNoMatch if no candidate clears the configured MinMatches or if
// pcm is too short to fingerprint at all.
func (e *Engine) Recognize(ctx context.Context, pcm []float64) (*match.Result, error) {
	fps, err := e.fingerprintPCM(pcm)
	if err != nil {
		if errors.Is(err, ErrInputTooShort) {
			return nil, match.ErrNoMatch
		}
		return nil, err
	}

	result, err := match.Match(ctx, e.store, fps, e.params.Match)
	if err != nil {
		if errors.Is(err, match.ErrEmptyIndex) || errors.Is(err, match.ErrNoMatch) {
			return nil, err
		}
		wrapped := xerrors.New(err)
		e.logger.ErrorContext(ctx, "recognition failed", slog.Any("error", wrapped))
		return nil, wrapped
	}

	e.logger.InfoContext(ctx, "recognized track",
		slog.String("track", result.TrackName),
		slog.Int("votes", result.Votes),
		slog.Float64("confidence", result.Confidence))
	return result, nil
}

// Delete removes a track and all of its fingerprints. found is false if
// no track had that name.
func (e *Engine) Delete(ctx context.Context, name string) (found bool, deleted uint64, err error) {
	return e.store.DeleteTrack(ctx, name)
}

// Clear removes every ingested track.
func (e *Engine) Clear(ctx context.Context) error {
	return e.store.Clear(ctx)
}

// List returns the names of every ingested track, ascending.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.store.ListTracks(ctx)
}

// Stats summarizes the current index.
type Stats struct {
	Tracks                  uint64
	Fingerprints            uint64
	AvgFingerprintsPerTrack float64
}

// Stats reports the current track and fingerprint counts.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	tracks, err := e.store.TrackCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	postings, err := e.store.PostingCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Tracks: tracks, Fingerprints: postings}
	if tracks > 0 {
		stats.AvgFingerprintsPerTrack = float64(postings) / float64(tracks)
	}
	return stats, nil
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Params returns the engine's pipeline configuration, so callers (like
// the decoder) can match the sample rate the engine fingerprints at.
func (e *Engine) Params() Params {
	return e.params
}
