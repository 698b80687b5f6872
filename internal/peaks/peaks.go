// Package peaks selects sparse, locally-dominant time/frequency points
// from a spectrogram, the "constellation" used by the fingerprint
// generator.
package peaks

import (
	"math"
	"sort"

	"shazoom/internal/dsp"
)

// Peak identifies a local maximum of a spectrogram by its coordinates.
// Field order matters: frame first, then bin, per the canonical ordering
// the fingerprint generator depends on.
type Peak struct {
	Frame uint32
	Bin   uint16
}

// Params configures peak selection.
type Params struct {
	N          int     // neighbourhood side in pixels
	Percentile float64 // magnitude quantile cut, 0-100
}

// DefaultParams returns the engine's default peak-picking parameters.
func DefaultParams() Params {
	return Params{N: 20, Percentile: 75}
}

// Pick finds local maxima of spec over an N×N neighbourhood (border
// treated as -infinity), discards non-positive candidates, then keeps
// only those at or above the Percentile-th magnitude among the survivors.
// Equality with the neighbourhood maximum is the rule, not strict
// inequality, so flat plateaus legitimately produce multiple peaks.
func Pick(spec *dsp.Spectrogram, p Params) []Peak {
	bins, frames := spec.Bins(), spec.Frames()
	if bins == 0 || frames == 0 {
		return nil
	}

	// The window spans offsets lo..hi inclusive, N pixels per axis. An
	// even N has no single centre pixel, so the window then reaches one
	// pixel further back than forward.
	lo, hi := -(p.N / 2), p.N-1-p.N/2

	type candidate struct {
		bin, frame int
		mag        float64
	}
	var candidates []candidate

	for b := 0; b < bins; b++ {
		for t := 0; t < frames; t++ {
			v := spec.Mag[b][t]
			if v <= 0 {
				continue
			}
			if isNeighbourhoodMax(spec, b, t, lo, hi, v) {
				candidates = append(candidates, candidate{bin: b, frame: t, mag: v})
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	mags := make([]float64, len(candidates))
	for i, c := range candidates {
		mags[i] = c.mag
	}
	threshold := percentile(mags, p.Percentile)

	out := make([]Peak, 0, len(candidates))
	for _, c := range candidates {
		if c.mag >= threshold {
			out = append(out, Peak{Frame: uint32(c.frame), Bin: uint16(c.bin)})
		}
	}
	return out
}

func isNeighbourhoodMax(spec *dsp.Spectrogram, b, t, lo, hi int, v float64) bool {
	bins, frames := spec.Bins(), spec.Frames()
	for db := lo; db <= hi; db++ {
		nb := b + db
		if nb < 0 || nb >= bins {
			continue // out of bounds treated as -Inf: can't exceed v
		}
		for dt := lo; dt <= hi; dt++ {
			nt := t + dt
			if nt < 0 || nt >= frames {
				continue
			}
			if spec.Mag[nb][nt] > v {
				return false
			}
		}
	}
	return true
}

// percentile returns the linear-interpolated p-th percentile (0-100) of
// vals, matching the common "percentile" definition used by numpy.
func percentile(vals []float64, p float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
