// Package fingerprint turns a constellation of spectrogram peaks into
// combinatorial hash tokens: for every anchor peak, every peak inside a
// forward target zone becomes one fingerprint.
package fingerprint

import (
	"math"
	"sort"

	"shazoom/internal/peaks"
)

// HashToken is the (f1, f2, dt) triple used as the store's lookup key.
// f1/f2 are integer-truncated Hz; dt is a non-negative frame offset.
type HashToken struct {
	F1 int32
	F2 int32
	DT int32
}

// tokenBits is how many bits each HashToken field occupies when packed,
// per the store's reference encoding (§4.4): 20 bits each, leaving the
// top 4 bits of an int64 unused.
const tokenBits = 20

// Pack encodes the token as a single int64 for indexed storage.
func (h HashToken) Pack() int64 {
	const mask = 1<<tokenBits - 1
	return (int64(h.F1)&mask)<<(2*tokenBits) | (int64(h.F2)&mask)<<tokenBits | (int64(h.DT) & mask)
}

// UnpackToken decodes a token previously produced by HashToken.Pack.
func UnpackToken(v int64) HashToken {
	const mask = 1<<tokenBits - 1
	return HashToken{
		F1: int32((v >> (2 * tokenBits)) & mask),
		F2: int32((v >> tokenBits) & mask),
		DT: int32(v & mask),
	}
}

// Fingerprint pairs a hash token with the anchor peak's frame time, in
// seconds (the spectrogram's FrameTimes entry for the anchor frame).
type Fingerprint struct {
	Token      HashToken
	AnchorTime float64
}

// Params configures the target zone in which targets are sought relative
// to an anchor.
type Params struct {
	TMin float64 // seconds
	TMax float64 // seconds
}

// DefaultParams returns the engine's default target-zone parameters.
func DefaultParams() Params {
	return Params{TMin: 1.0, TMax: 5.0}
}

// FrameBounds converts the time-domain target zone into frame-offset
// bounds for the given sample rate and hop length: DT_MIN <= dt < DT_MAX.
func FrameBounds(p Params, sr, hop int) (dtMin, dtMax int) {
	dtMin = int(math.Floor(p.TMin * float64(sr) / float64(hop)))
	dtMax = int(math.Floor(p.TMax * float64(sr) / float64(hop)))
	return dtMin, dtMax
}

// Generate enumerates, for each anchor peak, every peak inside the
// forward target zone and emits one fingerprint per ordered pair. Peaks
// with no target in range contribute nothing. frameTimes and binFreqs
// must be the spectrogram's own axes, so anchor times and frequencies
// line up with the peaks that were picked from it.
func Generate(peakList []peaks.Peak, frameTimes []float64, binFreqs []float64, sr, hop int, p Params) []Fingerprint {
	if len(peakList) == 0 {
		return nil
	}

	dtMin, dtMax := FrameBounds(p, sr, hop)

	sorted := make([]peaks.Peak, len(peakList))
	copy(sorted, peakList)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })

	var out []Fingerprint
	n := len(sorted)
	for i, anchor := range sorted {
		lowFrame := int64(anchor.Frame) + int64(dtMin)
		highFrame := int64(anchor.Frame) + int64(dtMax) // exclusive

		for j := i + 1; j < n; j++ {
			target := sorted[j]
			tf := int64(target.Frame)
			if tf >= highFrame {
				break
			}
			if tf < lowFrame {
				continue
			}

			token := HashToken{
				F1: int32(math.Trunc(binFreqs[anchor.Bin])),
				F2: int32(math.Trunc(binFreqs[target.Bin])),
				DT: int32(tf - int64(anchor.Frame)),
			}
			out = append(out, Fingerprint{
				Token:      token,
				AnchorTime: frameTimes[anchor.Frame],
			})
		}
	}
	return out
}
