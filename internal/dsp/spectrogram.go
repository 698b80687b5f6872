// Package dsp computes short-time Fourier transform spectrograms from raw
// PCM audio, following the constellation-hashing pipeline described in the
// engine's fingerprinting design.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// DefaultSR is the engine's working sample rate in Hz.
	DefaultSR = 22050
	// DefaultW is the FFT window length in samples.
	DefaultW = 4096
	// DefaultH is the hop length in samples between successive frames.
	DefaultH = 1024
)

// Params configures spectrogram construction. Changing any of these
// invalidates fingerprints generated under a different value.
type Params struct {
	SR int // working sample rate
	W  int // FFT window length
	H  int // hop length
}

// DefaultParams returns the engine's default spectrogram parameters.
func DefaultParams() Params {
	return Params{SR: DefaultSR, W: DefaultW, H: DefaultH}
}

// Spectrogram is a magnitude-only short-time Fourier transform, indexed as
// Mag[bin][frame]. Bin 0 is 0 Hz; frame t covers samples [t*H, t*H+W) and
// FrameTimes[t] is the start of that window, t*H/SR.
type Spectrogram struct {
	Mag        [][]float64 // Mag[bin][frame]
	FrameTimes []float64   // seconds, length = Frames()
	BinFreqs   []float64   // Hz, length = Bins()
}

// Bins returns the number of frequency bins (W/2 + 1).
func (s *Spectrogram) Bins() int {
	return len(s.Mag)
}

// Frames returns the number of time frames.
func (s *Spectrogram) Frames() int {
	if len(s.Mag) == 0 {
		return 0
	}
	return len(s.Mag[0])
}

// Build computes |STFT(pcm)| with a Hann window of p.W samples advanced
// by p.H samples per frame, so adjacent windows overlap by p.W-p.H
// samples. No padding is added at either edge. If pcm is shorter than the
// window, it returns a zero-frame spectrogram rather than an error; this
// is the InputTooShort case, handled downstream as "no peaks" rather than
// a failure.
func Build(pcm []float64, p Params) *Spectrogram {
	if len(pcm) < p.W {
		return &Spectrogram{}
	}

	numFrames := (len(pcm)-p.W)/p.H + 1
	numBins := p.W/2 + 1
	window := hannWindow(p.W)

	mag := make([][]float64, numBins)
	for b := range mag {
		mag[b] = make([]float64, numFrames)
	}

	windowed := make([]complex128, p.W)
	for t := 0; t < numFrames; t++ {
		start := t * p.H
		for i := 0; i < p.W; i++ {
			windowed[i] = complex(pcm[start+i]*window[i], 0)
		}
		spectrum := fft.FFT(windowed)
		for b := 0; b < numBins; b++ {
			mag[b][t] = cmplx.Abs(spectrum[b])
		}
	}

	frameTimes := make([]float64, numFrames)
	for t := range frameTimes {
		frameTimes[t] = float64(t*p.H) / float64(p.SR)
	}
	binFreqs := make([]float64, numBins)
	for b := range binFreqs {
		binFreqs[b] = float64(b) * float64(p.SR) / float64(p.W)
	}

	return &Spectrogram{Mag: mag, FrameTimes: frameTimes, BinFreqs: binFreqs}
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
