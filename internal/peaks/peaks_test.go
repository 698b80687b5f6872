package peaks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/internal/dsp"
)

func flatSpectrogram(bins, frames int, fill float64) *dsp.Spectrogram {
	mag := make([][]float64, bins)
	for b := range mag {
		mag[b] = make([]float64, frames)
		for t := range mag[b] {
			mag[b][t] = fill
		}
	}
	frameTimes := make([]float64, frames)
	binFreqs := make([]float64, bins)
	return &dsp.Spectrogram{Mag: mag, FrameTimes: frameTimes, BinFreqs: binFreqs}
}

func TestPickEmptySpectrogramYieldsNoPeaks(t *testing.T) {
	spec := &dsp.Spectrogram{}
	assert.Empty(t, Pick(spec, DefaultParams()))
}

func TestPickDiscardsNonPositiveCandidates(t *testing.T) {
	spec := flatSpectrogram(10, 10, 0)
	assert.Empty(t, Pick(spec, DefaultParams()))
}

func TestPickSingleSpikeIsFound(t *testing.T) {
	spec := flatSpectrogram(30, 30, 0)
	spec.Mag[15][15] = 5.0

	got := Pick(spec, Params{N: 20, Percentile: 0})
	require.Len(t, got, 1)
	assert.Equal(t, Peak{Frame: 15, Bin: 15}, got[0])
}

func TestPickPercentileFiltersWeakCandidates(t *testing.T) {
	spec := flatSpectrogram(4, 4, 0)
	// isolate each cell so every positive value is a local maximum
	spec.Mag[0][0] = 1
	spec.Mag[3][3] = 100

	all := Pick(spec, Params{N: 1, Percentile: 0})
	require.Len(t, all, 2)

	strong := Pick(spec, Params{N: 1, Percentile: 99})
	require.Len(t, strong, 1)
	assert.Equal(t, uint16(3), strong[0].Bin)
}

func TestPickPlateauProducesMultiplePeaks(t *testing.T) {
	spec := flatSpectrogram(10, 10, 1)
	got := Pick(spec, Params{N: 20, Percentile: 0})
	assert.Equal(t, 100, len(got), "flat plateau: every point ties the neighbourhood max")
}
