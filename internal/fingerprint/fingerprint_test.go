package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/internal/peaks"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	h := HashToken{F1: 440, F2: 880, DT: 21}
	got := UnpackToken(h.Pack())
	assert.Equal(t, h, got)
}

func TestFrameBoundsDefaults(t *testing.T) {
	dtMin, dtMax := FrameBounds(DefaultParams(), 22050, 1024)
	assert.Equal(t, 21, dtMin)
	assert.Equal(t, 107, dtMax)
}

func TestGenerateEmptyPeaksYieldsNothing(t *testing.T) {
	assert.Empty(t, Generate(nil, nil, nil, 22050, 1024, DefaultParams()))
}

func TestGenerateRespectsTargetZoneBounds(t *testing.T) {
	frameTimes := make([]float64, 200)
	binFreqs := make([]float64, 50)
	for i := range frameTimes {
		frameTimes[i] = float64(i) * 1024.0 / 22050.0
	}
	for i := range binFreqs {
		binFreqs[i] = float64(i) * 22050.0 / 4096.0
	}

	pk := []peaks.Peak{
		{Frame: 0, Bin: 10},
		{Frame: 5, Bin: 11},   // too close: dt=5 < DT_MIN (21)
		{Frame: 50, Bin: 12},  // inside zone
		{Frame: 200 - 1, Bin: 13}, // way outside T_MAX relative to anchor 0? within bounds array
	}

	dtMin, dtMax := FrameBounds(DefaultParams(), 22050, 1024)
	fps := Generate(pk, frameTimes, binFreqs, 22050, 1024, DefaultParams())

	require.NotEmpty(t, fps)
	for _, fp := range fps {
		assert.GreaterOrEqual(t, int(fp.Token.DT), dtMin)
		assert.Less(t, int(fp.Token.DT), dtMax)
	}
}

func TestGenerateIsDeterministicRegardlessOfInputOrder(t *testing.T) {
	frameTimes := make([]float64, 200)
	binFreqs := make([]float64, 50)
	for i := range frameTimes {
		frameTimes[i] = float64(i) * 1024.0 / 22050.0
	}
	for i := range binFreqs {
		binFreqs[i] = float64(i) * 22050.0 / 4096.0
	}

	a := []peaks.Peak{{Frame: 0, Bin: 10}, {Frame: 30, Bin: 20}, {Frame: 60, Bin: 5}}
	b := []peaks.Peak{{Frame: 60, Bin: 5}, {Frame: 0, Bin: 10}, {Frame: 30, Bin: 20}}

	fpsA := Generate(a, frameTimes, binFreqs, 22050, 1024, DefaultParams())
	fpsB := Generate(b, frameTimes, binFreqs, 22050, 1024, DefaultParams())

	toSet := func(fps []Fingerprint) map[HashToken]float64 {
		m := map[HashToken]float64{}
		for _, fp := range fps {
			m[fp.Token] = fp.AnchorTime
		}
		return m
	}

	assert.Equal(t, toSet(fpsA), toSet(fpsB))
}

func TestGenerateTruncatesFrequenciesNotRounds(t *testing.T) {
	frameTimes := []float64{0, 30 * 1024.0 / 22050.0}
	binFreqs := []float64{10.9, 20.9}

	pk := []peaks.Peak{{Frame: 0, Bin: 0}, {Frame: 30, Bin: 1}}
	fps := Generate(pk, frameTimes, binFreqs, 22050, 1024, DefaultParams())

	require.Len(t, fps, 1)
	assert.Equal(t, int32(10), fps[0].Token.F1)
	assert.Equal(t, int32(20), fps[0].Token.F2)
}
