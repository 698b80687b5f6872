// Package decode turns WAV, MP3, and FLAC files into mono PCM samples at
// a target sample rate, ready for the fingerprinting pipeline. Decoding
// itself is outside the fingerprinting spec; this package exists so the
// CLI can accept real audio files rather than raw sample arrays.
package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// Decode reads path (.wav, .mp3, or .flac, sniffed from its extension)
// and returns mono float64 PCM samples resampled to targetSR.
func Decode(path string, targetSR int) ([]float64, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var samples []float64
	var sourceSR int
	var err error

	switch ext {
	case ".wav":
		samples, sourceSR, err = decodeWAV(path)
	case ".mp3":
		samples, sourceSR, err = decodeMP3(path)
	case ".flac":
		samples, sourceSR, err = decodeFLAC(path)
	default:
		return nil, fmt.Errorf("decode: unsupported extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if sourceSR == targetSR {
		return samples, nil
	}
	return resample(samples, sourceSR, targetSR), nil
}

func decodeWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode: wav %s: %w", path, err)
	}

	return downmixInts(buf.Data, buf.Format.NumChannels, buf.SourceBitDepth), int(buf.Format.SampleRate), nil
}

func decodeMP3(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decode: mp3 %s: %w", path, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("decode: mp3 read %s: %w", path, err)
	}

	// go-mp3 always emits signed 16-bit stereo little-endian.
	numFrames := len(raw) / 4
	ints := make([]int, numFrames*2)
	for i := 0; i < numFrames; i++ {
		left := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		right := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		ints[i*2] = int(left)
		ints[i*2+1] = int(right)
	}

	return downmixInts(ints, 2, 16), dec.SampleRate(), nil
}

func decodeFLAC(path string) ([]float64, int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("decode: flac %s: %w", path, err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	var ints []int

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("decode: flac frame %s: %w", path, err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				ints = append(ints, int(frame.Subframes[c].Samples[i]))
			}
		}
	}

	return downmixInts(ints, channels, bitDepth), int(stream.Info.SampleRate), nil
}

// downmixInts averages all channels of interleaved integer PCM into mono
// and normalizes to [-1, 1] given the source bit depth.
func downmixInts(interleaved []int, channels, bitDepth int) []float64 {
	if channels <= 0 {
		channels = 1
	}
	full := 1 << uint(bitDepth-1)
	numFrames := len(interleaved) / channels

	out := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = float64(sum) / float64(channels) / float64(full)
	}
	return out
}

// resample performs linear interpolation resampling from sourceSR to
// targetSR. It is deliberately simple: no low-pass filter is applied
// before downsampling, so source content above targetSR/2 folds back
// into the output band rather than being removed.
func resample(samples []float64, sourceSR, targetSR int) []float64 {
	if sourceSR <= 0 || targetSR <= 0 || len(samples) == 0 {
		return nil
	}
	ratio := float64(sourceSR) / float64(targetSR)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float64, outLen)

	for i := range out {
		srcPos := float64(i) * ratio
		lo := int(srcPos)
		if lo >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := srcPos - float64(lo)
		out[i] = samples[lo]*(1-frac) + samples[lo+1]*frac
	}
	return out
}
