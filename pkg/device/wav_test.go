package device

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq, rate, amplitude float64) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/rate) * math.MaxInt32)
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	track := sine(4410, 2000, 44100, 0.5)

	require.NoError(t, WAVWriter{Path: path, SampleRate: 44100}.Play(track))

	reader := &WAVReader{Path: path, SampleRate: 44100}
	ch, err := reader.Start()
	require.NoError(t, err)
	got := drain(ch)

	require.Len(t, got, len(track))
	for i := range track {
		// 16 bit quantization
		require.InDelta(t, float64(track[i]), float64(got[i]), 2.0/32768*math.MaxInt32, "sample %d", i)
	}
}

func TestWAVFullScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	require.NoError(t, WAVWriter{Path: path, SampleRate: 44100}.Play(sine(4410, 1000, 44100, 0.99)))

	ch, err := (&WAVReader{Path: path, SampleRate: 44100}).Start()
	require.NoError(t, err)
	peak := 0.0
	for _, v := range drain(ch) {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	assert.InDelta(t, 0.99, peak/math.MaxInt32, 0.001)
}

func TestWAVResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WAVWriter{Path: path, SampleRate: 22050}.Play(sine(22050, 1000, 22050, 0.5)))

	reader := &WAVReader{Path: path, SampleRate: 44100}
	ch, err := reader.Start()
	require.NoError(t, err)
	assert.InDelta(t, 44100, len(drain(ch)), 64)
}

func TestWAVMissingFile(t *testing.T) {
	_, err := (&WAVReader{Path: filepath.Join(t.TempDir(), "missing.wav")}).Start()
	assert.Error(t, err)
}
