package layers

import (
	"errors"
	"testing"
	"time"

	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/modem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modulateFrame(t *testing.T, cfg modem.Config, text string) []int32 {
	t.Helper()
	bits, err := cfg.FrameCodec().Encode(modem.TextToBits(text))
	require.NoError(t, err)
	return cfg.Modulator().Modulate(bits)
}

func newListener(cfg modem.Config, capture device.Capture) *Listener {
	return &Listener{
		Capture:  capture,
		Detector: cfg.Demodulator(),
		Codec:    cfg.FrameCodec(),
	}
}

func TestListenerHello(t *testing.T) {
	cfg := modem.DefaultConfig()
	sps := cfg.SamplesPerSymbol()

	for _, lead := range []int{0, 1, sps / 3, 777, 5000, 3*sps + 11} {
		tape := &device.Tape{Lead: lead, Noise: 0.05, Seed: uint64(lead) + 1}
		require.NoError(t, tape.Play(modulateFrame(t, cfg, "HELLO")))

		frame, err := newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
		require.NoError(t, err, "lead %d", lead)
		text, err := frame.Text()
		require.NoError(t, err)
		assert.Equal(t, "HELLO", text, "lead %d", lead)
	}
}

func TestListenerRecordingEndsWithFrame(t *testing.T) {
	cfg := modem.DefaultConfig()

	for _, lead := range []int{100, 500, 588, 1000, 2345} {
		for _, noise := range []float64{0, 0.05} {
			tape := &device.Tape{Lead: lead, Noise: noise, Seed: uint64(lead)}
			require.NoError(t, tape.Play(modulateFrame(t, cfg, "HELLO")))

			frame, err := newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
			require.NoError(t, err, "lead %d noise %v", lead, noise)
			assert.Equal(t, []byte("HELLO"), frame.Bytes(), "lead %d noise %v", lead, noise)
		}
	}
}

func TestRefineFindsEdge(t *testing.T) {
	cfg := modem.DefaultConfig()
	sps := cfg.SamplesPerSymbol()
	pcm := modulateFrame(t, cfg, "HELLO")

	for _, lead := range []int{1000, 1777, 2500} {
		for _, late := range []int{-200, -13, 0, 26, 27, 220} {
			s := newScanner(newListener(cfg, nil))
			s.buf = append(make([]int32, lead), pcm...)
			s.pos = lead + late
			edge := s.refine(max(s.pos-sps/2, 0), s.pos+sps/2)
			assert.InDelta(t, lead, edge, 2, "lead %d candidate %+d", lead, late)
		}
	}
}

func TestListenerShortLastSymbol(t *testing.T) {
	cfg := modem.DefaultConfig()
	sps := cfg.SamplesPerSymbol()
	pcm := modulateFrame(t, cfg, "HELLO")

	tape := &device.Tape{Lead: 700}
	tape.Play(pcm[:len(pcm)-sps/8])
	frame, err := newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO"), frame.Bytes())

	tape = &device.Tape{Lead: 700}
	tape.Play(pcm[:len(pcm)-sps/2])
	_, err = newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
	assert.ErrorIs(t, err, modem.ErrTruncatedFrame)
}

func TestListenerStates(t *testing.T) {
	cfg := modem.DefaultConfig()
	tape := &device.Tape{Lead: 1000}
	tape.Play(modulateFrame(t, cfg, "hi"))

	var states []State
	l := newListener(cfg, tape)
	l.OnState = func(s State) { states = append(states, s) }

	_, err := l.Listen(time.Now().Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []State{Searching, Synchronized, Collecting, Done}, states)
	assert.Equal(t, "COLLECTING", Collecting.String())
}

func TestListenerOneFramePerAttempt(t *testing.T) {
	cfg := modem.DefaultConfig()
	tape := &device.Tape{}
	tape.Play(modulateFrame(t, cfg, "FIRST"))
	tape.Play(modulateFrame(t, cfg, "SECOND"))

	l := newListener(cfg, tape)
	frame, err := l.Listen(time.Now().Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []byte("FIRST"), frame.Bytes())

	// a new attempt starts from a fresh capture
	frame, err = l.Listen(time.Now().Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []byte("FIRST"), frame.Bytes())
}

func TestListenerFalseLock(t *testing.T) {
	cfg := modem.DefaultConfig()
	codec := cfg.FrameCodec()

	bogus := append(modem.Preamble(), modem.Uint16ToBits(0)...)
	bogus = append(bogus, make([]bool, 16)...)
	valid, err := codec.Encode(modem.TextToBits("HELLO"))
	require.NoError(t, err)

	tape := &device.Tape{Lead: 300}
	tape.Play(cfg.Modulator().Modulate(append(bogus, valid...)))

	frame, err := newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO"), frame.Bytes())
}

func TestListenerChecksumMismatch(t *testing.T) {
	cfg := modem.DefaultConfig()
	bits, err := cfg.FrameCodec().Encode(modem.TextToBits("HELLO"))
	require.NoError(t, err)
	bits[modem.HeaderBits+3] = !bits[modem.HeaderBits+3]

	tape := &device.Tape{Lead: 500}
	tape.Play(cfg.Modulator().Modulate(bits))

	_, err = newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
	assert.ErrorIs(t, err, modem.ErrChecksumMismatch)
	assert.Contains(t, err.Error(), "CRC error")
}

func TestListenerTruncated(t *testing.T) {
	cfg := modem.DefaultConfig()
	pcm := modulateFrame(t, cfg, "HELLO")

	tape := &device.Tape{Lead: 500}
	tape.Play(pcm[:len(pcm)/2])

	_, err := newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
	assert.ErrorIs(t, err, modem.ErrTruncatedFrame)
}

func TestListenerCaptureEndsWithoutSignal(t *testing.T) {
	cfg := modem.DefaultConfig()
	tape := &device.Tape{Lead: 44100, Noise: 0.05, Seed: 3}

	_, err := newListener(cfg, tape).Listen(time.Now().Add(10 * time.Second))
	assert.ErrorIs(t, err, modem.ErrTimeout)
	assert.Contains(t, err.Error(), "capture ended")
}

func TestListenerDeadline(t *testing.T) {
	cfg := modem.DefaultConfig()

	tests := []struct {
		name string
		tape *device.Tape
	}{
		{"paced noise", &device.Tape{SampleRate: 44100, Endless: true, Noise: 0.05, Seed: 4}},
		{"unpaced noise", &device.Tape{Endless: true, Noise: 0.05, Seed: 5}},
		{"silence", &device.Tape{SampleRate: 44100, Endless: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const limit = 300 * time.Millisecond
			start := time.Now()
			_, err := newListener(cfg, tt.tape).Listen(start.Add(limit))
			elapsed := time.Since(start)

			assert.ErrorIs(t, err, modem.ErrTimeout)
			assert.GreaterOrEqual(t, elapsed, limit)
			assert.Less(t, elapsed, limit+500*time.Millisecond)
		})
	}
}

func TestListenerDeadlineWhileCollecting(t *testing.T) {
	cfg := modem.DefaultConfig()
	pcm := modulateFrame(t, cfg, "a longer message that takes a while to arrive")

	// real time playback of the frame takes several seconds
	tape := &device.Tape{SampleRate: 44100, Endless: true}
	tape.Play(pcm)

	var collecting bool
	l := newListener(cfg, tape)
	l.OnState = func(s State) { collecting = collecting || s == Collecting }

	_, err := l.Listen(time.Now().Add(time.Second))
	assert.ErrorIs(t, err, modem.ErrTimeout)
	assert.True(t, collecting)
}

type failingCapture struct{}

func (failingCapture) Start() (<-chan []int32, error) {
	return nil, errors.New("no microphone")
}

func (failingCapture) Stop() {}

func TestListenerCaptureError(t *testing.T) {
	_, err := newListener(modem.DefaultConfig(), failingCapture{}).Listen(time.Now().Add(time.Second))
	assert.ErrorContains(t, err, "no microphone")
}

func TestTransmitter(t *testing.T) {
	tape := &device.Tape{}
	tx := Transmitter{Output: tape, SampleRate: 44100}
	require.NoError(t, tx.Transmit(make([]int32, 100)))
	assert.Equal(t, 1, tape.Plays())
	assert.Len(t, tape.Recording(), 100)
}
