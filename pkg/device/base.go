package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Device is a full duplex audio stream. The callback receives one input buffer and
// fills one output buffer of the same length per period.
type Device interface {
	Start(callback func(in, out []int32)) error
	Stop()
}

// Output plays a mono PCM buffer and returns once it has been played.
type Output interface {
	Play(samples []int32) error
}

// Capture yields mono PCM blocks from Start until Stop. The channel is closed when the
// stream ends or after Stop.
type Capture interface {
	Start() (<-chan []int32, error)
	Stop()
}

const BufferSize = 512

var (
	ErrClosed         = errors.New("device closed")
	ErrUnknownBackend = errors.New("unknown audio backend")
)

type Options struct {
	DeviceName string
	SampleRate float64
	BufferSize int
	Noise      float64 // simulated backends only
	Seed       uint64
}

var backends = map[string]func(Options) Device{
	"loopback": func(o Options) Device {
		return &Loopback{SampleRate: o.SampleRate, BufferSize: o.BufferSize, Noise: o.Noise, Seed: o.Seed}
	},
}

// New builds the device registered as backend.
func New(backend string, opts Options) (Device, error) {
	f, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, backend, strings.Join(Backends(), ", "))
	}
	return f(opts), nil
}

func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
