package device

import (
	"sync"

	"AcousticTxRx/internel/callbacks"

	"github.com/rs/zerolog"
)

// Duplex exposes a callback driven Device as an Output and a Capture. The device is
// started on first use and runs until Close.
type Duplex struct {
	Device Device
	Depth  int // captured buffers held for a slow reader, 0 means 256
	Logger zerolog.Logger

	mu       sync.Mutex
	open     bool
	closed   chan struct{}
	player   callbacks.Player
	recorder callbacks.Recorder
}

func (d *Duplex) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil
	}
	d.recorder.OnDrop = func(total int) {
		d.Logger.Warn().Int("dropped", total).Msg("capture overrun, input buffer dropped")
	}
	err := d.Device.Start(func(in, out []int32) {
		d.recorder.Update(in)
		d.player.Update(out)
	})
	if err != nil {
		return err
	}
	d.open = true
	d.closed = make(chan struct{})
	d.Logger.Debug().Msg("device started")
	return nil
}

func (d *Duplex) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return
	}
	d.Device.Stop()
	d.recorder.Stop()
	d.player.Reset()
	close(d.closed)
	d.open = false
	d.Logger.Debug().Msg("device stopped")
}

// Play queues samples behind anything already playing and waits until all of them
// have been handed to the device.
func (d *Duplex) Play(samples []int32) error {
	if err := d.Open(); err != nil {
		return err
	}
	d.mu.Lock()
	closed := d.closed
	done := d.player.Enqueue(samples)
	d.mu.Unlock()

	select {
	case <-done:
		select {
		case <-closed:
			return ErrClosed
		default:
			return nil
		}
	case <-closed:
		return ErrClosed
	}
}

func (d *Duplex) Start() (<-chan []int32, error) {
	if err := d.Open(); err != nil {
		return nil, err
	}
	depth := d.Depth
	if depth <= 0 {
		depth = 256
	}
	return d.recorder.Start(depth), nil
}

func (d *Duplex) Stop() {
	d.recorder.Stop()
}
