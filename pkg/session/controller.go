package session

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"AcousticTxRx/pkg/async"
	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/layers"
	"AcousticTxRx/pkg/modem"

	"github.com/rs/zerolog"
)

var ErrBusy = errors.New("another transmission is in progress")

const DefaultReceiveTimeout = 60 * time.Second

// Controller runs send and receive attempts, one at a time. A call made while an
// attempt is running is rejected with ErrBusy, not queued.
type Controller struct {
	Codec       modem.FrameCodec
	Modulator   modem.Modulator
	Transmitter layers.Transmitter
	Listener    *layers.Listener
	Sink        Sink
	Logger      zerolog.Logger

	busy atomic.Bool
}

func New(cfg modem.Config, out device.Output, in device.Capture, sink Sink, logger zerolog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		Codec:     cfg.FrameCodec(),
		Modulator: cfg.Modulator(),
		Transmitter: layers.Transmitter{
			Output:     out,
			SampleRate: cfg.SampleRate,
			Logger:     logger.With().Str("component", "Transmitter").Logger(),
		},
		Listener: &layers.Listener{
			Capture:  in,
			Detector: cfg.Demodulator(),
			Codec:    cfg.FrameCodec(),
			Logger:   logger.With().Str("component", "Listener").Logger(),
		},
		Sink:   sink,
		Logger: logger.With().Str("component", "Session").Logger(),
	}, nil
}

func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Send transmits text as one frame and returns once it has been played.
func (c *Controller) Send(text string) Outcome {
	if !c.busy.CompareAndSwap(false, true) {
		return c.rejected(Sent)
	}
	defer c.busy.Store(false)

	o := c.send(text)
	c.emit(o)
	return o
}

func (c *Controller) send(text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return failure(Sent, modem.ErrEmptyPayload)
	}

	frame, err := c.Codec.Encode(modem.TextToBits(text))
	if err != nil {
		return failure(Sent, err)
	}
	pcm := c.Modulator.Modulate(frame)
	c.Logger.Debug().Int("bits", len(frame)).Int("samples", len(pcm)).Msg("frame modulated")

	if err := c.Transmitter.Transmit(pcm); err != nil {
		return failure(Sent, err)
	}
	return success(Sent, text, fmt.Sprintf("Sent %d bytes", len(text)))
}

// ReceiveOnce listens for a single frame for at most maxSeconds. A non-positive value
// means DefaultReceiveTimeout.
func (c *Controller) ReceiveOnce(maxSeconds int) Outcome {
	return c.Receive(time.Duration(maxSeconds) * time.Second)
}

func (c *Controller) Receive(timeout time.Duration) Outcome {
	if !c.busy.CompareAndSwap(false, true) {
		return c.rejected(Received)
	}
	defer c.busy.Store(false)

	o := c.receive(timeout)
	c.emit(o)
	return o
}

// ReceiveAsync runs Receive on its own goroutine.
func (c *Controller) ReceiveAsync(timeout time.Duration) <-chan Outcome {
	return async.Promise(func() Outcome {
		return c.Receive(timeout)
	})
}

func (c *Controller) receive(timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultReceiveTimeout
	}
	c.Logger.Debug().Dur("timeout", timeout).Msg("listening")

	frame, err := c.Listener.Listen(time.Now().Add(timeout))
	if err != nil {
		return failure(Received, err)
	}
	text, err := frame.Text()
	if err != nil {
		return failure(Received, err)
	}
	return success(Received, text, fmt.Sprintf("Received %d bytes", frame.Length))
}

func (c *Controller) rejected(d Direction) Outcome {
	c.Logger.Warn().Str("direction", string(d)).Msg("rejected, controller busy")
	return failure(d, ErrBusy)
}

func (c *Controller) emit(o Outcome) {
	event := c.Logger.Info()
	if !o.OK() {
		event = c.Logger.Warn()
	}
	event.Str("direction", string(o.Direction)).
		Str("status", string(o.Status)).
		Str("detail", o.Detail).
		Msg("attempt finished")

	if c.Sink == nil {
		return
	}
	if err := c.Sink.Record(o); err != nil {
		c.Logger.Error().Err(err).Msg("failed to record outcome")
	}
}

func success(d Direction, text, detail string) Outcome {
	return Outcome{
		Direction: d,
		Status:    Success,
		Text:      text,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

func failure(d Direction, err error) Outcome {
	return Outcome{
		Direction: d,
		Status:    Failure,
		Detail:    err.Error(),
		Timestamp: time.Now(),
		Err:       err,
	}
}
