package layers

import (
	"fmt"
	"time"

	"AcousticTxRx/pkg/device"

	"github.com/rs/zerolog"
)

// Transmitter plays one modulated frame to completion.
type Transmitter struct {
	Output     device.Output
	SampleRate float64
	Logger     zerolog.Logger
}

// Transmit blocks until the output has played every sample of pcm.
func (t Transmitter) Transmit(pcm []int32) error {
	duration := time.Duration(float64(len(pcm)) / t.SampleRate * float64(time.Second))
	t.Logger.Debug().Int("samples", len(pcm)).Dur("duration", duration).Msg("playing frame")

	start := time.Now()
	if err := t.Output.Play(pcm); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	t.Logger.Debug().Dur("elapsed", time.Since(start)).Msg("frame played")
	return nil
}
