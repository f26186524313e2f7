package modem

import (
	"fmt"
	"math"
	"time"
)

// Config holds the parameters both peers must agree on. There is no in-band negotiation.
type Config struct {
	SampleRate     float64       // Hz
	SymbolDuration time.Duration // length of one bit
	Freqs          [2]float64    // tone for bit 0 and bit 1
	Power          float64       // output amplitude in (0, 1]
	Threshold      float64       // minimum tone amplitude taken as signal
	Ratio          float64       // minimum strong/weak tone ratio taken as signal
	MaxPayload     int           // bytes
}

func DefaultConfig() Config {
	return Config{
		SampleRate:     44100,
		SymbolDuration: 40 * time.Millisecond,
		Freqs:          [2]float64{2000, 3000},
		Power:          0.5,
		Threshold:      0.02,
		Ratio:          2,
		MaxPayload:     MaxLength,
	}
}

func (c Config) SamplesPerSymbol() int {
	return int(math.Round(c.SampleRate * c.SymbolDuration.Seconds()))
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, c.SampleRate)
	case c.SamplesPerSymbol() < 8:
		return fmt.Errorf("%w: symbol of %v holds %d samples", ErrInvalidConfig, c.SymbolDuration, c.SamplesPerSymbol())
	case c.Power <= 0 || c.Power > 1:
		return fmt.Errorf("%w: power %v not in (0, 1]", ErrInvalidConfig, c.Power)
	case c.Threshold < 0:
		return fmt.Errorf("%w: threshold %v", ErrInvalidConfig, c.Threshold)
	case c.Ratio < 1:
		return fmt.Errorf("%w: ratio %v below 1", ErrInvalidConfig, c.Ratio)
	case c.MaxPayload < 1 || c.MaxPayload > MaxLength:
		return fmt.Errorf("%w: max payload %d not in [1, %d]", ErrInvalidConfig, c.MaxPayload, MaxLength)
	case c.Freqs[0] == c.Freqs[1]:
		return fmt.Errorf("%w: identical tones", ErrInvalidConfig)
	}
	for _, f := range c.Freqs {
		if f <= 0 || f >= c.SampleRate/2 {
			return fmt.Errorf("%w: tone %v Hz outside (0, %v)", ErrInvalidConfig, f, c.SampleRate/2)
		}
	}
	return nil
}

func (c Config) Modulator() Modulator {
	return Modulator{
		SampleRate:       c.SampleRate,
		Freqs:            c.Freqs,
		SamplesPerSymbol: c.SamplesPerSymbol(),
		Amplitude:        c.Power,
	}
}

func (c Config) Demodulator() *Demodulator {
	return &Demodulator{
		SampleRate:       c.SampleRate,
		Freqs:            c.Freqs,
		SamplesPerSymbol: c.SamplesPerSymbol(),
		Threshold:        c.Threshold,
		Ratio:            c.Ratio,
	}
}

func (c Config) FrameCodec() FrameCodec {
	return FrameCodec{MaxPayload: c.MaxPayload}
}
