//go:build cgo

package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

func init() {
	backends["portaudio"] = func(o Options) Device {
		return &PortAudio{SampleRate: o.SampleRate, FramesPerBuffer: o.BufferSize}
	}
}

// PortAudio runs the default input and output devices as one mono duplex stream.
type PortAudio struct {
	SampleRate      float64
	FramesPerBuffer int // 0 means BufferSize

	stream *portaudio.Stream
}

func (p *PortAudio) Start(callback func(in, out []int32)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	frames := p.FramesPerBuffer
	if frames <= 0 {
		frames = BufferSize
	}
	stream, err := portaudio.OpenDefaultStream(1, 1, p.SampleRate, frames, callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio: %w", err)
	}
	p.stream = stream
	return nil
}

func (p *PortAudio) Stop() {
	if p.stream == nil {
		return
	}
	p.stream.Stop()
	p.stream.Close()
	p.stream = nil
	portaudio.Terminate()
}
