package device

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// pcmStreamer streams mono full scale samples as beep stereo frames.
type pcmStreamer struct {
	samples []int32
	pos     int
}

func (s *pcmStreamer) Stream(frames [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy32to64(frames, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *pcmStreamer) Err() error {
	return nil
}

func copy32to64(frames [][2]float64, samples []int32) int {
	n := min(len(frames), len(samples))
	for i := range n {
		v := float64(samples[i]) / math.MaxInt32
		frames[i] = [2]float64{v, v}
	}
	return n
}

// WAVWriter is an Output that writes each played buffer to Path as a mono 16 bit WAV
// file, replacing what was there.
type WAVWriter struct {
	Path       string
	SampleRate float64
}

func (w WAVWriter) Play(samples []int32) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	format := beep.Format{
		SampleRate:  beep.SampleRate(w.SampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(f, &pcmStreamer{samples: samples}, format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}

// WAVReader is a Capture that yields the samples of a WAV file, mixed down to mono and
// resampled to SampleRate, then ends the stream.
type WAVReader struct {
	Path       string
	SampleRate float64
	BufferSize int // 0 means BufferSize

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

func (r *WAVReader) Start() (<-chan []int32, error) {
	r.Stop()

	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}

	// beep decodes signed PCM (16 and 24 bit) onto [-0.5, 0.5]
	gain := 1.0
	if format.Precision >= 2 {
		gain = 2
	}

	var source beep.Streamer = streamer
	if target := beep.SampleRate(r.SampleRate); target != 0 && target != format.SampleRate {
		source = beep.Resample(4, format.SampleRate, target, streamer)
	}

	size := r.BufferSize
	if size <= 0 {
		size = BufferSize
	}

	r.mu.Lock()
	stop := make(chan struct{})
	r.stop = stop
	r.mu.Unlock()

	out := make(chan []int32)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(out)
		defer streamer.Close()

		frames := make([][2]float64, size)
		for {
			n, ok := source.Stream(frames)
			if n > 0 {
				block := make([]int32, n)
				for i := range block {
					block[i] = saturate(int64((frames[i][0] + frames[i][1]) / 2 * gain * math.MaxInt32))
				}
				select {
				case out <- block:
				case <-stop:
					return
				}
			}
			if !ok {
				return
			}
		}
	}()
	return out, nil
}

func (r *WAVReader) Stop() {
	r.mu.Lock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}
