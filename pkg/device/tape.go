package device

import (
	"sync"
	"time"
)

// Tape is an in-memory Output and Capture. Capture replays everything played so far,
// preceded by Lead samples of silence, with optional noise.
type Tape struct {
	SampleRate float64 // paces capture, 0 means as fast as it is read
	BufferSize int     // capture block size, 0 means BufferSize
	Lead       int     // silent samples before the recording
	Noise      float64 // gaussian noise, in full scale
	Seed       uint64
	Endless    bool // keep yielding silence after the recording until Stop

	mu        sync.Mutex
	recording []int32
	plays     int
	stop      chan struct{}
	wg        sync.WaitGroup
}

func (t *Tape) Play(samples []int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = append(t.recording, samples...)
	t.plays++
	return nil
}

// Plays counts Play calls.
func (t *Tape) Plays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plays
}

func (t *Tape) Recording() []int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int32(nil), t.recording...)
}

func (t *Tape) Rewind() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = nil
	t.plays = 0
}

func (t *Tape) Start() (<-chan []int32, error) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	stop := make(chan struct{})
	t.stop = stop

	size := t.BufferSize
	if size <= 0 {
		size = BufferSize
	}
	track := make([]int32, t.Lead, t.Lead+len(t.recording))
	track = append(track, t.recording...)
	r := newRand(t.Seed)
	interval := period(t.SampleRate, size)
	out := make(chan []int32)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer close(out)

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for pos := 0; pos < len(track) || t.Endless; pos += size {
			block := alloci32(size)
			if pos < len(track) {
				n := copy(block, track[pos:])
				if !t.Endless {
					block = block[:n]
				}
			}
			noisei32(r, block, t.Noise)

			if tick != nil {
				select {
				case <-tick:
				case <-stop:
					return
				}
			}
			select {
			case out <- block:
			case <-stop:
				return
			}
		}
	}()
	return out, nil
}

func (t *Tape) Stop() {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
	t.wg.Wait()
}
