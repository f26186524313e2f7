package callbacks

import (
	"sync"

	"AcousticTxRx/pkg/async"
)

type track struct {
	samples []int32
	idx     int
	done    async.Signal[struct{}]
}

// Player feeds queued tracks into output buffers, one after another, and pads with
// silence when the queue is empty.
type Player struct {
	mu      sync.Mutex
	queue   []*track
	current *track
}

// Enqueue schedules samples and returns a channel closed once the last sample has been
// written to an output buffer.
func (p *Player) Enqueue(samples []int32) <-chan struct{} {
	t := &track{samples: samples}
	done := t.done.Signal()
	if len(samples) == 0 {
		t.done.Notify()
		return done
	}
	p.mu.Lock()
	p.queue = append(p.queue, t)
	p.mu.Unlock()
	return done
}

func (p *Player) Update(out []int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := 0
	for i < len(out) {
		if p.current == nil {
			if len(p.queue) == 0 {
				break
			}
			p.current, p.queue = p.queue[0], p.queue[1:]
		}
		n := copy(out[i:], p.current.samples[p.current.idx:])
		p.current.idx += n
		i += n
		if p.current.idx == len(p.current.samples) {
			p.current.done.Notify()
			p.current = nil
		}
	}
	for ; i < len(out); i++ {
		out[i] = 0
	}
}

// Pending reports whether any queued samples are not yet written.
func (p *Player) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil || len(p.queue) > 0
}

// Reset drops every queued track. Their channels are closed.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.done.Notify()
		p.current = nil
	}
	for _, t := range p.queue {
		t.done.Notify()
	}
	p.queue = nil
}
