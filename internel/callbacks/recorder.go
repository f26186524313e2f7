package callbacks

import "sync"

// Recorder copies every input buffer into a channel while started. Buffers that find the
// channel full are dropped and counted.
type Recorder struct {
	OnDrop func(total int)

	mu      sync.Mutex
	out     chan []int32
	dropped int
}

// Start opens a new channel holding up to depth buffers. A previous channel is closed.
func (r *Recorder) Start(depth int) <-chan []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out != nil {
		close(r.out)
	}
	r.out = make(chan []int32, depth)
	return r.out
}

func (r *Recorder) Update(in []int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return
	}
	select {
	case r.out <- append([]int32(nil), in...):
	default:
		r.dropped++
		if r.OnDrop != nil {
			r.OnDrop(r.dropped)
		}
	}
}

func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out != nil {
		close(r.out)
		r.out = nil
	}
}

func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
