package device

import (
	"sync"
	"time"
)

// Loopback feeds every output buffer back as the next input buffer.
type Loopback struct {
	SampleRate float64 // the fake sample rate, 0 means no limit
	BufferSize int     // 0 means BufferSize
	Noise      float64 // gaussian noise added to the input, in full scale
	Seed       uint64

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func (d *Loopback) Start(callback func(in, out []int32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return nil
	}
	d.done = make(chan struct{})

	size := d.BufferSize
	if size <= 0 {
		size = BufferSize
	}
	done := d.done
	r := newRand(d.Seed)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		var buf = [2][]int32{alloci32(size), alloci32(size)}

		swap := true
		update := func() {
			in, out := buf[0], buf[1]
			if !swap {
				in, out = out, in
			}
			noisei32(r, in, d.Noise)
			callback(in, out)
			swap = !swap
		}

		interval := period(d.SampleRate, size)
		if interval == 0 {
			for {
				select {
				case <-done:
					return
				default:
					update()
				}
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				update()
			}
		}
	}()
	return nil
}

// Stop returns after the last callback has finished.
func (d *Loopback) Stop() {
	d.mu.Lock()
	if d.done != nil {
		close(d.done)
		d.done = nil
	}
	d.mu.Unlock()
	d.wg.Wait()
}
