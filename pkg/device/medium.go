package device

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// Link connects a node to the buffer it listens on and the buffer it emits into.
type Link[ID comparable] struct {
	In  ID
	Out ID
}

type mediumNode[ID comparable] struct {
	*Medium[ID]
	input    []int32
	output   []int32
	callback func(in, out []int32)
	running  bool
}

// Medium simulates a shared acoustic channel. Every period, each running node reads the
// buffer named by its link's In and writes its output. All outputs emitted into a
// buffer are summed, then noise is added, to form that buffer's next content.
type Medium[ID comparable] struct {
	SampleRate float64    // the fake sample rate, 0 means no limit
	Links      []Link[ID] // one node per link
	Noise      float64    // gaussian noise added to every buffer, in full scale
	Seed       uint64
	LateUpdate func() // called after every period

	mu      sync.Mutex
	buffers map[ID][]int32
	nodes   []*mediumNode[ID]
	active  int
	done    chan struct{}
	wg      sync.WaitGroup
}

func (m *Medium[ID]) buffer(name ID) []int32 {
	buf, ok := m.buffers[name]
	if !ok {
		buf = alloci32(BufferSize)
		m.buffers[name] = buf
	}
	return buf
}

// Build creates one Device per link, in order.
func (m *Medium[ID]) Build() []Device {
	m.buffers = make(map[ID][]int32)
	m.nodes = nil
	devices := make([]Device, 0, len(m.Links))
	for _, link := range m.Links {
		node := &mediumNode[ID]{
			Medium: m,
			input:  m.buffer(link.In),
			output: alloci32(BufferSize),
		}
		m.nodes = append(m.nodes, node)
		devices = append(devices, node)
	}
	return devices
}

func (m *Medium[ID]) update(r *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, node := range m.nodes {
		if node.running {
			node.callback(node.input, node.output)
		} else {
			cleari32(node.output)
		}
	}

	// clear the buffers
	for _, buf := range m.buffers {
		cleari32(buf)
	}

	// sum up the output of all the nodes into the buffer they emit into
	for i, link := range m.Links {
		buf := m.buffers[link.Out]
		sumi32(buf, m.nodes[i].output, buf)
	}

	for _, buf := range m.buffers {
		noisei32(r, buf, m.Noise)
	}

	if m.LateUpdate != nil {
		m.LateUpdate()
	}
}

func (m *Medium[ID]) run(done chan struct{}) {
	defer m.wg.Done()
	r := newRand(m.Seed)

	interval := period(m.SampleRate, BufferSize)
	if interval == 0 {
		for {
			select {
			case <-done:
				return
			default:
				m.update(r)
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
			m.update(r)
		}
	}
}

// Stop stops every node.
func (m *Medium[ID]) Stop() {
	for _, node := range m.nodes {
		node.Stop()
	}
}

func (d *mediumNode[ID]) Start(callback func(in, out []int32)) error {
	m := d.Medium
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.running {
		return nil
	}
	d.callback = callback
	d.running = true
	m.active++
	if m.active == 1 {
		m.done = make(chan struct{})
		m.wg.Add(1)
		go m.run(m.done)
	}
	return nil
}

func (d *mediumNode[ID]) Stop() {
	m := d.Medium
	m.mu.Lock()
	if !d.running {
		m.mu.Unlock()
		return
	}
	d.running = false
	d.callback = nil
	m.active--
	last := m.active == 0
	if last {
		close(m.done)
	}
	m.mu.Unlock()
	if last {
		m.wg.Wait()
	}
}
