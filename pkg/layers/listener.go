package layers

import (
	"fmt"
	"time"

	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/modem"

	"github.com/rs/zerolog"
)

type State int

const (
	Searching State = iota
	Synchronized
	Collecting
	Done
)

func (s State) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case Synchronized:
		return "SYNCHRONIZED"
	case Collecting:
		return "COLLECTING"
	case Done:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Detector decides symbols from symbol-length windows. *modem.Demodulator implements it.
type Detector interface {
	SymbolSize() int
	Energy(window []int32) (e0, e1 float64)
	Demodulate(window []int32) (bit bool, ok bool)
	Decide(window []int32) bool
}

// Listener receives a single frame from a Capture.
//
// While searching, a symbol window hops across the captured audio until every preamble
// symbol demodulates to its expected bit. The symbol edge is then refined within half a
// symbol and held for the rest of the frame, one forced decision per symbol. A length
// field of 0 or above the codec limit is taken as a false lock and searching resumes one
// symbol past it.
type Listener struct {
	Capture  device.Capture
	Detector Detector
	Codec    modem.FrameCodec
	Hop      int // search step in samples, 0 means an eighth of a symbol
	Logger   zerolog.Logger
	OnState  func(State)
}

// Listen returns the first valid frame heard before deadline. The capture is started
// on entry and stopped on return. Audio following the frame is discarded.
func (l *Listener) Listen(deadline time.Time) (modem.Frame, error) {
	samples, err := l.Capture.Start()
	if err != nil {
		return modem.Frame{}, fmt.Errorf("start capture: %w", err)
	}
	defer l.Capture.Stop()

	s := newScanner(l)
	s.setState(Searching)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		frame, done, err := s.step(deadline)
		if done {
			s.setState(Done)
			return frame, err
		}
		if s.eof {
			err := s.ended()
			s.setState(Done)
			return modem.Frame{}, err
		}

		select {
		case block, ok := <-samples:
			if !ok {
				s.eof = true
				continue
			}
			s.buf = append(s.buf, block...)
		case <-timer.C:
			err := s.timeout()
			s.setState(Done)
			return modem.Frame{}, err
		}
	}
}

type scanner struct {
	*Listener
	sps      int
	hop      int
	preamble []bool

	state State
	buf   []int32
	pos   int // search position while searching, candidate edge once synchronized
	start int // first sample of the locked frame
	bits  []bool
	total int // frame size in bits, known once the length field is in
	eof   bool
}

func newScanner(l *Listener) *scanner {
	sps := l.Detector.SymbolSize()
	hop := l.Hop
	if hop <= 0 {
		hop = max(sps/8, 1)
	}
	return &scanner{
		Listener: l,
		sps:      sps,
		hop:      hop,
		preamble: modem.Preamble(),
		state:    -1,
	}
}

func (s *scanner) setState(state State) {
	if s.state == state {
		return
	}
	s.state = state
	s.Logger.Debug().Stringer("state", state).Msg("listener state")
	if s.OnState != nil {
		s.OnState(state)
	}
}

func (s *scanner) window(at int) []int32 {
	return s.buf[at : at+s.sps]
}

// step consumes buffered audio until it needs more, the frame is complete, or the
// deadline has passed.
func (s *scanner) step(deadline time.Time) (modem.Frame, bool, error) {
	for {
		if !time.Now().Before(deadline) {
			return modem.Frame{}, true, s.timeout()
		}

		switch s.state {
		case Searching:
			if s.pos+s.sps > len(s.buf) {
				return modem.Frame{}, false, nil
			}
			if bit, ok := s.Detector.Demodulate(s.window(s.pos)); !ok || bit != s.preamble[0] {
				s.advance()
				continue
			}
			if s.pos+modem.PreambleBits*s.sps > len(s.buf) {
				return modem.Frame{}, false, nil
			}
			if !s.matchPreamble(s.pos) {
				s.advance()
				continue
			}
			s.setState(Synchronized)

		case Synchronized:
			lo := max(s.pos-s.sps/2, 0)
			hi := s.pos + s.sps/2
			if last := len(s.buf) - modem.PreambleBits*s.sps; hi > last {
				if !s.eof {
					return modem.Frame{}, false, nil
				}
				hi = last
			}
			s.start = s.refine(lo, hi)
			s.bits = append(s.bits[:0], s.preamble...)
			s.total = 0
			s.Logger.Info().Int("candidate", s.pos).Int("edge", s.start).Msg("preamble locked")
			s.setState(Collecting)

		case Collecting:
			at := s.start + len(s.bits)*s.sps
			if at+s.sps > len(s.buf) {
				// a recording may end inside the last symbol
				if !s.eof || len(s.buf)-at < 3*s.sps/4 {
					return modem.Frame{}, false, nil
				}
				s.buf = append(s.buf, make([]int32, at+s.sps-len(s.buf))...)
			}
			s.bits = append(s.bits, s.Detector.Decide(s.window(at)))

			if len(s.bits) == modem.HeaderBits {
				n, err := s.Codec.ParseLength(s.bits)
				if err != nil {
					s.Logger.Debug().Err(err).Msg("false lock, searching again")
					s.pos = s.start + s.sps
					s.bits = s.bits[:0]
					s.setState(Searching)
					continue
				}
				s.total = modem.FrameBits(n)
				s.Logger.Debug().Int("length", n).Msg("length field decoded")
			}
			if s.total > 0 {
				if len(s.bits) == s.total {
					frame, err := s.Codec.Decode(s.bits)
					return frame, true, err
				}
				// decided symbols are never read again
				if at >= 64*s.sps {
					s.buf = s.buf[at:]
					s.start -= at
				}
			}

		default:
			return modem.Frame{}, true, fmt.Errorf("listener in state %v", s.state)
		}
	}
}

func (s *scanner) advance() {
	s.pos += s.hop
	// refinement may look half a symbol behind pos
	if drop := s.pos - s.sps; drop >= 16*s.sps {
		s.buf = s.buf[drop:]
		s.pos -= drop
	}
}

func (s *scanner) matchPreamble(at int) bool {
	for k, want := range s.preamble {
		bit, ok := s.Detector.Demodulate(s.window(at + k*s.sps))
		if !ok || bit != want {
			return false
		}
	}
	return true
}

// refine returns the edge in [lo, hi] where the preamble tones stand out most. A coarse
// scan is narrowed down to the sample around its best offset.
func (s *scanner) refine(lo, hi int) int {
	step := max(s.sps/64, 1)
	best, bestScore := s.pos, s.score(s.pos)
	for at := lo; at <= hi; at += step {
		if score := s.score(at); score > bestScore {
			best, bestScore = at, score
		}
	}
	coarse := best
	for at := max(coarse-step+1, lo); at < min(coarse+step, hi+1); at++ {
		if score := s.score(at); score > bestScore {
			best, bestScore = at, score
		}
	}
	return best
}

func (s *scanner) score(at int) float64 {
	sum := 0.0
	for k, bit := range s.preamble {
		e0, e1 := s.Detector.Energy(s.window(at + k*s.sps))
		if bit {
			sum += e1 - e0
		} else {
			sum += e0 - e1
		}
	}
	return sum
}

func (s *scanner) timeout() error {
	if s.state == Collecting {
		return fmt.Errorf("%w: deadline reached after %d bits of the frame", modem.ErrTimeout, len(s.bits))
	}
	return fmt.Errorf("%w: no frame before the deadline", modem.ErrTimeout)
}

func (s *scanner) ended() error {
	if s.state == Collecting {
		_, err := s.Codec.Decode(s.bits)
		return err
	}
	return fmt.Errorf("%w: capture ended before a preamble", modem.ErrTimeout)
}
