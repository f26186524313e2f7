package modem

import (
	"math"
	"sync"
)

// Demodulator estimates the energy of both FSK tones over one symbol window with a
// quadrature correlator, so the result does not depend on the carrier phase.
type Demodulator struct {
	SampleRate       float64
	Freqs            [2]float64
	SamplesPerSymbol int
	Threshold        float64 // minimum amplitude of the stronger tone
	Ratio            float64 // minimum strong/weak amplitude ratio

	once sync.Once
	sin  [2][]float64
	cos  [2][]float64
}

func (d *Demodulator) init() {
	for i, f := range d.Freqs {
		d.sin[i], d.cos[i] = CarrierConfig{
			Freq:       f,
			SampleRate: d.SampleRate,
			Size:       d.SamplesPerSymbol,
		}.quadrature()
	}
}

func (d *Demodulator) SymbolSize() int {
	return d.SamplesPerSymbol
}

// Energy returns the estimated amplitude of each tone in window, in units of full scale.
// A pure tone of amplitude A spanning the window yields about A for its own frequency.
func (d *Demodulator) Energy(window []int32) (e0, e1 float64) {
	d.once.Do(d.init)
	n := min(len(window), d.SamplesPerSymbol)
	if n == 0 {
		return 0, 0
	}
	var e [2]float64
	for i := range e {
		s := dotProduct(window[:n], d.sin[i])
		c := dotProduct(window[:n], d.cos[i])
		e[i] = 2 * math.Sqrt(s*s+c*c) / float64(n)
	}
	return e[0], e[1]
}

// Demodulate decides the bit carried by window. ok is false when neither tone is
// clearly present: the stronger one is below Threshold or not Ratio times the weaker.
func (d *Demodulator) Demodulate(window []int32) (bit bool, ok bool) {
	e0, e1 := d.Energy(window)
	strong, weak := e0, e1
	if e1 > e0 {
		strong, weak = e1, e0
	}
	if strong < d.Threshold || strong <= weak || strong < d.Ratio*weak {
		return false, false
	}
	return e1 > e0, true
}

// Decide forces a decision, used once the symbol timing is locked.
func (d *Demodulator) Decide(window []int32) bool {
	e0, e1 := d.Energy(window)
	return e1 > e0
}
