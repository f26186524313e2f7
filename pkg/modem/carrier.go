package modem

import "math"

type CarrierConfig struct {
	Amplitude  float64
	Freq       float64
	Phase      float64 // radians at sample 0
	SampleRate float64
	Size       int
}

func (p CarrierConfig) New() []float64 {
	signal := make([]float64, p.Size)
	for i := range signal {
		t := float64(i) / p.SampleRate
		signal[i] = p.Amplitude * math.Sin(2*math.Pi*p.Freq*t+p.Phase)
	}
	return signal
}

// EndPhase is the phase the carrier reaches one sample past its end.
func (p CarrierConfig) EndPhase() float64 {
	return math.Mod(p.Phase+2*math.Pi*p.Freq*float64(p.Size)/p.SampleRate, 2*math.Pi)
}

// quadrature returns the unit sine and cosine references of one carrier.
func (p CarrierConfig) quadrature() (sin, cos []float64) {
	p.Amplitude = 1
	p.Phase = 0
	sin = p.New()
	p.Phase = math.Pi / 2
	cos = p.New()
	return
}
