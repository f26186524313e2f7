package modem

// Modulator renders bits as binary FSK. The phase carries over between symbols so the
// waveform has no discontinuity at bit boundaries.
type Modulator struct {
	SampleRate       float64
	Freqs            [2]float64 // tone for bit 0 and bit 1
	SamplesPerSymbol int
	Amplitude        float64 // in (0, 1]
}

// Modulate returns len(inputBits)*SamplesPerSymbol samples.
func (m Modulator) Modulate(inputBits []bool) []int32 {
	modulatedData := make([]int32, 0, len(inputBits)*m.SamplesPerSymbol)

	phase := 0.0
	for _, bit := range inputBits {
		carrier := CarrierConfig{
			Amplitude:  m.Amplitude,
			Freq:       m.Freqs[0],
			Phase:      phase,
			SampleRate: m.SampleRate,
			Size:       m.SamplesPerSymbol,
		}
		if bit {
			carrier.Freq = m.Freqs[1]
		}
		for _, v := range carrier.New() {
			modulatedData = append(modulatedData, Float64ToSample(v))
		}
		phase = carrier.EndPhase()
	}

	return modulatedData
}
