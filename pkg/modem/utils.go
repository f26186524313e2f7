package modem

// dotProduct of a full scale int32 signal with a float reference, in units of full scale.
func dotProduct(a []int32, b []float64) float64 {
	s := 0.0
	for i := range min(len(a), len(b)) {
		s += float64(a[i]) * b[i]
	}
	return s / fullScale
}
