package modem

const fullScale = 0x7fffffff

// Float64ToSample converts v in [-1, 1] to a full scale sample, clipping out of range values.
func Float64ToSample(v float64) int32 {
	if v >= 1 {
		return fullScale
	}
	if v <= -1 {
		return -fullScale
	}
	return int32(v * fullScale)
}
