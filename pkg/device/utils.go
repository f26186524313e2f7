package device

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
)

func cleari32(a []int32) {
	for i := range a {
		a[i] = 0
	}
}

func randi32(a []int32) {
	for i := range a {
		a[i] = rand.Int31()
	}
}

func saturate(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	} else if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

func sumi32(a, b, c []int32) {
	for i := range a {
		c[i] = saturate(int64(a[i]) + int64(b[i]))
	}
}

// noisei32 adds white gaussian noise with the given deviation, in units of full scale.
func noisei32(r *rand.Rand, a []int32, sigma float64) {
	if sigma == 0 {
		return
	}
	for i := range a {
		a[i] = saturate(int64(a[i]) + int64(sigma*r.NormFloat64()*math.MaxInt32))
	}
}

func alloci32(n int) []int32 {
	return make([]int32, n)
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewSource(seed))
}

// period is the wall time of one buffer at sampleRate, 0 means unpaced.
func period(sampleRate float64, bufferSize int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) * float64(bufferSize) / sampleRate)
}
