package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplexLoopback(t *testing.T) {
	d := &Duplex{Device: &Loopback{SampleRate: 44100 * 16}}
	defer d.Close()

	capture, err := d.Start()
	require.NoError(t, err)

	track := make([]int32, 3000)
	for i := range track {
		track[i] = int32(i + 1)
	}
	require.NoError(t, d.Play(track))

	var heard []int32
	timeout := time.After(2 * time.Second)
	for len(heard) < len(track) {
		select {
		case block := <-capture:
			for _, v := range block {
				if v != 0 || len(heard) > 0 {
					heard = append(heard, v)
				}
			}
		case <-timeout:
			t.Fatalf("heard %d of %d samples", len(heard), len(track))
		}
	}
	assert.Equal(t, track, heard[:len(track)])

	d.Stop()
	for range capture {
	}
}

func TestDuplexPlayAfterClose(t *testing.T) {
	d := &Duplex{Device: &Loopback{SampleRate: 44100 * 16}}
	require.NoError(t, d.Play(make([]int32, 10)))
	d.Close()

	// reopens the device
	require.NoError(t, d.Play(make([]int32, 10)))
	d.Close()
}
