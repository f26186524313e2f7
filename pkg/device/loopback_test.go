package device

import (
	"reflect"
	"testing"
	"time"
)

func TestLoopback(t *testing.T) {

	lastOutput := alloci32(BufferSize)
	calls := 0

	var dev Device = &Loopback{
		SampleRate: 48000 * 8,
	}

	err := dev.Start(func(in, out []int32) {
		if !reflect.DeepEqual(in, lastOutput) {
			t.Errorf("Expected %v, but got %v", lastOutput, in)
		}

		randi32(out)
		copy(lastOutput, out)
		calls++
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	dev.Stop()

	if calls == 0 {
		t.Error("Expected the callback to run")
	}
}

func TestLoopbackUnpaced(t *testing.T) {
	calls := 0
	dev := &Loopback{BufferSize: 16}
	dev.Start(func(in, out []int32) {
		calls++
	})
	time.Sleep(5 * time.Millisecond)
	dev.Stop()

	after := calls
	time.Sleep(5 * time.Millisecond)
	if calls != after {
		t.Error("Expected no callback after Stop")
	}
	if len(Backends()) == 0 {
		t.Error("Expected registered backends")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("theremin", Options{}); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
	dev, err := New("loopback", Options{SampleRate: 44100})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dev.(*Loopback); !ok {
		t.Errorf("Expected *Loopback, got %T", dev)
	}
}
