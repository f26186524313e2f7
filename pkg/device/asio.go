//go:build windows

package device

import "github.com/xsjk/go-asio"

func init() {
	backends["asio"] = func(o Options) Device {
		return &ASIOMono{DeviceName: o.DeviceName, SampleRate: o.SampleRate}
	}
}

type ASIOMono struct {
	DeviceName string
	SampleRate float64
	InChannel  int
	OutChannel int
	device     asio.Device
}

func (a *ASIOMono) Start(callback func(in, out []int32)) error {
	a.device.Load(a.DeviceName)
	a.device.SetSampleRate(a.SampleRate)
	a.device.Open()
	a.device.Start(func(in, out [][]int32) {
		callback(in[a.InChannel], out[a.OutChannel])
	})
	return nil
}

func (a *ASIOMono) Stop() {
	a.device.Stop()
	a.device.Close()
	a.device.Unload()
}
