package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"AcousticTxRx/cmd/txrx/config"
	"AcousticTxRx/internel/utils"
	"AcousticTxRx/pkg/async"
	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/layers"
	"AcousticTxRx/pkg/session"

	"github.com/spf13/cobra"
)

func isPCM(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pcm")
}

// pcmFile is an Output writing each played buffer to a raw PCM file.
type pcmFile string

func (f pcmFile) Play(samples []int32) error {
	return utils.WritePCM(string(f), samples)
}

func newEncodeCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "encode <text>",
		Short:   "Write the modulated frame of text to a WAV or raw PCM file",
		Example: `  txrx encode "HELLO" -o hello.wav`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out device.Output = device.WAVWriter{Path: output, SampleRate: a.cfg.SampleRate}
			if isPCM(output) {
				out = pcmFile(output)
			}
			c, err := config.CreateController(&a.cfg, out, &device.Tape{}, nil, a.log)
			if err != nil {
				return err
			}
			o := c.Send(args[0])
			if err := report(cmd.OutOrStdout(), o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", output, o.Detail)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "frame.wav", "output file, .wav or .pcm")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var dump string

	cmd := &cobra.Command{
		Use:     "decode <file>",
		Short:   "Receive one frame from a WAV or raw PCM recording",
		Example: `  txrx decode hello.wav`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openRecording(args[0], a.cfg.SampleRate)
			if err != nil {
				return err
			}
			if dump != "" {
				tap, err := newDumpTap(in, dump, a.log)
				if err != nil {
					return err
				}
				defer tap.Close()
				in = tap
			}
			c, err := config.CreateController(&a.cfg, &device.Tape{}, in, nil, a.log)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), c.Receive(a.cfg.ReceiveTimeout))
		},
	}
	cmd.Flags().StringVar(&dump, "dump", "", "write the decoded audio to this raw PCM file")
	return cmd
}

func openRecording(path string, sampleRate float64) (device.Capture, error) {
	if !isPCM(path) {
		return &device.WAVReader{Path: path, SampleRate: sampleRate}, nil
	}
	samples, err := utils.ReadPCM[int32](path)
	if err != nil {
		return nil, err
	}
	tape := &device.Tape{}
	tape.Play(samples)
	return tape, nil
}

func newLoopbackCmd(a *app) *cobra.Command {
	var speed float64

	cmd := &cobra.Command{
		Use:     "loopback <text>",
		Short:   "Send text to a receiver over simulated air and print what it heard",
		Example: `  txrx loopback "HELLO" --noise 0.05 --speed 8`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// both stations hear everything emitted into the air, their own output included
			air := &device.Medium[string]{
				SampleRate: a.cfg.SampleRate * speed,
				Links:      []device.Link[string]{{In: "air", Out: "air"}, {In: "air", Out: "air"}},
				Noise:      a.cfg.Noise,
			}
			nodes := air.Build()
			defer air.Stop()

			stations := make([]*session.Controller, len(nodes))
			for i, name := range []string{"tx", "rx"} {
				log := a.log.With().Str("station", name).Logger()
				d := &device.Duplex{
					Device: nodes[i],
					Depth:  4096,
					Logger: log.With().Str("component", "Device").Logger(),
				}
				defer d.Close()
				c, err := config.CreateController(&a.cfg, d, d, nil, log)
				if err != nil {
					return err
				}
				stations[i] = c
			}
			tx, rx := stations[0], stations[1]

			sent, received := exchange(tx, rx, args[0], a.cfg.ReceiveTimeout)
			if !sent.OK() {
				return report(cmd.OutOrStdout(), sent)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent: %s\n", sent.Detail)
			return report(cmd.OutOrStdout(), received)
		},
	}
	cmd.Flags().Float64Var(&speed, "speed", 1, "run the simulated air this many times faster than real time")
	return cmd
}

// exchange starts rx listening, then sends text from tx once rx is searching.
func exchange(tx, rx *session.Controller, text string, timeout time.Duration) (sent, received session.Outcome) {
	searching := make(chan struct{})
	var once sync.Once
	rx.Listener.OnState = func(s layers.State) {
		if s == layers.Searching {
			once.Do(func() { close(searching) })
		}
	}

	heard := async.Promise(func() session.Outcome {
		defer once.Do(func() { close(searching) })
		return rx.Receive(timeout)
	})
	said := async.Promise(func() session.Outcome {
		<-searching
		return tx.Send(text)
	})
	return async.Await2(async.Gather2(said, heard))
}
