package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"AcousticTxRx/cmd/txrx/config"
	"AcousticTxRx/internel/logging"
	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/history"
	"AcousticTxRx/pkg/session"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app is the state shared by all commands once flags and the config file are resolved.
type app struct {
	cfg     config.Config
	cfgPath string
	log     zerolog.Logger
	closer  io.Closer
}

func (a *app) setup(cmd *cobra.Command) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if a.cfgPath != "" {
		if err := config.LoadConfig(a.cfgPath, &a.cfg, changed); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	log, closer, err := logging.New(a.cfg.Logging(), os.Stderr)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log = log
	a.closer = closer
	a.log.Debug().Interface("config", a.cfg).Msg("configuration")
	return nil
}

func (a *app) teardown() {
	if a.closer != nil {
		a.closer.Close()
	}
}

// station is a controller on the configured audio device, recording to the history
// store when it is enabled.
type station struct {
	*session.Controller
	duplex *device.Duplex
	store  *history.Store
}

func (a *app) openStation() (*station, error) {
	d, err := config.CreateDuplex(&a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	store, err := config.CreateHistory(&a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	var sink session.Sink
	if store != nil {
		sink = store
	}
	c, err := config.CreateController(&a.cfg, d, d, sink, a.log)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return &station{Controller: c, duplex: d, store: store}, nil
}

func (s *station) Close() {
	s.duplex.Close()
	if s.store != nil {
		s.store.Close()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// report prints an outcome for the user and turns a failure into an error.
func report(w io.Writer, o session.Outcome) error {
	if !o.OK() {
		return fmt.Errorf("%s failed: %s", o.Direction, o.Detail)
	}
	if o.Direction == session.Received {
		fmt.Fprintln(w, o.Text)
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "txrx",
		Short:         "Send and receive short text messages over sound",
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to a yaml or toml config file")
	f.StringVar(&a.cfg.Backend, "backend", a.cfg.Backend, fmt.Sprintf("audio backend (%v)", device.Backends()))
	f.StringVar(&a.cfg.DeviceName, "device", a.cfg.DeviceName, "audio device name, backends that support it")
	f.Float64Var(&a.cfg.SampleRate, "sample-rate", a.cfg.SampleRate, "sample rate in Hz")
	f.IntVar(&a.cfg.BufferSize, "buffer-size", a.cfg.BufferSize, "device buffer size in samples")
	f.Float64Var(&a.cfg.Noise, "noise", a.cfg.Noise, "gaussian noise added by simulated backends, full scale")
	f.IntVar(&a.cfg.CaptureDepth, "capture-depth", a.cfg.CaptureDepth, "captured buffers held for a slow reader")
	f.DurationVar(&a.cfg.SymbolDuration, "symbol", a.cfg.SymbolDuration, "duration of one bit")
	f.Float64Var(&a.cfg.Freq0, "freq0", a.cfg.Freq0, "tone for bit 0 in Hz")
	f.Float64Var(&a.cfg.Freq1, "freq1", a.cfg.Freq1, "tone for bit 1 in Hz")
	f.Float64Var(&a.cfg.Power, "power", a.cfg.Power, "output amplitude in (0, 1]")
	f.Float64Var(&a.cfg.Threshold, "threshold", a.cfg.Threshold, "minimum tone amplitude taken as signal")
	f.Float64Var(&a.cfg.Ratio, "ratio", a.cfg.Ratio, "minimum strong to weak tone ratio taken as signal")
	f.IntVar(&a.cfg.MaxPayload, "max-payload", a.cfg.MaxPayload, "largest payload in bytes")
	f.IntVar(&a.cfg.Hop, "hop", a.cfg.Hop, "preamble search step in samples (0: an eighth of a symbol)")
	f.StringVar(&a.cfg.HistoryDir, "history-dir", a.cfg.HistoryDir, "outcome log directory")
	f.BoolVar(&a.cfg.NoHistory, "no-history", a.cfg.NoHistory, "do not record outcomes")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	f.StringVar(&a.cfg.LogFile, "log-file", a.cfg.LogFile, "also write JSON logs to this rotated file")
	f.BoolVar(&a.cfg.LogJSON, "log-json", a.cfg.LogJSON, "write JSON logs to stderr")

	root.AddCommand(
		newSendCmd(a),
		newReceiveCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newLoopbackCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func main() {
	a := &app{cfg: config.Default()}
	if err := newRootCmd(a).Execute(); err != nil {
		log := logging.Stderr()
		log.Error().Err(err).Msg("txrx")
		a.teardown()
		os.Exit(1)
	}
}
