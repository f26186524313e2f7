package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"AcousticTxRx/internel/utils"
	"AcousticTxRx/pkg/async"
	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/history"
	"AcousticTxRx/pkg/session"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newReceiveCmd(a *app) *cobra.Command {
	var (
		listen bool
		dump   string
	)

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Listen for one frame and print its text",
		Example: strings.TrimSpace(`
  txrx receive --timeout 30s
  txrx receive --listen --dump capture.pcm`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStation()
			if err != nil {
				return err
			}
			defer st.Close()

			if dump != "" {
				tap, err := newDumpTap(st.duplex, dump, a.log)
				if err != nil {
					return err
				}
				defer tap.Close()
				st.Listener.Capture = tap
			}

			if !listen {
				return report(cmd.OutOrStdout(), st.Receive(a.cfg.ReceiveTimeout))
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			fmt.Fprintln(cmd.OutOrStdout(), "listening, press enter to stop")
			return listenLoop(ctx, st, a.cfg.ReceiveTimeout, async.EnterKey(), cmd.OutOrStdout(), a.log)
		},
	}
	cmd.Flags().DurationVar(&a.cfg.ReceiveTimeout, "timeout", a.cfg.ReceiveTimeout, "give up after this long without a frame")
	cmd.Flags().BoolVar(&listen, "listen", false, "keep receiving until enter is pressed or interrupted")
	cmd.Flags().StringVar(&dump, "dump", "", "write the captured audio to this raw PCM file")
	return cmd
}

// listenLoop receives frame after frame until ctx is done or stop is closed. Received
// text is printed from the history feed when one is kept, otherwise straight from each
// outcome.
func listenLoop(ctx context.Context, st *station, timeout time.Duration, stop <-chan struct{}, w io.Writer, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if st.store != nil {
		feed, err := st.store.Watch(ctx, 1)
		if err != nil {
			return err
		}
		printed := async.Job(func() { printFeed(feed, w) })
		defer func() {
			cancel()
			<-printed
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		case o := <-st.ReceiveAsync(timeout):
			switch {
			case !o.OK():
				log.Debug().Str("detail", o.Detail).Msg("nothing received")
			case st.store == nil:
				fmt.Fprintln(w, o.Text)
			}
		}
	}
}

// printFeed prints the text of every received record that appears at the head of the
// feed after the first delivery.
func printFeed(feed <-chan []history.Record, w io.Writer) {
	last := ""
	first := true
	for records := range feed {
		if len(records) == 0 {
			first = false
			continue
		}
		head := records[0]
		if first {
			last, first = head.ID, false
			continue
		}
		if head.ID == last {
			continue
		}
		last = head.ID
		if head.Direction == string(session.Received) && head.Status == string(session.Success) {
			fmt.Fprintln(w, head.Content)
		}
	}
}

// dumpTap is a Capture that copies every block it passes on into a raw PCM file.
type dumpTap struct {
	device.Capture
	file *utils.PCMWriter[int32]
	log  zerolog.Logger

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

func newDumpTap(in device.Capture, path string, log zerolog.Logger) (*dumpTap, error) {
	file, err := utils.CreatePCM[int32](path)
	if err != nil {
		return nil, err
	}
	return &dumpTap{Capture: in, file: file, log: log.With().Str("dump", path).Logger()}, nil
}

func (t *dumpTap) Start() (<-chan []int32, error) {
	t.Stop()
	in, err := t.Capture.Start()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	out := make(chan []int32)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer close(out)
		for block := range in {
			t.mu.Lock()
			if err := t.file.Write(block); err != nil {
				t.log.Error().Err(err).Msg("failed to dump capture")
			}
			t.mu.Unlock()
			select {
			case out <- block:
			case <-stop:
				return
			}
		}
	}()
	return out, nil
}

func (t *dumpTap) Stop() {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
	t.Capture.Stop()
	t.wg.Wait()
}

func (t *dumpTap) Close() error {
	t.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.Info().Int("samples", t.file.Samples()).Msg("capture dumped")
	return t.file.Close()
}
