package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"AcousticTxRx/pkg/session"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSendCmd(a *app) *cobra.Command {
	var watch string

	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "Transmit text as one frame",
		Example: strings.TrimSpace(`
  txrx send "HELLO"
  txrx send --watch ./outbox`),
		Args: func(cmd *cobra.Command, args []string) error {
			if watch != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStation()
			if err != nil {
				return err
			}
			defer st.Close()

			if watch != "" {
				ctx, cancel := signalContext(cmd.Context())
				defer cancel()
				return watchOutbox(ctx, watch, st.Controller, a.log)
			}
			return report(cmd.OutOrStdout(), st.Send(args[0]))
		},
	}
	cmd.Flags().StringVar(&watch, "watch", "", "send every file written to this directory")
	return cmd
}

const (
	sentSuffix   = ".sent"
	failedSuffix = ".failed"
)

// outbox sends files dropped into a directory. Each file is sent once it has been quiet
// for settle, then renamed with a suffix telling how the attempt went.
type outbox struct {
	dir    string
	sender sender
	settle time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{} // closed when run returns
}

type sender interface {
	Send(text string) session.Outcome
}

func newOutbox(dir string, s sender, log zerolog.Logger) *outbox {
	return &outbox{
		dir:     dir,
		sender:  s,
		settle:  200 * time.Millisecond,
		log:     log.With().Str("component", "Outbox").Logger(),
		pending: map[string]*time.Timer{},
		ready:   make(chan string, 64),
		done:    make(chan struct{}),
	}
}

func watchOutbox(ctx context.Context, dir string, c *session.Controller, log zerolog.Logger) error {
	return newOutbox(dir, c, log).run(ctx)
}

func (o *outbox) run(ctx context.Context) error {
	defer close(o.done)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(o.dir); err != nil {
		return fmt.Errorf("watch %s: %w", o.dir, err)
	}
	o.log.Info().Str("dir", o.dir).Msg("watching for files to send")

	// files already waiting are sent first
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			o.schedule(filepath.Join(o.dir, e.Name()))
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				o.schedule(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				o.log.Warn().Err(err).Msg("watcher error")
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-o.ready:
				o.send(path)
			}
		}
	})
	err = g.Wait()
	o.stopTimers()
	return err
}

func skipped(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, sentSuffix) || strings.HasSuffix(name, failedSuffix)
}

// schedule (re)starts the settle timer of path.
func (o *outbox) schedule(path string) {
	if skipped(path) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.pending[path]; ok {
		t.Stop()
	}
	o.pending[path] = time.AfterFunc(o.settle, func() {
		o.mu.Lock()
		delete(o.pending, path)
		o.mu.Unlock()
		o.deliver(path)
	})
}

// deliver hands path to the sending loop. It reports false once run has returned.
func (o *outbox) deliver(path string) bool {
	select {
	case o.ready <- path:
		return true
	case <-o.done:
		return false
	}
}

func (o *outbox) stopTimers() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for path, t := range o.pending {
		t.Stop()
		delete(o.pending, path)
	}
}

func (o *outbox) send(path string) {
	log := o.log.With().Str("file", path).Logger()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to read file")
		return
	}

	result := o.sender.Send(string(data))
	suffix := sentSuffix
	if !result.OK() {
		suffix = failedSuffix
		log.Warn().Str("detail", result.Detail).Msg("file not sent")
	} else {
		log.Info().Str("detail", result.Detail).Msg("file sent")
	}
	if err := os.Rename(path, path+suffix); err != nil {
		log.Error().Err(err).Msg("failed to rename file")
	}
}
