package history

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"AcousticTxRx/pkg/session"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("history: store is closed")

var prefix = []byte("outcome/")

type Config struct {
	Dir        string
	InMemory   bool
	SyncWrites bool
}

// Store is an append-only log of transmission outcomes, read back newest first.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger

	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	watchers map[chan []Record]int // channel -> feed limit
	watching sync.WaitGroup
}

func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = badgerLogger{logger: logger.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Store{
		db:       db,
		logger:   logger,
		done:     make(chan struct{}),
		watchers: make(map[chan []Record]int),
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	for ch := range s.watchers {
		close(ch)
		delete(s.watchers, ch)
	}
	s.mu.Unlock()

	s.watching.Wait()
	return s.db.Close()
}

// key sorts by timestamp, then by the time ordered id.
func key(r Record, id uuid.UUID) []byte {
	k := make([]byte, 0, len(prefix)+8+16)
	k = append(k, prefix...)
	k = binary.BigEndian.AppendUint64(k, uint64(r.Timestamp.UnixNano()))
	return append(k, id[:]...)
}

// Record stores o. It implements session.Sink.
func (s *Store) Record(o session.Outcome) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	id, err := uuid.NewV7()
	if err != nil {
		s.mu.RUnlock()
		return err
	}
	r := FromOutcome(id.String(), o)
	value, err := r.MarshalBinary()
	if err != nil {
		s.mu.RUnlock()
		return fmt.Errorf("failed to encode record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(r, id), value)
	})
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	s.logger.Debug().Str("id", r.ID).Str("direction", r.Direction).Str("status", r.Status).Msg("outcome recorded")
	s.publish()
	return nil
}

// Feed returns up to limit records, newest first. A non-positive limit returns all.
func (s *Store) Feed(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.feed(limit)
}

func (s *Store) feed(limit int) ([]Record, error) {
	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && (limit <= 0 || len(records) < limit); it.Next() {
			var r Record
			err := it.Item().Value(func(val []byte) error {
				return r.UnmarshalBinary(val)
			})
			if err != nil {
				return fmt.Errorf("failed to decode record: %w", err)
			}
			records = append(records, r)
		}
		return nil
	})
	return records, err
}

// Watch delivers the feed now and again after every new record, until ctx is done or
// the store is closed.
// A slow reader only sees the latest feed.
func (s *Store) Watch(ctx context.Context, limit int) (<-chan []Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	records, err := s.feed(limit)
	if err != nil {
		return nil, err
	}
	ch := make(chan []Record, 1)
	ch <- records
	s.watchers[ch] = limit

	s.watching.Add(1)
	go func() {
		defer s.watching.Done()
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (s *Store) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for ch, limit := range s.watchers {
		records, err := s.feed(limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to read feed for watcher")
			continue
		}
		// replace a feed the reader has not taken yet
		select {
		case <-ch:
		default:
		}
		ch <- records
	}
}
