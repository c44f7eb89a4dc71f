package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "session:"

// BadgerStore keeps session history in a BadgerDB key-value store. One key
// per session holding the full message list.
type BadgerStore struct {
	db         *badger.DB
	gcInterval time.Duration
	gcStop     chan struct{}
}

// NewBadgerStore opens (and if needed creates) a badger-backed store.
func NewBadgerStore(opts Options) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	badgerOpts.Logger = nil // badger's own logging is noise here

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening sessions database: %w", err)
	}

	s := &BadgerStore{
		db:         db,
		gcInterval: opts.GCInterval,
		gcStop:     make(chan struct{}),
	}

	if opts.GCInterval > 0 {
		go s.runGC()
	}

	return s, nil
}

// Compile-time interface check.
var _ Store = (*BadgerStore)(nil)

func (s *BadgerStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	now := time.Now()
	for i := range msgs {
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = now
		}
	}

	key := []byte(badgerKeyPrefix + sessionID)
	return s.db.Update(func(txn *badger.Txn) error {
		var history []Message

		item, err := txn.Get(key)
		switch {
		case err == nil:
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &history)
			})
			if err != nil {
				return fmt.Errorf("parsing session: %w", err)
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			// new session
		default:
			return fmt.Errorf("reading session: %w", err)
		}

		history = append(history, msgs...)
		data, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("marshaling session: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	var history []Message

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &history)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return history, nil
}

func (s *BadgerStore) Clear(ctx context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + sessionID))
	})
}

func (s *BadgerStore) List(ctx context.Context) ([]string, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, badgerKeyPrefix))
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return ids, nil
}

func (s *BadgerStore) Close() error {
	close(s.gcStop)
	return s.db.Close()
}

func (s *BadgerStore) runGC() {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.db.RunValueLogGC(0.5)
		case <-s.gcStop:
			return
		}
	}
}
