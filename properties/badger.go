package properties

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/hupe1980/pgraph/codec"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Nil discards them.
	Logger *slog.Logger
}

// BadgerStore persists property bags in BadgerDB, msgpack-encoded.
type BadgerStore struct {
	db    *badger.DB
	codec codec.Codec
}

// NewBadgerStore opens a BadgerDB-backed store.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("properties: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{l: opts.Logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("properties: open badger: %w", err)
	}
	return &BadgerStore{db: db, codec: codec.Msgpack{}}, nil
}

func (s *BadgerStore) decode(val []byte) (Properties, error) {
	var props Properties
	if err := s.codec.Unmarshal(val, &props); err != nil {
		return nil, fmt.Errorf("properties: decode: %w", err)
	}
	return props, nil
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key Key) (Properties, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.Encode())
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decode(val)
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, key Key, props Properties) error {
	if len(props) == 0 {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key.Encode())
		})
	}
	val, err := s.codec.Marshal(map[string]any(props))
	if err != nil {
		return fmt.Errorf("properties: encode %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key.Encode(), val)
	})
}

// Remove implements Store.
func (s *BadgerStore) Remove(_ context.Context, key Key) (Properties, error) {
	var val []byte
	err := s.db.Update(func(txn *badger.Txn) error {
		k := key.Encode()
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		if val, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decode(val)
}

// All implements Store.
func (s *BadgerStore) All(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		stopped := false
		err := s.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				key, err := DecodeKey(item.KeyCopy(nil))
				if err != nil {
					return err
				}
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				props, err := s.decode(val)
				if err != nil {
					return err
				}
				if !yield(Entry{Key: key, Properties: props}, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Entry{}, err)
		}
	}
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger forwards badger warnings and errors to slog and drops the
// rest.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Error(fmt.Sprintf(f, v...), "component", "badger")
	}
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Warn(fmt.Sprintf(f, v...), "component", "badger")
	}
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
