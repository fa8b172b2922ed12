// Package badger is an embedded, on-disk db.Store backed by BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config selects the database location.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Store implements db.Store on a BadgerDB instance.
type Store struct {
	db *badger.DB
}

// zapAdapter adapts zap to the badger.Logger interface.
type zapAdapter struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, items ...any)   { a.logger.Errorf(msg, items...) }
func (a *zapAdapter) Warningf(msg string, items ...any) { a.logger.Warnf(msg, items...) }
func (a *zapAdapter) Infof(msg string, items ...any)    { a.logger.Infof(msg, items...) }
func (a *zapAdapter) Debugf(msg string, items ...any)   { a.logger.Debugf(msg, items...) }

// Open opens (creating if needed) a BadgerDB database.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapAdapter{logger: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns immediately; an opened embedded database is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without one.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
