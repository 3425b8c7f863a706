// Package hexagraph is an embedded quad store. It keeps every quad in eight
// sort orders over BadgerDB so that existence and adjacency questions are
// answered by a single prefix probe.
//
//	db, err := hexagraph.Open("./data")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	db.Insert([]byte("alice"), []byte("knows"), []byte("bob"))
//	ok, err := db.Adjacent([]byte("bob"), []byte("alice"), store.DefaultGraph)
package hexagraph

import (
	"fmt"
	"io"
	"os"

	"github.com/aleksaelezovic/hexagraph/internal/config"
	"github.com/aleksaelezovic/hexagraph/internal/dictionary"
	"github.com/aleksaelezovic/hexagraph/internal/storage"
	"github.com/aleksaelezovic/hexagraph/pkg/store"
	"github.com/sirupsen/logrus"
)

// DB is an open store. The embedded QuadStore carries the mutation and
// query operations.
type DB struct {
	*store.QuadStore

	storage *storage.BadgerStorage
	dict    *dictionary.Dictionary
	metrics *store.Metrics
	logger  logrus.FieldLogger
}

// Open opens the store at path, creating it unless WithCreate(false) is given
func Open(path string, opts ...Option) (*DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var logger logrus.FieldLogger = o.logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	logger = logger.WithField("path", path)

	s, err := storage.NewBadgerStorage(storage.Options{
		Path:       path,
		Create:     o.create,
		MaxSize:    o.maxSize,
		InMemory:   o.inMemory,
		SyncWrites: o.syncWrites,
		Logger:     o.logger,
	})
	if err != nil {
		return nil, err
	}

	metrics := store.NewMetrics(o.registerer)
	dict, err := dictionary.New(s,
		dictionary.WithCacheSize(o.cacheSize),
		dictionary.WithLogger(logger),
		dictionary.WithMetrics(metrics),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	qs := store.New(s, dict,
		store.WithLogger(logger),
		store.WithMetrics(metrics),
	)

	logger.WithField("action", "open").
		WithField("max_size", o.maxSize).
		Debug("store opened")

	return &DB{
		QuadStore: qs,
		storage:   s,
		dict:      dict,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// OpenConfig opens the store described by cfg, logging to stderr as the
// configuration asks. Options given here override the configuration.
func OpenConfig(cfg config.Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithCreate(cfg.Create),
		WithMaxSize(int64(cfg.MaxSize)),
		WithCacheSize(int64(cfg.CacheSize)),
		WithSyncWrites(cfg.SyncWrites),
		WithLogger(logger),
	}
	return Open(cfg.Path, append(base, opts...)...)
}

// Dictionary returns the term dictionary of the store
func (db *DB) Dictionary() *dictionary.Dictionary {
	return db.dict
}

// Usage returns the bytes counted against the capacity ceiling and the
// ceiling itself, zero when unlimited
func (db *DB) Usage() (used, limit int64, err error) {
	used, err = db.storage.Usage()
	return used, db.storage.MaxSize(), err
}

// Sync flushes pending writes to disk
func (db *DB) Sync() error {
	return db.storage.Sync()
}

// Close closes the store. It is safe to call more than once.
func (db *DB) Close() error {
	db.dict.Close()
	if err := db.storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	db.logger.WithField("action", "close").Debug("store closed")
	return nil
}
