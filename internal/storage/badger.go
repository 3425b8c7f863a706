package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/aleksaelezovic/hexagraph/pkg/store"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// manifestFile marks a directory that already holds a badger database.
const manifestFile = "MANIFEST"

// Options configures BadgerStorage.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// Create allows creating the database when Path holds none.
	Create bool

	// MaxSize is the storage capacity ceiling in bytes. Zero disables it.
	MaxSize int64

	// InMemory keeps all data in memory.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives badger's own log output. Nil silences it.
	Logger logrus.FieldLogger
}

// BadgerStorage implements Storage using BadgerDB
type BadgerStorage struct {
	db      *badger.DB
	maxSize int64
	closed  atomic.Bool
}

// NewBadgerStorage opens or creates a BadgerDB-backed storage
func NewBadgerStorage(options Options) (*BadgerStorage, error) {
	var opts badger.Options
	if options.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if !options.Create {
			if _, err := os.Stat(filepath.Join(options.Path, manifestFile)); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil, fmt.Errorf("%w: %s", store.ErrStorageNotFound, options.Path)
				}
				return nil, fmt.Errorf("failed to stat badger db: %w", err)
			}
		}
		opts = badger.DefaultOptions(options.Path)
	}

	opts.SyncWrites = options.SyncWrites
	opts.Logger = nil // Disable default logger
	if options.Logger != nil {
		opts.Logger = &badgerLogger{logger: options.Logger.WithField("component", "badger")}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db, maxSize: options.MaxSize}, nil
}

// Begin starts a new transaction
func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}

	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{
		storage:  s,
		txn:      txn,
		writable: writable,
	}, nil
}

// Drop removes all keys of the given tables together with their usage
// counters.
func (s *BadgerStorage) Drop(tables ...store.Table) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	if len(tables) == 0 {
		return nil
	}

	prefixes := make([][]byte, 0, len(tables))
	for _, table := range tables {
		prefixes = append(prefixes, store.TablePrefix(table))
	}
	if err := s.db.DropPrefix(prefixes...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, table := range tables {
			if err := txn.Delete(usageKey(table)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Usage returns the bytes accounted against the capacity ceiling
func (s *BadgerStorage) Usage() (int64, error) {
	var total int64
	err := s.db.View(func(txn *badger.Txn) error {
		for table := store.Table(0); table < store.TableCount; table++ {
			used, err := readUsage(txn, table)
			if err != nil {
				return err
			}
			total += used
		}
		return nil
	})
	return total, err
}

// MaxSize returns the capacity ceiling, zero when unlimited
func (s *BadgerStorage) MaxSize() int64 {
	return s.maxSize
}

// Close closes the storage
func (s *BadgerStorage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// Sync flushes writes to disk
func (s *BadgerStorage) Sync() error {
	return s.db.Sync()
}

// BadgerTransaction implements Transaction using BadgerDB
type BadgerTransaction struct {
	storage  *BadgerStorage
	txn      *badger.Txn
	writable bool

	// bytes added (or removed) per table, checked against MaxSize on commit
	delta map[store.Table]int64
}

// Get retrieves a value by key
func (t *BadgerTransaction) Get(table store.Table, key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// Empty values come back as an empty slice, never nil
	value, err := item.ValueCopy([]byte{})
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Has reports whether a key exists
func (t *BadgerTransaction) Has(table store.Table, key []byte) (bool, error) {
	_, found, err := t.size(table, key)
	return found, err
}

// Set stores a key-value pair
func (t *BadgerTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}

	old, found, err := t.size(table, key)
	if err != nil {
		return err
	}

	if err := t.txn.Set(store.PrefixKey(table, key), value); err != nil {
		return err
	}

	if found {
		t.account(table, int64(len(value))-old)
	} else {
		t.account(table, entrySize(key, value))
	}
	return nil
}

// SetIfAbsent stores a key-value pair unless the key is already present.
// Reading the key first puts it in the read set, so a concurrent transaction
// writing the same key makes the later commit fail with badger.ErrConflict.
func (t *BadgerTransaction) SetIfAbsent(table store.Table, key, value []byte) (bool, error) {
	if !t.writable {
		return false, store.ErrTransactionRO
	}

	_, found, err := t.size(table, key)
	if err != nil || found {
		return false, err
	}

	if err := t.txn.Set(store.PrefixKey(table, key), value); err != nil {
		return false, err
	}
	t.account(table, entrySize(key, value))
	return true, nil
}

// Delete removes a key
func (t *BadgerTransaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}

	old, found, err := t.size(table, key)
	if err != nil || !found {
		return err
	}

	if err := t.txn.Delete(store.PrefixKey(table, key)); err != nil {
		return err
	}
	t.account(table, -(int64(len(key)) + 1 + old))
	return nil
}

// Scan iterates over the keys of a table that start with prefix
func (t *BadgerTransaction) Scan(table store.Table, prefix []byte) (store.Iterator, error) {
	opts := badger.DefaultIteratorOptions
	// Index values are empty, keys carry everything
	opts.PrefetchValues = false

	scanPrefix := store.PrefixKey(table, prefix)
	opts.Prefix = scanPrefix
	it := t.txn.NewIterator(opts)

	return &BadgerIterator{
		it:         it,
		prefix:     store.TablePrefix(table),
		scanPrefix: scanPrefix,
	}, nil
}

// Last returns the greatest key in a table
func (t *BadgerTransaction) Last(table store.Table) ([]byte, bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true

	it := t.txn.NewIterator(opts)
	defer it.Close()

	prefix := store.TablePrefix(table)
	// Reverse seek lands on the greatest key <= upper
	upper := store.TablePrefix(table + 1)
	it.Seek(upper)
	if it.Valid() && bytes.Equal(it.Item().Key(), upper) {
		it.Next()
	}
	if !it.ValidForPrefix(prefix) {
		return nil, false, nil
	}

	key := it.Item().KeyCopy(nil)
	return key[len(prefix):], true, nil
}

// Writable reports whether the transaction accepts writes
func (t *BadgerTransaction) Writable() bool {
	return t.writable
}

// Commit checks the capacity ceiling and commits the transaction
func (t *BadgerTransaction) Commit() error {
	if t.writable && len(t.delta) > 0 {
		if err := t.applyUsage(); err != nil {
			t.txn.Discard()
			return err
		}
	}
	return t.txn.Commit()
}

// Rollback rolls back the transaction
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

func (t *BadgerTransaction) size(table store.Table, key []byte) (int64, bool, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return item.ValueSize(), true, nil
}

func (t *BadgerTransaction) account(table store.Table, n int64) {
	if t.delta == nil {
		t.delta = make(map[store.Table]int64)
	}
	t.delta[table] += n
}

func (t *BadgerTransaction) applyUsage() error {
	var total, growth int64
	for table := store.Table(0); table < store.TableCount; table++ {
		used, err := readUsage(t.txn, table)
		if err != nil {
			return err
		}

		if d, ok := t.delta[table]; ok && d != 0 {
			used += d
			if used < 0 {
				used = 0
			}
			if err := writeUsage(t.txn, table, used); err != nil {
				return err
			}
			growth += d
		}
		total += used
	}

	if limit := t.storage.maxSize; limit > 0 && growth > 0 && total > limit {
		return fmt.Errorf("%w: %d of %d bytes", store.ErrCapacityExceeded, total, limit)
	}
	return nil
}

// BadgerIterator implements Iterator using BadgerDB
type BadgerIterator struct {
	it         *badger.Iterator
	prefix     []byte // Table prefix for stripping from keys
	scanPrefix []byte // Full prefix used for BadgerDB filtering
	started    bool
	hasValue   bool
}

// Next advances to the next item
func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.scanPrefix)
		i.started = true
	} else {
		i.it.Next()
	}

	i.hasValue = i.it.ValidForPrefix(i.scanPrefix)
	return i.hasValue
}

// Key returns the current key (without the table prefix)
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	return i.it.Item().Key()[len(i.prefix):]
}

// Close closes the iterator
func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}

func entrySize(key, value []byte) int64 {
	// +1 for the table prefix
	return int64(len(key)) + 1 + int64(len(value))
}
