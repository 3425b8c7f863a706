// Package dictionary maps terms to compact identifiers and back.
//
// Identifiers are assigned in discovery order and never reused; deleting facts
// does not remove dictionary entries. Two tables back the mapping: the forward
// table keyed by term and the inverse table keyed by encoded identifier.
package dictionary

import (
	"errors"
	"fmt"
	"io"

	"github.com/aleksaelezovic/hexagraph/internal/encoding"
	"github.com/aleksaelezovic/hexagraph/pkg/store"
	"github.com/sirupsen/logrus"
)

// MaxTermSize is the longest term the forward table can key. Badger limits
// keys to 65000 bytes and the table prefix takes one.
const MaxTermSize = 65000 - 1

var (
	ErrTermTooLarge = errors.New("term too large")
	ErrIDCollision  = errors.New("identifier already assigned")
)

// Dictionary interns terms as variable-length identifiers
type Dictionary struct {
	storage store.Storage
	cache   *cache
	logger  logrus.FieldLogger
	metrics *store.Metrics
}

// New creates a dictionary over the given storage
func New(storage store.Storage, opts ...Option) (*Dictionary, error) {
	o := options{
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := newCache(o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create dictionary cache: %w", err)
	}

	return &Dictionary{
		storage: storage,
		cache:   c,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Resolve returns the identifier for term, assigning a new one if the term
// has not been seen before.
func (d *Dictionary) Resolve(term []byte) ([]byte, error) {
	txn, err := d.storage.Begin(true)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	id, err := d.ResolveIn(txn, term)
	if err != nil {
		return nil, err
	}

	if err := txn.Commit(); err != nil {
		return nil, err
	}
	return id, nil
}

// Lookup returns the term for id. found is false when the id was never
// assigned.
func (d *Dictionary) Lookup(id []byte) (term []byte, found bool, err error) {
	txn, err := d.storage.Begin(false)
	if err != nil {
		return nil, false, err
	}
	defer txn.Rollback()

	return d.LookupIn(txn, id)
}

// Clear empties both tables. Identifier assignment restarts from zero.
func (d *Dictionary) Clear() error {
	if err := d.storage.Drop(store.TableDict, store.TableIDict); err != nil {
		return err
	}
	d.Purge()

	d.logger.WithField("action", "dictionary_clear").Debug("dictionary cleared")
	return nil
}

// Purge drops cached entries. Callers that drop the dictionary tables
// themselves must call it.
func (d *Dictionary) Purge() {
	d.cache.clear()
}

// Close releases the caches
func (d *Dictionary) Close() {
	d.cache.close()
}

// ResolveIn resolves term inside txn, assigning a new identifier when needed.
// The forward and inverse writes become visible when txn commits.
func (d *Dictionary) ResolveIn(txn store.Transaction, term []byte) ([]byte, error) {
	id, found, err := d.FindIn(txn, term)
	if err != nil || found {
		return id, err
	}
	return d.assign(txn, term)
}

// FindIn returns the identifier of a known term without assigning one
func (d *Dictionary) FindIn(txn store.Transaction, term []byte) ([]byte, bool, error) {
	if id, ok := d.cache.id(term); ok {
		return id, true, nil
	}

	id, found, err := txn.Get(store.TableDict, term)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read dictionary: %w", err)
	}
	if found && !txn.Writable() {
		d.cache.add(term, id)
	}
	return id, found, nil
}

// LookupIn returns the term for id inside txn
func (d *Dictionary) LookupIn(txn store.Transaction, id []byte) ([]byte, bool, error) {
	if term, ok := d.cache.term(id); ok {
		return term, true, nil
	}

	term, found, err := txn.Get(store.TableIDict, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read inverse dictionary: %w", err)
	}
	if found && !txn.Writable() {
		d.cache.add(term, id)
	}
	return term, found, nil
}

// assign allocates the identifier following the greatest one in the inverse
// table. This is only correct because encoding.EncodeID preserves numeric
// order in byte order.
func (d *Dictionary) assign(txn store.Transaction, term []byte) ([]byte, error) {
	if len(term) > MaxTermSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTermTooLarge, len(term))
	}

	var next uint64
	last, found, err := txn.Last(store.TableIDict)
	if err != nil {
		return nil, fmt.Errorf("failed to read last identifier: %w", err)
	}
	if found {
		current, err := encoding.DecodeID(last)
		if err != nil {
			return nil, fmt.Errorf("failed to decode last identifier: %w", err)
		}
		next = current + 1
	}

	id := encoding.EncodeID(next)
	ok, err := txn.SetIfAbsent(store.TableIDict, id, term)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrIDCollision, next)
	}
	if err := txn.Set(store.TableDict, term, id); err != nil {
		return nil, err
	}

	d.metrics.TermAssigned()
	d.logger.WithField("action", "dictionary_assign").
		WithField("id", next).
		Trace("assigned identifier")
	return id, nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
