package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// QuadStore keeps every quad in eight permutation indexes. Each mutation runs
// in a single transaction spanning the indexes and the dictionary, so a quad
// is either present in all of them or in none.
type QuadStore struct {
	storage Storage
	dict    Dictionary
	logger  logrus.FieldLogger
	metrics *Metrics
}

// New creates a quad store over storage, interning terms through dict
func New(storage Storage, dict Dictionary, opts ...Option) *QuadStore {
	o := options{
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &QuadStore{
		storage: storage,
		dict:    dict,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Insert inserts a triple into the default graph
func (s *QuadStore) Insert(subject, predicate, object []byte) (bool, error) {
	return s.InsertQuad(NewTriple(subject, predicate, object))
}

// InsertQuad inserts a quad. It reports whether the quad was newly inserted;
// inserting a quad that is already present changes nothing.
func (s *QuadStore) InsertQuad(quad Quad) (bool, error) {
	defer s.metrics.observe("insert", time.Now())

	txn, err := s.storage.Begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	inserted, err := s.insertQuadInTxn(txn, quad)
	if err == nil {
		err = txn.Commit()
	}
	if err != nil {
		s.metrics.mutation("insert", ResultError, 1)
		return false, err
	}

	s.metrics.mutation("insert", result(inserted), 1)
	return inserted, nil
}

// InsertBatch inserts quads in one transaction and returns how many were new
func (s *QuadStore) InsertBatch(quads []Quad) (int, error) {
	defer s.metrics.observe("insert_batch", time.Now())

	txn, err := s.storage.Begin(true)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	inserted := 0
	for i, quad := range quads {
		ok, err := s.insertQuadInTxn(txn, quad)
		if err != nil {
			s.metrics.mutation("insert", ResultError, len(quads))
			return 0, fmt.Errorf("quad %d: %w", i, err)
		}
		if ok {
			inserted++
		}
	}

	if err := txn.Commit(); err != nil {
		s.metrics.mutation("insert", ResultError, len(quads))
		return 0, err
	}

	s.metrics.mutation("insert", ResultApplied, inserted)
	s.metrics.mutation("insert", ResultNoop, len(quads)-inserted)
	s.logger.WithField("action", "insert_batch").
		WithField("quads", len(quads)).
		WithField("inserted", inserted).
		Debug("batch committed")
	return inserted, nil
}

// insertQuadInTxn inserts a quad within an existing transaction
func (s *QuadStore) insertQuadInTxn(txn Transaction, quad Quad) (bool, error) {
	var ids IDs
	for role := RoleSubject; role <= RoleGraph; role++ {
		id, err := s.dict.ResolveIn(txn, quad.term(role))
		if err != nil {
			return false, fmt.Errorf("failed to resolve %s: %w", role, err)
		}
		ids[role] = id
	}

	exists, err := txn.Has(Canonical.Table, Canonical.Key(ids))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	// Index values are unused
	emptyValue := []byte{}
	for _, ix := range Indexes {
		if err := txn.Set(ix.Table, ix.Key(ids), emptyValue); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", ix, err)
		}
	}
	return true, nil
}

// Delete deletes a triple from the default graph
func (s *QuadStore) Delete(subject, predicate, object []byte) (bool, error) {
	return s.DeleteQuad(NewTriple(subject, predicate, object))
}

// DeleteQuad deletes a quad. It reports false, and changes nothing, when the
// quad is absent.
func (s *QuadStore) DeleteQuad(quad Quad) (bool, error) {
	defer s.metrics.observe("delete", time.Now())

	txn, err := s.storage.Begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	deleted, err := s.deleteQuadInTxn(txn, quad)
	if err == nil && deleted {
		err = txn.Commit()
	}
	if err != nil {
		s.metrics.mutation("delete", ResultError, 1)
		return false, err
	}

	s.metrics.mutation("delete", result(deleted), 1)
	return deleted, nil
}

// DeleteBatch deletes quads in one transaction and returns how many existed
func (s *QuadStore) DeleteBatch(quads []Quad) (int, error) {
	defer s.metrics.observe("delete_batch", time.Now())

	txn, err := s.storage.Begin(true)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	deleted := 0
	for i, quad := range quads {
		ok, err := s.deleteQuadInTxn(txn, quad)
		if err != nil {
			s.metrics.mutation("delete", ResultError, len(quads))
			return 0, fmt.Errorf("quad %d: %w", i, err)
		}
		if ok {
			deleted++
		}
	}

	if deleted > 0 {
		if err := txn.Commit(); err != nil {
			s.metrics.mutation("delete", ResultError, len(quads))
			return 0, err
		}
	}

	s.metrics.mutation("delete", ResultApplied, deleted)
	s.metrics.mutation("delete", ResultNoop, len(quads)-deleted)
	s.logger.WithField("action", "delete_batch").
		WithField("quads", len(quads)).
		WithField("deleted", deleted).
		Debug("batch committed")
	return deleted, nil
}

// deleteQuadInTxn deletes a quad within an existing transaction. Terms are
// looked up without being assigned, since an unknown term matches nothing.
func (s *QuadStore) deleteQuadInTxn(txn Transaction, quad Quad) (bool, error) {
	ids, found, err := s.findIDs(txn, quad, RoleSubject, RolePredicate, RoleObject, RoleGraph)
	if err != nil || !found {
		return false, err
	}

	exists, err := txn.Has(Canonical.Table, Canonical.Key(ids))
	if err != nil || !exists {
		return false, err
	}

	for _, ix := range Indexes {
		if err := txn.Delete(ix.Table, ix.Key(ids)); err != nil {
			return false, fmt.Errorf("failed to delete from %s: %w", ix, err)
		}
	}
	return true, nil
}

// Clear removes every quad and every dictionary entry
func (s *QuadStore) Clear() error {
	tables := make([]Table, 0, TableCount)
	for table := Table(0); table < TableCount; table++ {
		tables = append(tables, table)
	}

	if err := s.storage.Drop(tables...); err != nil {
		s.metrics.mutation("clear", ResultError, 1)
		return err
	}
	s.dict.Purge()

	s.metrics.mutation("clear", ResultApplied, 1)
	s.logger.WithField("action", "clear").Info("store cleared")
	return nil
}

// Count returns the number of distinct quads across all graphs
func (s *QuadStore) Count() (int64, error) {
	defer s.metrics.observe("count", time.Now())

	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	return countKeys(txn, Canonical.Table, nil)
}

// findIDs looks up the identifiers of the given roles of quad. found is false
// when any of the terms was never interned.
func (s *QuadStore) findIDs(txn Transaction, quad Quad, roles ...Role) (IDs, bool, error) {
	var ids IDs
	for _, role := range roles {
		id, found, err := s.dict.FindIn(txn, quad.term(role))
		if err != nil {
			return ids, false, fmt.Errorf("failed to find %s: %w", role, err)
		}
		if !found {
			return ids, false, nil
		}
		ids[role] = id
	}
	return ids, true, nil
}

func countKeys(txn Transaction, table Table, prefix []byte) (int64, error) {
	it, err := txn.Scan(table, prefix)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var count int64
	for it.Next() {
		count++
	}
	return count, nil
}

func result(applied bool) string {
	if applied {
		return ResultApplied
	}
	return ResultNoop
}
