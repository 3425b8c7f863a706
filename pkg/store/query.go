package store

import (
	"fmt"
	"time"
)

// HasNode reports whether term occurs as subject or object of a quad in
// graph. A term used only as a predicate is not a node.
func (s *QuadStore) HasNode(term, graph []byte) (bool, error) {
	defer s.metrics.observe("has_node", time.Now())

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	ids, found, err := s.findIDs(txn, Quad{Subject: term, Object: term, Graph: graph},
		RoleSubject, RoleObject, RoleGraph)
	if err != nil || !found {
		return false, err
	}

	ok, err := probe(txn, ids, RoleGraph, RoleSubject)
	if err != nil || ok {
		return ok, err
	}
	return probe(txn, ids, RoleGraph, RoleObject)
}

// HasEdge reports whether the exact quad (subject, predicate, object, graph)
// is stored
func (s *QuadStore) HasEdge(subject, predicate, object, graph []byte) (bool, error) {
	defer s.metrics.observe("has_edge", time.Now())

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	ids, found, err := s.findIDs(txn, NewQuad(subject, predicate, object, graph),
		RoleSubject, RolePredicate, RoleObject, RoleGraph)
	if err != nil || !found {
		return false, err
	}

	// Full keys, so an identifier that is a byte prefix of another never
	// matches.
	return txn.Has(Canonical.Table, Canonical.Key(ids))
}

// Adjacent reports whether some quad in graph links a and b, in either
// direction and under any predicate
func (s *QuadStore) Adjacent(a, b, graph []byte) (bool, error) {
	defer s.metrics.observe("adjacent", time.Now())

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	forward, found, err := s.findIDs(txn, Quad{Subject: a, Object: b, Graph: graph},
		RoleSubject, RoleObject, RoleGraph)
	if err != nil || !found {
		return false, err
	}

	ok, err := probe(txn, forward, RoleGraph, RoleSubject, RoleObject)
	if err != nil || ok {
		return ok, err
	}

	backward := forward
	backward[RoleSubject], backward[RoleObject] = forward[RoleObject], forward[RoleSubject]
	return probe(txn, backward, RoleGraph, RoleSubject, RoleObject)
}

// HasGraph reports whether any quad is stored under graph
func (s *QuadStore) HasGraph(graph []byte) (bool, error) {
	defer s.metrics.observe("has_graph", time.Now())

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	ids, found, err := s.findIDs(txn, Quad{Graph: graph}, RoleGraph)
	if err != nil || !found {
		return false, err
	}
	return probe(txn, ids, RoleGraph)
}

// probe reports whether any quad matches the bound roles of ids
func probe(txn Transaction, ids IDs, bound ...Role) (bool, error) {
	ix, ok := SelectIndex(bound...)
	if !ok {
		return false, fmt.Errorf("no index leads with %v", bound)
	}

	it, err := txn.Scan(ix.Table, ix.Prefix(ids, len(bound)))
	if err != nil {
		return false, err
	}
	defer it.Close()

	return it.Next(), nil
}

// Edges enumerates the triples of graph in canonical index order, which is
// identifier order rather than term order. Each call starts a fresh traversal
// over its own snapshot; the iterator must be closed.
func (s *QuadStore) Edges(graph []byte) (*EdgeIterator, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	ids, found, err := s.findIDs(txn, Quad{Graph: graph}, RoleGraph)
	if err != nil {
		txn.Rollback()
		return nil, err
	}
	if !found {
		txn.Rollback()
		return &EdgeIterator{done: true}, nil
	}

	it, err := txn.Scan(Canonical.Table, Canonical.Prefix(ids, 1))
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &EdgeIterator{
		txn:  txn,
		it:   it,
		dict: s.dict,
	}, nil
}

// EdgeIterator yields the triples of one graph
type EdgeIterator struct {
	txn  Transaction
	it   Iterator
	dict Dictionary

	current Triple
	err     error
	done    bool
}

// Next advances to the next triple. It returns false at the end of the graph
// or on error; check Err to tell them apart.
func (e *EdgeIterator) Next() bool {
	if e.done {
		return false
	}
	if !e.it.Next() {
		e.done = true
		return false
	}

	ids, err := Canonical.Decode(e.it.Key())
	if err != nil {
		return e.fail(err)
	}

	var terms [3][]byte
	for i, role := range []Role{RoleSubject, RolePredicate, RoleObject} {
		term, found, err := e.dict.LookupIn(e.txn, ids[role])
		if err != nil {
			return e.fail(err)
		}
		if !found {
			return e.fail(fmt.Errorf("%w: %s identifier %x", ErrNotFound, role, ids[role]))
		}
		terms[i] = term
	}

	e.current = Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}
	return true
}

// Triple returns the current triple
func (e *EdgeIterator) Triple() Triple {
	return e.current
}

// Err returns the error that stopped the iteration, if any
func (e *EdgeIterator) Err() error {
	return e.err
}

// Close releases the iterator and its snapshot
func (e *EdgeIterator) Close() error {
	e.done = true
	if e.it != nil {
		e.it.Close()
		e.it = nil
	}
	if e.txn != nil {
		e.txn.Rollback()
		e.txn = nil
	}
	return nil
}

func (e *EdgeIterator) fail(err error) bool {
	e.err = err
	e.done = true
	return false
}
