package store

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("key not found")
	ErrTransactionRO    = errors.New("transaction is read-only")
	ErrStorageNotFound  = errors.New("storage not found")
	ErrCapacityExceeded = errors.New("storage capacity exceeded")
	ErrInconsistent     = errors.New("indexes are inconsistent")
	ErrClosed           = errors.New("storage is closed")
)

// Storage is the interface for the underlying key-value store
type Storage interface {
	// Begin starts a new transaction
	Begin(writable bool) (Transaction, error)

	// Drop removes every key of the given tables in one step
	Drop(tables ...Table) error

	// Close closes the storage
	Close() error

	// Sync flushes writes to disk
	Sync() error
}

// Transaction represents a database transaction with snapshot isolation.
// Lookups report a missing key through the found result, not an error.
type Transaction interface {
	// Get retrieves a value by key
	Get(table Table, key []byte) (value []byte, found bool, err error)

	// Has reports whether key exists
	Has(table Table, key []byte) (bool, error)

	// Set stores a key-value pair
	Set(table Table, key, value []byte) error

	// SetIfAbsent stores a key-value pair unless the key exists. It reports
	// whether the value was written.
	SetIfAbsent(table Table, key, value []byte) (bool, error)

	// Delete removes a key
	Delete(table Table, key []byte) error

	// Scan iterates over all keys starting with prefix in key order.
	// A nil prefix scans the whole table.
	Scan(table Table, prefix []byte) (Iterator, error)

	// Last returns the greatest key in the table
	Last(table Table) (key []byte, found bool, err error)

	// Writable reports whether the transaction accepts writes
	Writable() bool

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error
}

// Iterator iterates over keys
type Iterator interface {
	// Next advances to the next item
	Next() bool

	// Key returns the current key without the table prefix. The slice is
	// only valid until the next call to Next.
	Key() []byte

	// Close closes the iterator
	Close() error
}

// Table represents a logical table/column family in the storage
type Table byte

const (
	// Dictionary tables: term -> id and id -> term
	TableDict Table = iota
	TableIDict

	// Graph-agnostic-leading indexes
	TableSPOG
	TableOSPG
	TablePSOG
	TablePOSG

	// Graph-first indexes
	TableGSPO
	TableGOSP
	TableGPSO
	TableGPOS

	// Storage bookkeeping
	TableMeta

	// Total number of tables
	TableCount
)

func (t Table) String() string {
	switch t {
	case TableDict:
		return "dict"
	case TableIDict:
		return "idict"
	case TableSPOG:
		return "spog"
	case TableOSPG:
		return "ospg"
	case TablePSOG:
		return "psog"
	case TablePOSG:
		return "posg"
	case TableGSPO:
		return "gspo"
	case TableGOSP:
		return "gosp"
	case TableGPSO:
		return "gpso"
	case TableGPOS:
		return "gpos"
	case TableMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// TablePrefix returns a byte prefix for a table to namespace keys
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey adds a table prefix to a key
func PrefixKey(table Table, key []byte) []byte {
	prefix := TablePrefix(table)
	result := make([]byte, len(prefix)+len(key))
	copy(result, prefix)
	copy(result[len(prefix):], key)
	return result
}
