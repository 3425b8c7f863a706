package store

// Dictionary translates terms to identifiers within a transaction. Once past
// this boundary the engine handles identifiers only.
type Dictionary interface {
	// ResolveIn returns the identifier of term, assigning one if needed
	ResolveIn(txn Transaction, term []byte) ([]byte, error)

	// FindIn returns the identifier of a known term without assigning one
	FindIn(txn Transaction, term []byte) (id []byte, found bool, err error)

	// LookupIn returns the term of an identifier
	LookupIn(txn Transaction, id []byte) (term []byte, found bool, err error)

	// Purge drops any cached entries after the tables were dropped
	Purge()
}
