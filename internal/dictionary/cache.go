package dictionary

import (
	"bytes"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/zeebo/xxh3"
)

// cache holds committed dictionary entries in both directions. A nil cache is
// valid and never hits.
type cache struct {
	ids   *ristretto.Cache[string, []byte] // term -> id
	terms *ristretto.Cache[string, []byte] // id -> term
}

func newCache(maxCost int64) (*cache, error) {
	if maxCost <= 0 {
		return nil, nil
	}

	ids, err := newRistretto(maxCost / 2)
	if err != nil {
		return nil, err
	}
	terms, err := newRistretto(maxCost / 2)
	if err != nil {
		ids.Close()
		return nil, err
	}

	return &cache{ids: ids, terms: terms}, nil
}

func newRistretto(maxCost int64) (*ristretto.Cache[string, []byte], error) {
	// ristretto recommends 10x counters per expected item; assume ~64 byte
	// entries.
	counters := maxCost / 64 * 10
	if counters < 1000 {
		counters = 1000
	}

	return ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxCost,
		BufferItems: 64,
		KeyToHash:   hashKey,
	})
}

func hashKey(key string) (uint64, uint64) {
	h := xxh3.HashString128(key)
	return h.Lo, h.Hi
}

func (c *cache) id(term []byte) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	id, ok := c.ids.Get(string(term))
	return bytes.Clone(id), ok
}

func (c *cache) term(id []byte) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	term, ok := c.terms.Get(string(id))
	return bytes.Clone(term), ok
}

func (c *cache) add(term, id []byte) {
	if c == nil {
		return
	}
	cost := int64(len(term) + len(id))
	c.ids.Set(string(term), bytes.Clone(id), cost)
	c.terms.Set(string(id), bytes.Clone(term), cost)
}

func (c *cache) clear() {
	if c == nil {
		return
	}
	c.ids.Clear()
	c.terms.Clear()
}

func (c *cache) close() {
	if c == nil {
		return
	}
	c.ids.Close()
	c.terms.Close()
}
