package storage

import (
	"encoding/binary"
	"errors"

	"github.com/aleksaelezovic/hexagraph/pkg/store"
	badger "github.com/dgraph-io/badger/v4"
)

// usage/<table> in the meta table holds the bytes accounted for that table.
var usagePrefix = []byte("usage/")

func usageKey(table store.Table) []byte {
	key := make([]byte, 0, len(usagePrefix)+1)
	key = append(key, usagePrefix...)
	key = append(key, byte(table))
	return store.PrefixKey(store.TableMeta, key)
}

func readUsage(txn *badger.Txn, table store.Table) (int64, error) {
	item, err := txn.Get(usageKey(table))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var used int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return errors.New("corrupt usage counter")
		}
		used = int64(binary.BigEndian.Uint64(val)) // #nosec G115 - counter is never negative
		return nil
	})
	return used, err
}

func writeUsage(txn *badger.Txn, table store.Table, used int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(used)) // #nosec G115 - counter is never negative
	return txn.Set(usageKey(table), buf[:])
}
