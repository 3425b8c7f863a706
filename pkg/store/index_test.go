package store

import (
	"bytes"
	"testing"

	"github.com/aleksaelezovic/hexagraph/internal/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIDs() IDs {
	return IDs{
		RoleSubject:   encoding.EncodeID(1),
		RolePredicate: encoding.EncodeID(300),
		RoleObject:    encoding.EncodeID(70000),
		RoleGraph:     encoding.EncodeID(0),
	}
}

func TestIndexesArePermutations(t *testing.T) {
	require.Len(t, Indexes, 8)

	names := make(map[string]bool)
	tables := make(map[Table]bool)
	for _, ix := range Indexes {
		var seen [4]bool
		for _, role := range ix.Roles {
			require.False(t, seen[role], "%s repeats %s", ix, role)
			seen[role] = true
		}
		names[ix.String()] = true
		tables[ix.Table] = true
	}
	assert.Len(t, names, 8)
	assert.Len(t, tables, 8)
	assert.Equal(t, "GSPO", Canonical.String())
	assert.Equal(t, TableGSPO, Canonical.Table)
}

func TestIndexKeyRoundTrip(t *testing.T) {
	ids := testIDs()

	for _, ix := range Indexes {
		t.Run(ix.String(), func(t *testing.T) {
			key := ix.Key(ids)

			parts, err := encoding.DecodeQuadKey(key)
			require.NoError(t, err)
			for i, role := range ix.Roles {
				assert.Equal(t, ids[role], parts[i], "position %d", i)
			}

			decoded, err := ix.Decode(key)
			require.NoError(t, err)
			assert.Equal(t, ids, decoded)
		})
	}
}

func TestIndexPrefix(t *testing.T) {
	ids := testIDs()

	for _, ix := range Indexes {
		t.Run(ix.String(), func(t *testing.T) {
			key := ix.Key(ids)
			for n := 1; n <= 3; n++ {
				prefix := ix.Prefix(ids, n)
				assert.True(t, bytes.HasPrefix(key, prefix), "n=%d", n)
				assert.Equal(t, encoding.Separator, prefix[len(prefix)-1])
			}
		})
	}
}

func TestIndexDecodeInvalid(t *testing.T) {
	_, err := Canonical.Decode([]byte{0x01, encoding.Separator, 0x02})
	assert.ErrorIs(t, err, encoding.ErrInvalidKey)
}

func TestSelectIndex(t *testing.T) {
	roles := []Role{RoleSubject, RolePredicate, RoleObject, RoleGraph}

	// Every non-empty proper subset of roles has an index leading with it
	for mask := 1; mask < 15; mask++ {
		var bound []Role
		for i, role := range roles {
			if mask&(1<<i) != 0 {
				bound = append(bound, role)
			}
		}

		ix, ok := SelectIndex(bound...)
		require.True(t, ok, "bound %v", bound)

		leading := make(map[Role]bool)
		for _, role := range ix.Roles[:len(bound)] {
			leading[role] = true
		}
		for _, role := range bound {
			assert.True(t, leading[role], "%s does not lead with %v", ix, bound)
		}
	}

	tests := []struct {
		bound []Role
		want  string
	}{
		{nil, "GSPO"},
		{[]Role{RoleGraph}, "GSPO"},
		{[]Role{RoleGraph, RoleSubject}, "GSPO"},
		{[]Role{RoleGraph, RoleObject}, "GOSP"},
		{[]Role{RoleGraph, RoleSubject, RoleObject}, "GOSP"},
		{[]Role{RoleObject, RoleGraph, RoleSubject}, "GOSP"},
		{[]Role{RoleSubject}, "SPOG"},
		{[]Role{RolePredicate, RoleObject}, "POSG"},
	}
	for _, tt := range tests {
		ix, ok := SelectIndex(tt.bound...)
		require.True(t, ok)
		assert.Equal(t, tt.want, ix.String(), "bound %v", tt.bound)
	}

	_, ok := SelectIndex(RoleSubject, RoleSubject)
	assert.False(t, ok)
	_, ok = SelectIndex(Role(9))
	assert.False(t, ok)
}

func TestQuadDefaultGraph(t *testing.T) {
	q := Quad{Subject: []byte("s"), Predicate: []byte("p"), Object: []byte("o")}
	assert.Equal(t, DefaultGraph, q.term(RoleGraph))
	assert.Equal(t, []byte("o"), q.term(RoleObject))

	triple := NewTriple([]byte("s"), []byte("p"), []byte("o"))
	assert.Equal(t, DefaultGraph, triple.term(RoleGraph))
}
