package store

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/hexagraph/internal/encoding"
)

// Role is the position a term plays in a quad
type Role uint8

const (
	RoleSubject Role = iota
	RolePredicate
	RoleObject
	RoleGraph
)

func (r Role) String() string {
	switch r {
	case RoleSubject:
		return "S"
	case RolePredicate:
		return "P"
	case RoleObject:
		return "O"
	case RoleGraph:
		return "G"
	default:
		return "?"
	}
}

// IDs holds the encoded identifiers of a quad, indexed by Role
type IDs [encoding.QuadKeyParts][]byte

// Index is a table holding every quad keyed by one ordering of its roles
type Index struct {
	Table Table
	Roles [encoding.QuadKeyParts]Role
}

// Indexes lists the eight permutations maintained for every quad. Together
// they give a prefix scan for any set of one to three bound roles.
var Indexes = [...]Index{
	{TableSPOG, [4]Role{RoleSubject, RolePredicate, RoleObject, RoleGraph}},
	{TableOSPG, [4]Role{RoleObject, RoleSubject, RolePredicate, RoleGraph}},
	{TablePSOG, [4]Role{RolePredicate, RoleSubject, RoleObject, RoleGraph}},
	{TablePOSG, [4]Role{RolePredicate, RoleObject, RoleSubject, RoleGraph}},
	{TableGSPO, [4]Role{RoleGraph, RoleSubject, RolePredicate, RoleObject}},
	{TableGOSP, [4]Role{RoleGraph, RoleObject, RoleSubject, RolePredicate}},
	{TableGPSO, [4]Role{RoleGraph, RolePredicate, RoleSubject, RoleObject}},
	{TableGPOS, [4]Role{RoleGraph, RolePredicate, RoleObject, RoleSubject}},
}

// Canonical is the index consulted for existence checks and counting
var Canonical = Indexes[4]

func (ix Index) String() string {
	var sb strings.Builder
	for _, role := range ix.Roles {
		sb.WriteString(role.String())
	}
	return sb.String()
}

// Key builds the full key of a quad in this index
func (ix Index) Key(ids IDs) []byte {
	return encoding.EncodeQuadKey(
		ids[ix.Roles[0]],
		ids[ix.Roles[1]],
		ids[ix.Roles[2]],
		ids[ix.Roles[3]],
	)
}

// Prefix builds a scan prefix from the first n roles of this index
func (ix Index) Prefix(ids IDs, n int) []byte {
	parts := make([][]byte, n)
	for i := 0; i < n; i++ {
		parts[i] = ids[ix.Roles[i]]
	}
	return encoding.EncodePrefix(parts...)
}

// Decode splits a key of this index back into identifiers indexed by Role
func (ix Index) Decode(key []byte) (IDs, error) {
	var ids IDs

	parts, err := encoding.DecodeQuadKey(key)
	if err != nil {
		return ids, fmt.Errorf("%s: %w", ix, err)
	}
	for i, role := range ix.Roles {
		ids[role] = parts[i]
	}
	return ids, nil
}

// leads reports whether the first len(bound) roles of the index are exactly
// the bound roles, in any order.
func (ix Index) leads(bound []Role) bool {
	if len(bound) > len(ix.Roles) {
		return false
	}

	var seen [encoding.QuadKeyParts]bool
	for _, role := range ix.Roles[:len(bound)] {
		seen[role] = true
	}
	for _, role := range bound {
		if role > RoleGraph || !seen[role] {
			return false
		}
	}
	return true
}

// SelectIndex chooses the index whose leading roles are the bound roles, so a
// prefix scan over it visits exactly the matching quads.
func SelectIndex(bound ...Role) (Index, bool) {
	if len(bound) == 0 {
		return Canonical, true
	}

	var seen [encoding.QuadKeyParts]bool
	for _, role := range bound {
		if role > RoleGraph || seen[role] {
			return Index{}, false
		}
		seen[role] = true
	}

	for _, ix := range Indexes {
		if ix.leads(bound) {
			return ix, true
		}
	}
	return Index{}, false
}
