// Package scope restricts queries to the locations an actor may see.
package scope

import "strconv"

// Actor is the minimal view of an authenticated user the scope needs.
type Actor interface {
	IsSuperAdmin() bool
	VisibleLocationIDs() []int64
}

// Filter is a composable SQL fragment. Clause is either empty or starts
// with " AND ", so it appends onto any query that already has a WHERE.
type Filter struct {
	Clause string
	Args   []any
}

// ForActor builds the visibility filter for a location-bearing table.
// column is the (qualified) location id column; argOffset is the number of
// positional args already bound on the query being composed.
//
// Super-admins get no restriction. A non-admin with no location
// assignments gets a contradiction predicate — an empty set must yield
// zero rows, never all of them.
func ForActor(actor Actor, column string, argOffset int) Filter {
	if actor != nil && actor.IsSuperAdmin() {
		return Filter{}
	}
	var ids []int64
	if actor != nil {
		ids = actor.VisibleLocationIDs()
	}
	if len(ids) == 0 {
		return Filter{Clause: " AND 1 = 0"}
	}
	return Filter{
		Clause: " AND " + column + " = ANY($" + strconv.Itoa(argOffset+1) + ")",
		Args:   []any{ids},
	}
}

// Apply appends the filter onto a query/args pair.
func (f Filter) Apply(query string, args []any) (string, []any) {
	return query + f.Clause, append(args, f.Args...)
}

// Restricts reports whether the filter narrows the query at all.
func (f Filter) Restricts() bool {
	return f.Clause != ""
}
