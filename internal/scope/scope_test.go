package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/scope"
	"github.com/stockline-erp/stockline/internal/shared"
)

func TestSuperAdminSeesEverything(t *testing.T) {
	actor := &shared.Actor{ID: 1, SuperAdmin: true}

	f := scope.ForActor(actor, "o.location_id", 2)

	assert.False(t, f.Restricts())
	q, args := f.Apply("SELECT * FROM offers o WHERE 1=1", []any{"x", "y"})
	assert.Equal(t, "SELECT * FROM offers o WHERE 1=1", q)
	assert.Len(t, args, 2)
}

func TestEmptyLocationSetYieldsContradiction(t *testing.T) {
	actor := &shared.Actor{ID: 7, Operational: true}

	f := scope.ForActor(actor, "location_id", 0)

	require.True(t, f.Restricts())
	assert.Equal(t, " AND 1 = 0", f.Clause)
	assert.Empty(t, f.Args)
}

func TestNilActorYieldsContradiction(t *testing.T) {
	f := scope.ForActor(nil, "location_id", 0)
	assert.Equal(t, " AND 1 = 0", f.Clause)
}

func TestLocationSetRestrictsToMembers(t *testing.T) {
	actor := &shared.Actor{ID: 3, LocationIDs: []int64{10, 20}}

	f := scope.ForActor(actor, "c.location_id", 1)

	assert.Equal(t, " AND c.location_id = ANY($2)", f.Clause)
	require.Len(t, f.Args, 1)
	assert.Equal(t, []int64{10, 20}, f.Args[0])
}

func TestApplyComposesWithExistingFilters(t *testing.T) {
	actor := &shared.Actor{ID: 3, LocationIDs: []int64{5}}

	f := scope.ForActor(actor, "location_id", 1)
	q, args := f.Apply("SELECT id FROM customers WHERE name ILIKE $1", []any{"%acme%"})

	assert.Equal(t, "SELECT id FROM customers WHERE name ILIKE $1 AND location_id = ANY($2)", q)
	require.Len(t, args, 2)
	assert.Equal(t, []int64{5}, args[1])
}
