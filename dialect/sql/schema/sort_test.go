package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderObjects(t *testing.T) {
	tbl := &Table{Name: "users"}
	id := &Column{TableName: "users", ColumnName: "id", Type: TypeInteger}
	pkey := &Constraint{TableName: "users", Name: "users_pkey", Type: PrimaryKey, Columns: []string{"id"}}
	nodes := []Node{
		// Deliberately emitted out of dependency order.
		{Object: pkey, Deps: []Ref{tbl, id}},
		{Object: id, Deps: []Ref{tbl}},
		{Object: tbl},
	}
	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	require.Len(t, ord.Objects, 3)
	assert.Equal(t, []Object{tbl, id, pkey}, ord.Objects)
	assert.Equal(t, map[string]int{
		"table:users":                 0,
		"column:users.id":             1,
		"constraint:users.users_pkey": 2,
	}, ord.Ranks)
}

func TestOrderObjects_FirstEmissionTieBreak(t *testing.T) {
	// Independent objects keep their emission order.
	nodes := []Node{
		{Object: &Table{Name: "posts"}},
		{Object: &Table{Name: "users"}},
		{Object: &Table{Name: "accounts"}},
	}
	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	var names []string
	for _, obj := range ord.Objects {
		names = append(names, obj.(*Table).Name)
	}
	assert.Equal(t, []string{"posts", "users", "accounts"}, names)
}

func TestOrderObjects_MergeDuplicates(t *testing.T) {
	orders := &Table{Name: "orders"}
	users := &Table{Name: "users"}
	nodes := []Node{
		{Object: orders},
		{Object: NewEnumType("status", []string{"open"}, TableColumn{Table: "orders", Column: "status"}), Deps: []Ref{orders}},
		{Object: users},
		{Object: NewEnumType("status", []string{"open", "closed"}, TableColumn{Table: "users", Column: "status"})},
	}
	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	require.Len(t, ord.Objects, 3)
	typ, ok := ord.Objects[1].(*EnumType)
	require.True(t, ok)
	assert.Equal(t, []string{"closed", "open"}, typ.Values)
	assert.Equal(t, []TableColumn{
		{Table: "orders", Column: "status"},
		{Table: "users", Column: "status"},
	}, typ.ReferenceColumns)
	// The merged type ranks after its anchor table only.
	assert.Less(t, ord.Ranks["table:orders"], ord.Ranks["type:status"])
}

func TestOrderObjects_DuplicateDepsUnioned(t *testing.T) {
	a := &Table{Name: "a"}
	b := &Table{Name: "b"}
	typ := NewEnumType("status", []string{"open"})
	nodes := []Node{
		{Object: a},
		{Object: b},
		// Two emissions of the same type, each anchored to one table.
		{Object: typ, Deps: []Ref{a}},
		{Object: NewEnumType("status", []string{"open"}), Deps: []Ref{b}},
	}
	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	assert.Less(t, ord.Ranks["table:a"], ord.Ranks["type:status"])
	assert.Less(t, ord.Ranks["table:b"], ord.Ranks["type:status"])
}

func TestOrderObjects_UnresolvedPointer(t *testing.T) {
	nodes := []Node{
		{Object: &Table{Name: "users"}},
		{Object: &Column{TableName: "users", ColumnName: "status", CustomType: "status"},
			Deps: []Ref{&TablePointer{TableName: "users"}, &TypePointer{Name: "status"}}},
	}
	_, err := OrderObjects(nodes)
	require.Error(t, err)
	require.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "type:status")
	assert.Contains(t, err.Error(), "pointer not found")
}

func TestOrderObjects_Cycle(t *testing.T) {
	nodes := []Node{
		{Object: &Table{Name: "a"}, Deps: []Ref{&TablePointer{TableName: "b"}}},
		{Object: &Table{Name: "b"}, Deps: []Ref{&TablePointer{TableName: "a"}}},
		{Object: &Table{Name: "c"}},
	}
	_, err := OrderObjects(nodes)
	require.Error(t, err)
	require.True(t, IsCycleError(err))
	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	assert.ElementsMatch(t, []string{"table:a", "table:b"}, cerr.Remaining)
}

func TestOrderObjects_SelfDependencySkipped(t *testing.T) {
	nodes := []Node{
		{Object: &Table{Name: "users"}, Deps: []Ref{&TablePointer{TableName: "users"}}},
	}
	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	require.Len(t, ord.Objects, 1)
}
