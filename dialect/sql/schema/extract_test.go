package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/piercefreeman/iceaxe/schema"
	"github.com/piercefreeman/iceaxe/schema/field"
	"github.com/piercefreeman/iceaxe/schema/index"
)

func TestExtract_SingleTable(t *testing.T) {
	users := model.New("users").AddFields(
		field.Int("id").PrimaryKey(),
		field.String("email").Unique(),
		field.String("name").Nullable(),
	)
	nodes, err := Extract([]*model.Table{users})
	require.NoError(t, err)
	require.Len(t, nodes, 6)

	assert.Equal(t, &Table{Name: "users"}, nodes[0].Object)
	assert.Empty(t, nodes[0].Deps)

	id := nodes[1].Object.(*Column)
	assert.Equal(t, &Column{TableName: "users", ColumnName: "id", Type: TypeInteger}, id)
	require.Len(t, nodes[1].Deps, 1)
	assert.Equal(t, "table:users", nodes[1].Deps[0].Representation())

	email := nodes[2].Object.(*Column)
	assert.Equal(t, TypeVarchar, email.Type)
	assert.False(t, email.Nullable)
	name := nodes[3].Object.(*Column)
	assert.True(t, name.Nullable)

	pkey := nodes[4].Object.(*Constraint)
	assert.Equal(t, "users_pkey", pkey.Name)
	assert.Equal(t, PrimaryKey, pkey.Type)
	assert.Equal(t, []string{"id"}, pkey.Columns)
	// The primary key waits for the table and every column.
	deps := depReprs(nodes[4].Deps)
	assert.Equal(t, []string{"column:users.email", "column:users.id", "column:users.name", "table:users"}, deps)

	unique := nodes[5].Object.(*Constraint)
	assert.Equal(t, "users_email_unique", unique.Name)
	assert.Equal(t, Unique, unique.Type)
	assert.Equal(t, []string{"column:users.email", "table:users"}, depReprs(nodes[5].Deps))
}

func TestExtract_ForeignKey(t *testing.T) {
	users := model.New("users").AddFields(field.Int("id").PrimaryKey())
	posts := model.New("posts").AddFields(
		field.Int("id").PrimaryKey(),
		field.Int("author_id").ForeignKey("users.id"),
	)
	nodes, err := Extract([]*model.Table{users, posts})
	require.NoError(t, err)

	var fkey *Node
	for i := range nodes {
		if c, ok := nodes[i].Object.(*Constraint); ok && c.Type == ForeignKey {
			fkey = &nodes[i]
		}
	}
	require.NotNil(t, fkey)
	con := fkey.Object.(*Constraint)
	assert.Equal(t, "posts_author_id_fkey", con.Name)
	assert.Equal(t, &ForeignKeyRef{TargetTable: "users", TargetColumns: []string{"id"}}, con.ForeignKey)
	// The constraint depends on the target column, not only its own side.
	assert.Contains(t, depReprs(fkey.Deps), "column:users.id")

	// Everything orders: the target column exists before the constraint.
	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	assert.Less(t, ord.Ranks["column:users.id"], ord.Ranks["constraint:posts.posts_author_id_fkey"])
}

func TestExtract_SharedEnum(t *testing.T) {
	status := func() *field.Descriptor {
		return field.Enum("status").TypeName("status").Values("open", "closed").Descriptor()
	}
	orders := &model.Table{Name: "orders", Fields: []*field.Descriptor{status()}}
	users := &model.Table{Name: "users", Fields: []*field.Descriptor{status()}}
	nodes, err := Extract([]*model.Table{users, orders})
	require.NoError(t, err)

	var types []Node
	for _, n := range nodes {
		if _, ok := n.Object.(*EnumType); ok {
			types = append(types, n)
		}
	}
	// Tables process sorted by name: orders introduces the type, users
	// re-emits it for merging.
	require.Len(t, types, 2)
	first := types[0].Object.(*EnumType)
	assert.Equal(t, []TableColumn{{Table: "orders", Column: "status"}}, first.ReferenceColumns)
	assert.Equal(t, []string{"table:orders"}, depReprs(types[0].Deps))
	second := types[1].Object.(*EnumType)
	assert.Equal(t, []TableColumn{{Table: "users", Column: "status"}}, second.ReferenceColumns)
	assert.Empty(t, types[1].Deps)

	ord, err := OrderObjects(nodes)
	require.NoError(t, err)
	typ := ord.Objects[ord.Ranks["type:status"]].(*EnumType)
	assert.Equal(t, []string{"closed", "open"}, typ.Values)
	assert.Len(t, typ.ReferenceColumns, 2)
	// Both columns rank after the shared type.
	assert.Less(t, ord.Ranks["type:status"], ord.Ranks["column:orders.status"])
	assert.Less(t, ord.Ranks["type:status"], ord.Ranks["column:users.status"])
}

func TestExtract_CompositeIndexes(t *testing.T) {
	users := model.New("users").
		AddFields(
			field.Int("id").PrimaryKey(),
			field.String("first"),
			field.String("last"),
		).
		AddIndexes(
			index.Fields("first", "last").Unique(),
			index.Fields("last").StorageKey("by_last"),
		)
	nodes, err := Extract([]*model.Table{users})
	require.NoError(t, err)

	var cons []*Constraint
	for _, n := range nodes {
		if c, ok := n.Object.(*Constraint); ok && c.Type != PrimaryKey {
			cons = append(cons, c)
		}
	}
	require.Len(t, cons, 2)
	assert.Equal(t, "users_first_last_unique", cons[0].Name)
	assert.Equal(t, Unique, cons[0].Type)
	assert.Equal(t, []string{"first", "last"}, cons[0].Columns)
	assert.Equal(t, "by_last", cons[1].Name)
	assert.Equal(t, Index, cons[1].Type)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		table   *model.Table
		wantErr string
	}{
		{
			name: "JSONWithoutOptIn",
			table: &model.Table{Name: "users", Fields: []*field.Descriptor{
				{Name: "meta", Info: &field.TypeInfo{Type: field.TypeJSON}},
			}},
			wantErr: "JSON fields must explicitly opt in",
		},
		{
			name: "EnumList",
			table: &model.Table{Name: "users", Fields: []*field.Descriptor{
				{Name: "tags", Info: &field.TypeInfo{Type: field.TypeEnum, Ident: "tags"}, Enums: []string{"a"}, IsList: true},
			}},
			wantErr: "list of enum values",
		},
		{
			name: "MissingTypeInfo",
			table: &model.Table{Name: "users", Fields: []*field.Descriptor{
				{Name: "ghost"},
			}},
			wantErr: "missing type classification",
		},
		{
			name: "InvalidForeignKeyTarget",
			table: &model.Table{Name: "posts", Fields: []*field.Descriptor{
				{Name: "author_id", Info: &field.TypeInfo{Type: field.TypeInt}, ForeignKey: "users"},
			}},
			wantErr: "invalid foreign-key target",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]*model.Table{tt.table})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtract_ValidateErrors(t *testing.T) {
	dup := model.New("users").AddFields(field.Int("id"), field.Int("id"))
	_, err := Extract([]*model.Table{dup})
	require.ErrorContains(t, err, "duplicate field")

	noValues := model.New("users").AddFields(field.Enum("status"))
	_, err = Extract([]*model.Table{noValues})
	require.ErrorContains(t, err, "no values")
}

func depReprs(deps []Ref) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.Representation()
	}
	return out
}
