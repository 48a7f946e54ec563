package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piercefreeman/iceaxe/dialect"
	esql "github.com/piercefreeman/iceaxe/dialect/sql"
	model "github.com/piercefreeman/iceaxe/schema"
	"github.com/piercefreeman/iceaxe/schema/field"
)

// declaredOrders is the declaration matching the mocked orders catalog.
func declaredOrders() *model.Table {
	return model.New("orders").AddFields(
		field.Int("id").PrimaryKey(),
		field.Enum("status").Values("open", "closed"),
	)
}

// catalog bundles the mocked rows of the six inspector queries.
type catalog struct {
	tables, columns, keys, checks, indexes, enums *sqlmock.Rows
}

func emptyCatalog() catalog {
	return catalog{
		tables:  sqlmock.NewRows([]string{"relname"}),
		columns: sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "udt_name", "is_nullable"}),
		keys:    sqlmock.NewRows([]string{"table_name", "constraint_name", "constraint_type", "column_name", "target_table", "target_column"}),
		checks:  sqlmock.NewRows([]string{"relname", "conname", "def", "columns"}),
		indexes: sqlmock.NewRows([]string{"table", "index", "columns"}),
		enums:   sqlmock.NewRows([]string{"typname", "enumlabel"}),
	}
}

// expectCatalog mocks all inspector queries. Matching is unordered since
// the queries run concurrently.
func expectCatalog(mock sqlmock.Sqlmock, c catalog) {
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnRows(c.tables)
	mock.ExpectQuery(escape(columnsQuery)).WithArgs("public").WillReturnRows(c.columns)
	mock.ExpectQuery(escape(keysQuery)).WithArgs("public").WillReturnRows(c.keys)
	mock.ExpectQuery(escape(checksQuery)).WithArgs("public").WillReturnRows(c.checks)
	mock.ExpectQuery(escape(indexesQuery)).WithArgs("public").WillReturnRows(c.indexes)
	mock.ExpectQuery(escape(enumsQuery)).WithArgs("public").WillReturnRows(c.enums)
}

func TestInspect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := emptyCatalog()
	c.tables.AddRow("users")
	c.columns.
		AddRow("users", "id", "integer", "int4", "NO").
		AddRow("users", "status", "USER-DEFINED", "status", "NO").
		AddRow("users", "tags", "ARRAY", "_varchar", "YES")
	c.keys.AddRow("users", "users_pkey", "PRIMARY KEY", "id", nil, nil)
	c.checks.AddRow("users", "users_id_check", "CHECK ((id > 0))", "{id}")
	c.indexes.AddRow("users", "users_tags_idx", "{tags}")
	c.enums.
		AddRow("status", "open").
		AddRow("status", "closed")
	expectCatalog(mock, c)

	nodes, err := NewInspector(esql.OpenDB(dialect.Postgres, db)).Inspect(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, nodes, 8)

	assert.Equal(t, Node{Object: &Table{Name: "users"}}, nodes[0])
	assert.Equal(t, Node{
		Object: NewEnumType("status", []string{"open", "closed"}, TableColumn{Table: "users", Column: "status"}),
		Deps:   []Ref{&TablePointer{TableName: "users"}},
	}, nodes[1])
	assert.Equal(t, Node{
		Object: &Column{TableName: "users", ColumnName: "id", Type: TypeInteger},
		Deps:   []Ref{&TablePointer{TableName: "users"}},
	}, nodes[2])
	assert.Equal(t, Node{
		Object: &Column{TableName: "users", ColumnName: "status", CustomType: "status"},
		Deps:   []Ref{&TablePointer{TableName: "users"}, &TypePointer{Name: "status"}},
	}, nodes[3])
	assert.Equal(t, Node{
		Object: &Column{TableName: "users", ColumnName: "tags", Type: TypeVarchar, IsList: true, Nullable: true},
		Deps:   []Ref{&TablePointer{TableName: "users"}},
	}, nodes[4])
	assert.Equal(t, Node{
		Object: &Constraint{TableName: "users", Name: "users_pkey", Type: PrimaryKey, Columns: []string{"id"}},
		Deps:   []Ref{&TablePointer{TableName: "users"}, &ColumnPointer{TableName: "users", ColumnName: "id"}},
	}, nodes[5])
	assert.Equal(t, Node{
		Object: &Constraint{TableName: "users", Name: "users_id_check", Type: Check, Columns: []string{"id"},
			Check: &CheckRef{Condition: "id > 0"}},
		Deps: []Ref{&TablePointer{TableName: "users"}, &ColumnPointer{TableName: "users", ColumnName: "id"}},
	}, nodes[6])
	assert.Equal(t, Node{
		Object: &Constraint{TableName: "users", Name: "users_tags_idx", Type: Index, Columns: []string{"tags"}},
		Deps:   []Ref{&TablePointer{TableName: "users"}, &ColumnPointer{TableName: "users", ColumnName: "tags"}},
	}, nodes[7])
}

func TestInspect_ForeignKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := emptyCatalog()
	c.tables.AddRow("posts").AddRow("users")
	c.columns.
		AddRow("posts", "author_id", "integer", "int4", "NO").
		AddRow("users", "id", "integer", "int4", "NO")
	c.keys.AddRow("posts", "posts_author_id_fkey", "FOREIGN KEY", "author_id", "users", "id")
	expectCatalog(mock, c)

	nodes, err := NewInspector(esql.OpenDB(dialect.Postgres, db)).Inspect(context.Background())
	require.NoError(t, err)
	con := nodes[len(nodes)-1]
	assert.Equal(t, Node{
		Object: &Constraint{
			TableName:  "posts",
			Name:       "posts_author_id_fkey",
			Type:       ForeignKey,
			Columns:    []string{"author_id"},
			ForeignKey: &ForeignKeyRef{TargetTable: "users", TargetColumns: []string{"id"}},
		},
		Deps: []Ref{
			&TablePointer{TableName: "posts"},
			&ColumnPointer{TableName: "posts", ColumnName: "author_id"},
			&ColumnPointer{TableName: "users", ColumnName: "id"},
		},
	}, con)
}

func TestInspect_RoundTripsExtract(t *testing.T) {
	// A snapshot read back from the catalog diffs empty against the
	// declaration it was created from.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := emptyCatalog()
	c.tables.AddRow("orders")
	c.columns.
		AddRow("orders", "id", "integer", "int4", "NO").
		AddRow("orders", "status", "USER-DEFINED", "status", "NO")
	c.keys.AddRow("orders", "orders_pkey", "PRIMARY KEY", "id", nil, nil)
	c.enums.
		AddRow("status", "closed").
		AddRow("status", "open")
	expectCatalog(mock, c)

	nodes, err := NewInspector(esql.OpenDB(dialect.Postgres, db)).Inspect(context.Background())
	require.NoError(t, err)
	prev, err := OrderObjects(nodes)
	require.NoError(t, err)
	next := mustOrder(t, declaredOrders())
	assert.Empty(t, diffOrderings(t, prev, next))
}

func TestInspect_Errors(t *testing.T) {
	t.Run("UnknownUserDefinedType", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		c := emptyCatalog()
		c.tables.AddRow("users")
		c.columns.AddRow("users", "loc", "USER-DEFINED", "point", "NO")
		expectCatalog(mock, c)
		_, err = NewInspector(esql.OpenDB(dialect.Postgres, db)).Inspect(context.Background())
		require.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "column:users.loc")
	})
	t.Run("UnsupportedType", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		c := emptyCatalog()
		c.tables.AddRow("users")
		c.columns.AddRow("users", "net", "cidr", "cidr", "NO")
		expectCatalog(mock, c)
		_, err = NewInspector(esql.OpenDB(dialect.Postgres, db)).Inspect(context.Background())
		require.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "unsupported column type")
	})
	t.Run("QueryFailure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.MatchExpectationsInOrder(false)
		mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnError(errors.New("boom"))
		for _, q := range []string{columnsQuery, keysQuery, checksQuery, indexesQuery, enumsQuery} {
			mock.ExpectQuery(escape(q)).WithArgs("public").WillReturnRows(sqlmock.NewRows([]string{}))
		}
		_, err = NewInspector(esql.OpenDB(dialect.Postgres, db)).Inspect(context.Background())
		require.Error(t, err)
	})
}

func TestInspect_WithSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	for _, q := range []string{tablesQuery, columnsQuery, keysQuery, checksQuery, indexesQuery, enumsQuery} {
		mock.ExpectQuery(escape(q)).WithArgs("tenant_a").WillReturnRows(sqlmock.NewRows([]string{}))
	}
	_, err = NewInspector(esql.OpenDB(dialect.Postgres, db), WithSchema("tenant_a")).Inspect(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseCheckClause(t *testing.T) {
	tests := []struct {
		def  string
		want string
	}{
		{"CHECK ((age > 0))", "age > 0"},
		{"CHECK (age > 0)", "age > 0"},
		{"CHECK (((age > 0) AND (age < 200)))", "(age > 0) AND (age < 200)"},
		{"age > 0", "age > 0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCheckClause(tt.def))
	}
}
