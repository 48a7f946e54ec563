package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/piercefreeman/iceaxe/dialect"
	"github.com/piercefreeman/iceaxe/dialect/sql"
)

const (
	tablesQuery = `SELECT c.relname FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace WHERE n.nspname = $1 AND c.relkind = 'r' ORDER BY c.relname`

	columnsQuery = `SELECT table_name, column_name, data_type, udt_name, is_nullable FROM information_schema.columns WHERE table_schema = $1 ORDER BY table_name, ordinal_position`

	keysQuery = `SELECT tc.table_name, tc.constraint_name, tc.constraint_type, kcu.column_name, ccu.table_name, ccu.column_name FROM information_schema.table_constraints tc JOIN information_schema.key_column_usage kcu ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema LEFT JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema AND tc.constraint_type = 'FOREIGN KEY' WHERE tc.table_schema = $1 AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY') ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position`

	checksQuery = `SELECT rel.relname, con.conname, pg_get_constraintdef(con.oid), (SELECT array_agg(att.attname) FROM pg_attribute att WHERE att.attrelid = con.conrelid AND att.attnum = ANY(con.conkey)) FROM pg_constraint con JOIN pg_class rel ON rel.oid = con.conrelid JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace WHERE nsp.nspname = $1 AND con.contype = 'c' ORDER BY rel.relname, con.conname`

	indexesQuery = `SELECT t.relname, i.relname, (SELECT array_agg(att.attname) FROM pg_attribute att WHERE att.attrelid = t.oid AND att.attnum = ANY(ix.indkey)) FROM pg_index ix JOIN pg_class i ON i.oid = ix.indexrelid JOIN pg_class t ON t.oid = ix.indrelid JOIN pg_namespace n ON n.oid = t.relnamespace WHERE n.nspname = $1 AND NOT ix.indisprimary AND NOT ix.indisunique AND NOT EXISTS (SELECT 1 FROM pg_constraint c WHERE c.conindid = ix.indexrelid) ORDER BY t.relname, i.relname`

	enumsQuery = `SELECT t.typname, e.enumlabel FROM pg_type t JOIN pg_enum e ON e.enumtypid = t.oid JOIN pg_namespace n ON n.oid = t.typnamespace WHERE n.nspname = $1 ORDER BY t.typname, e.enumsortorder`
)

// An Inspector reconstructs the object/dependency vocabulary from a live
// database catalog, so the planner can compare declared against live
// state without a separate comparison path. Dependencies whose target is
// not re-derived in the same emission step are declared through
// pointers; ordering is resolved later by OrderObjects.
type Inspector struct {
	drv    dialect.Driver
	schema string
}

// InspectOption configures an Inspector.
type InspectOption func(*Inspector)

// WithSchema sets the database schema to inspect. Defaults to "public".
func WithSchema(name string) InspectOption {
	return func(i *Inspector) { i.schema = name }
}

// NewInspector returns an Inspector reading through the given driver.
func NewInspector(drv dialect.Driver, opts ...InspectOption) *Inspector {
	i := &Inspector{drv: drv, schema: "public"}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type columnRow struct {
	table, column, dataType, udt string
	nullable                     bool
}

type keyRow struct {
	table, name, ctype, column string
	targetTable, targetColumn  sql.NullString
}

type exprRow struct {
	table, name, def string
	columns          []string
}

// Inspect reads the catalog and returns the snapshot as object and
// dependency pairs. The catalog queries run concurrently; assembly is
// single-threaded.
func (i *Inspector) Inspect(ctx context.Context) ([]Node, error) {
	var (
		tables  []string
		columns []columnRow
		keys    []keyRow
		checks  []exprRow
		indexes []exprRow
		enums   = make(map[string][]string)
		order   []string // enum names in catalog order.
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return i.query(gctx, tablesQuery, func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			tables = append(tables, name)
			return nil
		})
	})
	g.Go(func() error {
		return i.query(gctx, columnsQuery, func(rows *sql.Rows) error {
			var c columnRow
			var nullable string
			if err := rows.Scan(&c.table, &c.column, &c.dataType, &c.udt, &nullable); err != nil {
				return err
			}
			c.nullable = nullable == "YES"
			columns = append(columns, c)
			return nil
		})
	})
	g.Go(func() error {
		return i.query(gctx, keysQuery, func(rows *sql.Rows) error {
			var k keyRow
			if err := rows.Scan(&k.table, &k.name, &k.ctype, &k.column, &k.targetTable, &k.targetColumn); err != nil {
				return err
			}
			keys = append(keys, k)
			return nil
		})
	})
	g.Go(func() error {
		return i.query(gctx, checksQuery, func(rows *sql.Rows) error {
			var r exprRow
			if err := rows.Scan(&r.table, &r.name, &r.def, pq.Array(&r.columns)); err != nil {
				return err
			}
			checks = append(checks, r)
			return nil
		})
	})
	g.Go(func() error {
		return i.query(gctx, indexesQuery, func(rows *sql.Rows) error {
			var r exprRow
			if err := rows.Scan(&r.table, &r.name, pq.Array(&r.columns)); err != nil {
				return err
			}
			indexes = append(indexes, r)
			return nil
		})
	})
	g.Go(func() error {
		return i.query(gctx, enumsQuery, func(rows *sql.Rows) error {
			var name, label string
			if err := rows.Scan(&name, &label); err != nil {
				return err
			}
			if _, ok := enums[name]; !ok {
				order = append(order, name)
			}
			enums[name] = append(enums[name], label)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return i.assemble(tables, columns, keys, checks, indexes, enums, order)
}

func (i *Inspector) assemble(tables []string, columns []columnRow, keys []keyRow, checks, indexes []exprRow, enums map[string][]string, enumOrder []string) ([]Node, error) {
	var nodes []Node
	for _, t := range tables {
		nodes = append(nodes, Node{Object: &Table{Name: t}})
	}

	// Enum types with their reference columns reverse-mapped from the
	// column catalog.
	refs := make(map[string][]TableColumn)
	for _, c := range columns {
		if c.dataType == "USER-DEFINED" {
			refs[c.udt] = append(refs[c.udt], TableColumn{Table: c.table, Column: c.column})
		}
	}
	for _, name := range enumOrder {
		var deps []Ref
		seen := make(map[string]struct{})
		for _, ref := range refs[name] {
			if _, ok := seen[ref.Table]; !ok {
				seen[ref.Table] = struct{}{}
				deps = append(deps, &TablePointer{TableName: ref.Table})
			}
		}
		nodes = append(nodes, Node{Object: NewEnumType(name, enums[name], refs[name]...), Deps: deps})
	}

	for _, c := range columns {
		col, deps, err := i.column(c, enums)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{Object: col, Deps: deps})
	}

	// Key constraints: rows are grouped by constraint, preserving the
	// catalog's column order within each.
	type keyGroup struct {
		table, name, ctype     string
		columns, targetColumns []string
		targetTable            string
	}
	var groupOrder []string
	groups := make(map[string]*keyGroup)
	for _, k := range keys {
		id := k.table + "." + k.name
		g, ok := groups[id]
		if !ok {
			g = &keyGroup{table: k.table, name: k.name, ctype: k.ctype}
			groups[id] = g
			groupOrder = append(groupOrder, id)
		}
		g.columns = append(g.columns, k.column)
		if k.targetTable.Valid {
			g.targetTable = k.targetTable.String
			g.targetColumns = append(g.targetColumns, k.targetColumn.String)
		}
	}
	for _, id := range groupOrder {
		g := groups[id]
		con := &Constraint{
			TableName: g.table,
			Name:      g.name,
			Columns:   sortedSet(g.columns),
		}
		deps := []Ref{&TablePointer{TableName: g.table}}
		for _, col := range sortedSet(g.columns) {
			deps = append(deps, &ColumnPointer{TableName: g.table, ColumnName: col})
		}
		switch g.ctype {
		case "PRIMARY KEY":
			con.Type = PrimaryKey
		case "UNIQUE":
			con.Type = Unique
		case "FOREIGN KEY":
			con.Type = ForeignKey
			con.ForeignKey = &ForeignKeyRef{
				TargetTable:   g.targetTable,
				TargetColumns: sortedSet(g.targetColumns),
			}
			for _, col := range con.ForeignKey.TargetColumns {
				deps = append(deps, &ColumnPointer{TableName: g.targetTable, ColumnName: col})
			}
		}
		nodes = append(nodes, Node{Object: con, Deps: deps})
	}

	for _, r := range checks {
		con := &Constraint{
			TableName: r.table,
			Name:      r.name,
			Type:      Check,
			Columns:   sortedSet(r.columns),
			Check:     &CheckRef{Condition: parseCheckClause(r.def)},
		}
		nodes = append(nodes, Node{Object: con, Deps: constraintDeps(r.table, con.Columns)})
	}
	for _, r := range indexes {
		con := &Constraint{
			TableName: r.table,
			Name:      r.name,
			Type:      Index,
			Columns:   sortedSet(r.columns),
		}
		nodes = append(nodes, Node{Object: con, Deps: constraintDeps(r.table, con.Columns)})
	}
	return nodes, nil
}

// column classifies one catalog column row.
func (i *Inspector) column(c columnRow, enums map[string][]string) (*Column, []Ref, error) {
	col := &Column{
		TableName:  c.table,
		ColumnName: c.column,
		Nullable:   c.nullable,
	}
	deps := []Ref{&TablePointer{TableName: c.table}}
	udt := c.udt
	if c.dataType == "ARRAY" {
		col.IsList = true
		udt = strings.TrimPrefix(udt, "_")
	}
	switch {
	case c.dataType == "USER-DEFINED":
		if _, ok := enums[udt]; !ok {
			return nil, nil, NewConfigError(col.Representation(), "user-defined type %q is not a known enum type", udt)
		}
		col.CustomType = udt
		deps = append(deps, &TypePointer{Name: udt})
	default:
		typ, ok := pgTypes[c.dataType]
		if !ok {
			typ, ok = pgTypes[udt]
		}
		if !ok {
			return nil, nil, NewConfigError(col.Representation(), "unsupported column type %q", c.dataType)
		}
		col.Type = typ
	}
	return col, deps, nil
}

func constraintDeps(table string, columns []string) []Ref {
	deps := []Ref{&TablePointer{TableName: table}}
	for _, col := range columns {
		deps = append(deps, &ColumnPointer{TableName: table, ColumnName: col})
	}
	return deps
}

// parseCheckClause extracts the condition from a catalog constraint
// definition of the form "CHECK ((condition))". All enclosing paren
// layers are stripped so the condition compares equal to its declared
// form.
func parseCheckClause(def string) string {
	s := strings.TrimSpace(def)
	s = strings.TrimSpace(strings.TrimPrefix(s, "CHECK"))
	for wrapped(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// wrapped reports whether s is enclosed by one matching pair of parens.
func wrapped(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return true
}

// query runs one catalog query with the schema name bound and invokes
// scan per row.
func (i *Inspector) query(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	var rows sql.Rows
	if err := i.drv.Query(ctx, query, []any{i.schema}, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sql/schema: inspect: %w", err)
	}
	return nil
}
