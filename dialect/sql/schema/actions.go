package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"

	"github.com/piercefreeman/iceaxe/dialect"
)

// An Op names one actor operation.
type Op string

// Actor operations.
const (
	OpComment          Op = "comment"
	OpAddTable         Op = "add_table"
	OpDropTable        Op = "drop_table"
	OpAddColumn        Op = "add_column"
	OpDropColumn       Op = "drop_column"
	OpAddNotNull       Op = "add_not_null"
	OpDropNotNull      Op = "drop_not_null"
	OpModifyColumnType Op = "modify_column_type"
	OpAddType          Op = "add_type"
	OpAddTypeValues    Op = "add_type_values"
	OpModifyType       Op = "modify_type"
	OpDropType         Op = "drop_type"
	OpAddConstraint    Op = "add_constraint"
	OpDropConstraint   Op = "drop_constraint"
)

// A Change is one captured actor call: the operation, its verbatim
// arguments, and the DDL generated for it. The planner's output is an
// ordered []Change, usable for dry-run inspection or already executed
// when the actor carries a driver.
type Change struct {
	Op      Op
	Args    map[string]any
	Queries []string
}

// Actions is the actor capability consumed by object create, destroy and
// migrate calls. Every call is recorded; when the actor is constructed
// with a driver the generated DDL is also executed immediately, in call
// order, failing fast on the first error.
type Actions struct {
	drv     dialect.ExecQuerier // nil for dry-run recording.
	changes []Change
}

// ActionsOption configures an Actions actor.
type ActionsOption func(*Actions)

// WithDriver makes the actor execute every generated statement against
// the given driver, in addition to recording it.
func WithDriver(drv dialect.ExecQuerier) ActionsOption {
	return func(a *Actions) { a.drv = drv }
}

// NewActions returns a new actor. Without options it records only.
func NewActions(opts ...ActionsOption) *Actions {
	a := &Actions{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Changes returns the captured calls in emission order.
func (a *Actions) Changes() []Change { return a.changes }

// record captures the call and executes its statements if a driver is set.
func (a *Actions) record(ctx context.Context, op Op, args map[string]any, queries ...string) error {
	a.changes = append(a.changes, Change{Op: op, Args: args, Queries: queries})
	if a.drv == nil {
		return nil
	}
	for _, q := range queries {
		if err := a.drv.Exec(ctx, q, []any{}, nil); err != nil {
			return &ExecError{Op: op, Query: q, Err: err}
		}
	}
	return nil
}

// Comment records an informational entry. No DDL is executed.
func (a *Actions) Comment(ctx context.Context, text string) error {
	return a.record(ctx, OpComment, map[string]any{"text": text})
}

// AddTable creates an empty table; columns are added separately.
func (a *Actions) AddTable(ctx context.Context, table string) error {
	return a.record(ctx, OpAddTable,
		map[string]any{"table_name": table},
		fmt.Sprintf("CREATE TABLE %s ()", pq.QuoteIdentifier(table)),
	)
}

// DropTable drops the given table.
func (a *Actions) DropTable(ctx context.Context, table string) error {
	return a.record(ctx, OpDropTable,
		map[string]any{"table_name": table},
		fmt.Sprintf("DROP TABLE %s", pq.QuoteIdentifier(table)),
	)
}

// columnTypeSQL renders the type clause of a column: either the
// primitive type or the quoted custom type name, with an array suffix
// for list columns.
func columnTypeSQL(typ ColumnType, isList bool, customType string) string {
	s := string(typ)
	if customType != "" {
		s = pq.QuoteIdentifier(customType)
	}
	if isList {
		s += "[]"
	}
	return s
}

// columnTypeArgs returns the shared argument map of column-type carrying
// operations, mirroring one-of explicit/custom type.
func columnTypeArgs(table, column string, typ ColumnType, isList bool, customType string) map[string]any {
	var explicit any
	if typ != "" {
		explicit = string(typ)
	}
	var custom any
	if customType != "" {
		custom = customType
	}
	return map[string]any{
		"table_name":            table,
		"column_name":           column,
		"explicit_data_type":    explicit,
		"explicit_data_is_list": isList,
		"custom_data_type":      custom,
	}
}

// AddColumn adds a column with the given type. Nullability is managed
// separately through AddNotNull / DropNotNull.
func (a *Actions) AddColumn(ctx context.Context, table, column string, typ ColumnType, isList bool, customType string) error {
	return a.record(ctx, OpAddColumn,
		columnTypeArgs(table, column, typ, isList, customType),
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(column), columnTypeSQL(typ, isList, customType)),
	)
}

// DropColumn drops the given column.
func (a *Actions) DropColumn(ctx context.Context, table, column string) error {
	return a.record(ctx, OpDropColumn,
		map[string]any{"table_name": table, "column_name": column},
		fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", pq.QuoteIdentifier(table), pq.QuoteIdentifier(column)),
	)
}

// AddNotNull marks the column NOT NULL.
func (a *Actions) AddNotNull(ctx context.Context, table, column string) error {
	return a.record(ctx, OpAddNotNull,
		map[string]any{"table_name": table, "column_name": column},
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", pq.QuoteIdentifier(table), pq.QuoteIdentifier(column)),
	)
}

// DropNotNull makes the column nullable.
func (a *Actions) DropNotNull(ctx context.Context, table, column string) error {
	return a.record(ctx, OpDropNotNull,
		map[string]any{"table_name": table, "column_name": column},
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", pq.QuoteIdentifier(table), pq.QuoteIdentifier(column)),
	)
}

// ModifyColumnType changes the type of an existing column, casting the
// current values through text so enum recasts work as well.
func (a *Actions) ModifyColumnType(ctx context.Context, table, column string, typ ColumnType, isList bool, customType string) error {
	target := columnTypeSQL(typ, isList, customType)
	return a.record(ctx, OpModifyColumnType,
		columnTypeArgs(table, column, typ, isList, customType),
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::text::%s",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(column), target, pq.QuoteIdentifier(column), target),
	)
}

// AddType creates an enum type with the given values.
func (a *Actions) AddType(ctx context.Context, name string, values []string) error {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = pq.QuoteLiteral(v)
	}
	return a.record(ctx, OpAddType,
		map[string]any{"type_name": name, "values": slices.Clone(values)},
		fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", pq.QuoteIdentifier(name), strings.Join(quoted, ", ")),
	)
}

// AddTypeValues appends labels to an existing enum type.
func (a *Actions) AddTypeValues(ctx context.Context, name string, values []string) error {
	queries := make([]string, len(values))
	for i, v := range values {
		queries[i] = fmt.Sprintf("ALTER TYPE %s ADD VALUE %s", pq.QuoteIdentifier(name), pq.QuoteLiteral(v))
	}
	return a.record(ctx, OpAddTypeValues,
		map[string]any{"type_name": name, "values": slices.Clone(values)},
		queries...,
	)
}

// ModifyType replaces the value set of an enum type. The database cannot
// drop labels in place, so the type is rebuilt: the old type is renamed
// aside, a fresh type is created under the original name, every
// referencing column is recast, and the old type is dropped.
func (a *Actions) ModifyType(ctx context.Context, name string, values []string, columns []TableColumn) error {
	old := name + "_old"
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = pq.QuoteLiteral(v)
	}
	queries := []string{
		fmt.Sprintf("ALTER TYPE %s RENAME TO %s", pq.QuoteIdentifier(name), pq.QuoteIdentifier(old)),
		fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", pq.QuoteIdentifier(name), strings.Join(quoted, ", ")),
	}
	for _, tc := range columns {
		queries = append(queries, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::text::%s",
			pq.QuoteIdentifier(tc.Table), pq.QuoteIdentifier(tc.Column),
			pq.QuoteIdentifier(name), pq.QuoteIdentifier(tc.Column), pq.QuoteIdentifier(name)))
	}
	queries = append(queries, fmt.Sprintf("DROP TYPE %s", pq.QuoteIdentifier(old)))
	cols := make([]string, len(columns))
	for i, tc := range columns {
		cols[i] = tc.Table + "." + tc.Column
	}
	return a.record(ctx, OpModifyType,
		map[string]any{"type_name": name, "values": slices.Clone(values), "reference_columns": cols},
		queries...,
	)
}

// DropType drops an enum type.
func (a *Actions) DropType(ctx context.Context, name string) error {
	return a.record(ctx, OpDropType,
		map[string]any{"type_name": name},
		fmt.Sprintf("DROP TYPE %s", pq.QuoteIdentifier(name)),
	)
}

// AddConstraint adds a constraint of any kind. Indexes are created as
// standalone CREATE INDEX statements, the rest through ALTER TABLE.
func (a *Actions) AddConstraint(ctx context.Context, table, name string, ct ConstraintType, columns []string, fk *ForeignKeyRef, check *CheckRef) error {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	cols := strings.Join(quoted, ", ")
	var query string
	var constraintArgs any
	switch ct {
	case PrimaryKey, Unique:
		query = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s (%s)",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(name), ct, cols)
	case ForeignKey:
		if fk == nil {
			return NewConfigError("constraint:"+table+"."+name, "foreign-key constraint without a target")
		}
		target := make([]string, len(fk.TargetColumns))
		for i, c := range fk.TargetColumns {
			target[i] = pq.QuoteIdentifier(c)
		}
		query = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(name), cols,
			pq.QuoteIdentifier(fk.TargetTable), strings.Join(target, ", "))
		constraintArgs = map[string]any{
			"target_table":   fk.TargetTable,
			"target_columns": slices.Clone(fk.TargetColumns),
		}
	case Check:
		if check == nil {
			return NewConfigError("constraint:"+table+"."+name, "check constraint without a condition")
		}
		query = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(name), check.Condition)
		constraintArgs = map[string]any{"check_condition": check.Condition}
	case Index:
		query = fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			pq.QuoteIdentifier(name), pq.QuoteIdentifier(table), cols)
	default:
		return NewConfigError("constraint:"+table+"."+name, "unsupported constraint type %q", ct)
	}
	return a.record(ctx, OpAddConstraint,
		map[string]any{
			"table_name":      table,
			"constraint_name": name,
			"constraint":      string(ct),
			"columns":         slices.Clone(columns),
			"constraint_args": constraintArgs,
		},
		query,
	)
}

// DropConstraint removes a constraint. Indexes are dropped directly.
func (a *Actions) DropConstraint(ctx context.Context, table, name string, ct ConstraintType) error {
	var query string
	if ct == Index {
		query = fmt.Sprintf("DROP INDEX %s", pq.QuoteIdentifier(name))
	} else {
		query = fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", pq.QuoteIdentifier(table), pq.QuoteIdentifier(name))
	}
	return a.record(ctx, OpDropConstraint,
		map[string]any{"table_name": table, "constraint_name": name, "constraint": string(ct)},
		query,
	)
}
