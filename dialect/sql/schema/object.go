// Package schema implements the relational-schema migration planner:
// a normalized graph of schema objects is built from declared table
// descriptors or from a live database catalog, ordered topologically,
// and diffed against a previous snapshot to produce a minimal sequence
// of DDL actions that never violates dependency order.
package schema

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Ref is a reference to a schema object by identity. Both full objects
// and lightweight pointers implement it.
type Ref interface {
	// Representation returns the stable identity key of the object. It is
	// unique per logical identity and independent of mutable attributes.
	Representation() string
}

// Object is a schema object: a table, a column, an enum type or a
// constraint. Objects are rebuilt fresh for every extraction or
// introspection pass and discarded after one diff cycle.
type Object interface {
	Ref
	// Merge combines this object with another of equal representation.
	// Enum types union their accumulating fields; for the other kinds a
	// second definition with different content is a configuration error.
	Merge(other Object) (Object, error)
	// Equal reports full attribute equality, deciding whether a matched
	// object needs a migrate action.
	Equal(other Object) bool
	// Create emits the actions that bring the object into existence.
	Create(ctx context.Context, a *Actions) error
	// Destroy emits the actions that remove the object.
	Destroy(ctx context.Context, a *Actions) error
	// Migrate emits the actions that move prev to this definition.
	Migrate(ctx context.Context, prev Object, a *Actions) error
}

// Table is a schema table. It is identity-only: all content lives in its
// columns and constraints, so tables are never migrated in place.
type Table struct {
	Name string `yaml:"name"`
}

// Representation implements Ref.
func (t *Table) Representation() string { return "table:" + t.Name }

// Merge implements Object. Tables carry no content beyond their identity.
func (t *Table) Merge(Object) (Object, error) { return t, nil }

// Equal implements Object.
func (t *Table) Equal(other Object) bool {
	o, ok := other.(*Table)
	return ok && t.Name == o.Name
}

// Create implements Object.
func (t *Table) Create(ctx context.Context, a *Actions) error {
	if err := a.Comment(ctx, fmt.Sprintf("NEW TABLE: %s", t.Name)); err != nil {
		return err
	}
	return a.AddTable(ctx, t.Name)
}

// Destroy implements Object.
func (t *Table) Destroy(ctx context.Context, a *Actions) error {
	return a.DropTable(ctx, t.Name)
}

// Migrate implements Object. Tables are identity-only.
func (t *Table) Migrate(context.Context, Object, *Actions) error { return nil }

// TablePointer references a table by name only.
type TablePointer struct {
	TableName string
}

// Representation implements Ref.
func (p *TablePointer) Representation() string { return "table:" + p.TableName }

// Column is a single table column. Type holds the primitive column type,
// or CustomType names the enum type when the column is enum-backed.
type Column struct {
	TableName  string     `yaml:"table_name"`
	ColumnName string     `yaml:"column_name"`
	Type       ColumnType `yaml:"type,omitempty"`
	CustomType string     `yaml:"custom_type,omitempty"`
	IsList     bool       `yaml:"is_list,omitempty"`
	Nullable   bool       `yaml:"nullable,omitempty"`
}

// Representation implements Ref. The key ignores the column's type and
// nullability so that changed columns match their previous version.
func (c *Column) Representation() string {
	return "column:" + c.TableName + "." + c.ColumnName
}

// Merge implements Object.
func (c *Column) Merge(other Object) (Object, error) {
	if !c.Equal(other) {
		return nil, NewConfigError(c.Representation(), "conflicting duplicate column definitions")
	}
	return c, nil
}

// Equal implements Object.
func (c *Column) Equal(other Object) bool {
	o, ok := other.(*Column)
	return ok && *c == *o
}

// Create implements Object.
func (c *Column) Create(ctx context.Context, a *Actions) error {
	if err := a.AddColumn(ctx, c.TableName, c.ColumnName, c.Type, c.IsList, c.CustomType); err != nil {
		return err
	}
	if !c.Nullable {
		return a.AddNotNull(ctx, c.TableName, c.ColumnName)
	}
	return nil
}

// Destroy implements Object.
func (c *Column) Destroy(ctx context.Context, a *Actions) error {
	return a.DropColumn(ctx, c.TableName, c.ColumnName)
}

// Migrate implements Object. A type, list-ness or custom-type change
// modifies the column type; a nullability change adds or drops NOT NULL.
func (c *Column) Migrate(ctx context.Context, prev Object, a *Actions) error {
	p, ok := prev.(*Column)
	if !ok {
		return NewConfigError(c.Representation(), "previous object is %T, not a column", prev)
	}
	if c.Type != p.Type || c.CustomType != p.CustomType || c.IsList != p.IsList {
		if err := a.Comment(ctx, fmt.Sprintf("MODIFIED COLUMN: %s.%s", c.TableName, c.ColumnName)); err != nil {
			return err
		}
		if err := a.ModifyColumnType(ctx, c.TableName, c.ColumnName, c.Type, c.IsList, c.CustomType); err != nil {
			return err
		}
	}
	switch {
	case p.Nullable && !c.Nullable:
		return a.AddNotNull(ctx, c.TableName, c.ColumnName)
	case !p.Nullable && c.Nullable:
		return a.DropNotNull(ctx, c.TableName, c.ColumnName)
	}
	return nil
}

// ColumnPointer references a column by table and name only.
type ColumnPointer struct {
	TableName  string
	ColumnName string
}

// Representation implements Ref.
func (p *ColumnPointer) Representation() string {
	return "column:" + p.TableName + "." + p.ColumnName
}

// TableColumn identifies one column of one table, used for the reverse
// mapping from an enum type to the columns referencing it.
type TableColumn struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// EnumType is a shared enumerated database type. One EnumType node may be
// referenced by many columns across many tables; duplicate emissions are
// merged during normalization by unioning Values and ReferenceColumns.
type EnumType struct {
	Name             string        `yaml:"name"`
	Values           []string      `yaml:"values"`
	ReferenceColumns []TableColumn `yaml:"reference_columns,omitempty"`
}

// NewEnumType returns an EnumType with its value set normalized.
func NewEnumType(name string, values []string, refs ...TableColumn) *EnumType {
	t := &EnumType{Name: name, Values: sortedSet(values), ReferenceColumns: refs}
	sortTableColumns(t.ReferenceColumns)
	return t
}

// Representation implements Ref. The key is the type name alone, so a
// renamed type is a distinct object while value changes migrate in place.
func (t *EnumType) Representation() string { return "type:" + t.Name }

// Merge implements Object by unioning the accumulating fields.
func (t *EnumType) Merge(other Object) (Object, error) {
	o, ok := other.(*EnumType)
	if !ok {
		return nil, NewConfigError(t.Representation(), "conflicting object kinds %T and %T", t, other)
	}
	merged := &EnumType{
		Name:             t.Name,
		Values:           sortedSet(append(slices.Clone(t.Values), o.Values...)),
		ReferenceColumns: slices.Clone(t.ReferenceColumns),
	}
	for _, ref := range o.ReferenceColumns {
		if !slices.Contains(merged.ReferenceColumns, ref) {
			merged.ReferenceColumns = append(merged.ReferenceColumns, ref)
		}
	}
	sortTableColumns(merged.ReferenceColumns)
	return merged, nil
}

// Equal implements Object.
func (t *EnumType) Equal(other Object) bool {
	o, ok := other.(*EnumType)
	return ok && t.Name == o.Name &&
		slices.Equal(t.Values, o.Values) &&
		slices.Equal(t.ReferenceColumns, o.ReferenceColumns)
}

// Create implements Object.
func (t *EnumType) Create(ctx context.Context, a *Actions) error {
	return a.AddType(ctx, t.Name, t.Values)
}

// Destroy implements Object.
func (t *EnumType) Destroy(ctx context.Context, a *Actions) error {
	return a.DropType(ctx, t.Name)
}

// Migrate implements Object. Growing the value set appends labels in
// place; any removal rebuilds the type and recasts the referencing
// columns, since the database does not support dropping labels.
func (t *EnumType) Migrate(ctx context.Context, prev Object, a *Actions) error {
	p, ok := prev.(*EnumType)
	if !ok {
		return NewConfigError(t.Representation(), "previous object is %T, not an enum type", prev)
	}
	var added, removed []string
	for _, v := range t.Values {
		if !slices.Contains(p.Values, v) {
			added = append(added, v)
		}
	}
	for _, v := range p.Values {
		if !slices.Contains(t.Values, v) {
			removed = append(removed, v)
		}
	}
	switch {
	case len(removed) > 0:
		return a.ModifyType(ctx, t.Name, t.Values, t.ReferenceColumns)
	case len(added) > 0:
		return a.AddTypeValues(ctx, t.Name, added)
	}
	return nil
}

// TypePointer references an enum type by name only.
type TypePointer struct {
	Name string
}

// Representation implements Ref.
func (p *TypePointer) Representation() string { return "type:" + p.Name }

// A ConstraintType determines the kind of a table constraint.
type ConstraintType string

// Constraint types.
const (
	PrimaryKey ConstraintType = "PRIMARY KEY"
	Unique     ConstraintType = "UNIQUE"
	ForeignKey ConstraintType = "FOREIGN KEY"
	Index      ConstraintType = "INDEX"
	Check      ConstraintType = "CHECK"
)

// ForeignKeyRef holds the target side of a foreign-key constraint.
type ForeignKeyRef struct {
	TargetTable   string   `yaml:"target_table"`
	TargetColumns []string `yaml:"target_columns"`
}

// CheckRef holds the condition of a check constraint.
type CheckRef struct {
	Condition string `yaml:"condition"`
}

// Constraint is a table constraint of any kind, including plain indexes.
// Columns are an order-insensitive set, kept sorted.
type Constraint struct {
	TableName  string         `yaml:"table_name"`
	Name       string         `yaml:"name"`
	Type       ConstraintType `yaml:"type"`
	Columns    []string       `yaml:"columns"`
	ForeignKey *ForeignKeyRef `yaml:"foreign_key,omitempty"`
	Check      *CheckRef      `yaml:"check,omitempty"`
}

// ConstraintName returns the deterministic name for a declared
// constraint: <table>_pkey for primary keys, and
// <table>_<columns...>_<kind> otherwise, with columns sorted.
func ConstraintName(table string, columns []string, ct ConstraintType) string {
	if ct == PrimaryKey {
		return table + "_pkey"
	}
	suffix := map[ConstraintType]string{
		Unique:     "unique",
		ForeignKey: "fkey",
		Index:      "idx",
		Check:      "check",
	}[ct]
	return table + "_" + strings.Join(sortedSet(columns), "_") + "_" + suffix
}

// Representation implements Ref. Constraint names derive from the
// covered columns and kind, so a changed column set is a rename and
// therefore a distinct object.
func (c *Constraint) Representation() string {
	return "constraint:" + c.TableName + "." + c.Name
}

// Merge implements Object.
func (c *Constraint) Merge(other Object) (Object, error) {
	if !c.Equal(other) {
		return nil, NewConfigError(c.Representation(), "conflicting duplicate constraint definitions")
	}
	return c, nil
}

// Equal implements Object.
func (c *Constraint) Equal(other Object) bool {
	o, ok := other.(*Constraint)
	if !ok || c.TableName != o.TableName || c.Name != o.Name || c.Type != o.Type {
		return false
	}
	if !slices.Equal(c.Columns, o.Columns) {
		return false
	}
	switch {
	case (c.ForeignKey == nil) != (o.ForeignKey == nil):
		return false
	case c.ForeignKey != nil:
		if c.ForeignKey.TargetTable != o.ForeignKey.TargetTable ||
			!slices.Equal(c.ForeignKey.TargetColumns, o.ForeignKey.TargetColumns) {
			return false
		}
	}
	switch {
	case (c.Check == nil) != (o.Check == nil):
		return false
	case c.Check != nil:
		if c.Check.Condition != o.Check.Condition {
			return false
		}
	}
	return true
}

// Create implements Object.
func (c *Constraint) Create(ctx context.Context, a *Actions) error {
	return a.AddConstraint(ctx, c.TableName, c.Name, c.Type, c.Columns, c.ForeignKey, c.Check)
}

// Destroy implements Object.
func (c *Constraint) Destroy(ctx context.Context, a *Actions) error {
	return a.DropConstraint(ctx, c.TableName, c.Name, c.Type)
}

// Migrate implements Object. Constraints are never altered in place: the
// previous definition is dropped and the new one created.
func (c *Constraint) Migrate(ctx context.Context, prev Object, a *Actions) error {
	p, ok := prev.(*Constraint)
	if !ok {
		return NewConfigError(c.Representation(), "previous object is %T, not a constraint", prev)
	}
	if err := a.DropConstraint(ctx, p.TableName, p.Name, p.Type); err != nil {
		return err
	}
	return c.Create(ctx, a)
}

// sortedSet returns a sorted copy of vs with duplicates removed.
func sortedSet(vs []string) []string {
	out := slices.Clone(vs)
	sort.Strings(out)
	return slices.Compact(out)
}

func sortTableColumns(refs []TableColumn) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Table != refs[j].Table {
			return refs[i].Table < refs[j].Table
		}
		return refs[i].Column < refs[j].Column
	})
}
